package textutil

import (
	"path/filepath"
	"strings"
	"unicode"
)

// fileNameReplacer replaces filesystem-unsafe characters with safe alternatives.
var fileNameReplacer = strings.NewReplacer(
	"/", "-",
	"\\", "-",
	":", "-",
	"*", "-",
	"?", "",
	"\"", "",
	"<", "",
	">", "",
	"|", "",
)

// SanitizeFileName replaces filesystem-unsafe characters in a filename.
// Slashes, backslashes, colons, and asterisks become dashes; other unsafe
// characters are removed. The result is trimmed of leading/trailing whitespace.
func SanitizeFileName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	return strings.TrimSpace(fileNameReplacer.Replace(name))
}

// SanitizeStem turns a file name into the identifier used for stored videos
// and their frame directories: the extension is dropped, unsafe characters are
// handled as in SanitizeFileName, runs of whitespace become a single
// underscore, and leading dots are removed so the result is never hidden.
// Returns "video" when nothing usable remains.
func SanitizeStem(name string) string {
	base := filepath.Base(strings.TrimSpace(name))
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	stem = SanitizeFileName(stem)

	var b strings.Builder
	pendingSpace := false
	for _, r := range stem {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			pendingSpace = true
			continue
		}
		if pendingSpace && b.Len() > 0 {
			b.WriteByte('_')
		}
		pendingSpace = false
		b.WriteRune(r)
	}
	out := strings.TrimLeft(b.String(), ".")
	if out == "" || out == "." || out == ".." {
		return "video"
	}
	return out
}
