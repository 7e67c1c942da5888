package testsupport

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// WriteVideo writes a placeholder video of size bytes. Nothing decodes it;
// tests that need frames inject a capture instead. A size <= 0 writes one byte.
func WriteVideo(t testing.TB, path string, size int64) {
	t.Helper()

	if size <= 0 {
		size = 1
	}
	writeFile(t, path, bytes.Repeat([]byte{0x42}, int(size)))
}

// WriteSRT writes one cue per text, each lasting a second and starting where
// the previous one ended.
func WriteSRT(t testing.TB, path string, texts ...string) {
	t.Helper()

	var b strings.Builder
	for i, text := range texts {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%d\n00:00:%02d,000 --> 00:00:%02d,000\n%s\n", i+1, i, i+1, text)
	}
	writeFile(t, path, []byte(b.String()))
}

func writeFile(t testing.TB, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
