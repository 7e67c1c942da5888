package subtitles

import (
	"bytes"
	"fmt"
	"html"
	"regexp"
	"strings"
)

var inlineTag = regexp.MustCompile(`<[^>]*>`)

// IsWebVTT reports whether a track with the given extension and body should be
// treated as WebVTT.
func IsWebVTT(ext string, body []byte) bool {
	if strings.EqualFold(strings.TrimPrefix(ext, "."), "vtt") {
		return true
	}
	body = bytes.TrimPrefix(body, []byte("\ufeff"))
	return bytes.HasPrefix(bytes.TrimLeft(body, " \t\r\n"), []byte("WEBVTT"))
}

// ConvertVTTToSRT rewrites WebVTT text as SRT. Header, NOTE, STYLE and REGION
// blocks are dropped, cue settings and inline markup are stripped, and the
// remaining cues are renumbered from 1. Cues left without text are skipped.
func ConvertVTTToSRT(vtt string) string {
	vtt = strings.TrimPrefix(vtt, "\ufeff")
	vtt = strings.ReplaceAll(vtt, "\r\n", "\n")
	vtt = strings.ReplaceAll(vtt, "\r", "\n")

	var out []string
	for _, block := range splitBlocks(vtt) {
		head := strings.TrimSpace(block[0])
		if isMetadataBlock(head) {
			continue
		}
		timing := -1
		for i, line := range block {
			if strings.Contains(line, "-->") {
				timing = i
				break
			}
		}
		if timing < 0 {
			continue
		}
		start, end, ok := vttTiming(block[timing])
		if !ok {
			continue
		}
		var text []string
		for _, line := range block[timing+1:] {
			line = strings.TrimSpace(html.UnescapeString(inlineTag.ReplaceAllString(line, "")))
			if line != "" {
				text = append(text, line)
			}
		}
		if len(text) == 0 {
			continue
		}
		out = append(out, fmt.Sprintf("%d\n%s --> %s\n%s\n", len(out)+1, start, end, strings.Join(text, "\n")))
	}
	if len(out) == 0 {
		return ""
	}
	return strings.Join(out, "\n")
}

func splitBlocks(text string) [][]string {
	var blocks [][]string
	var current []string
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			if len(current) > 0 {
				blocks = append(blocks, current)
				current = nil
			}
			continue
		}
		current = append(current, line)
	}
	if len(current) > 0 {
		blocks = append(blocks, current)
	}
	return blocks
}

func isMetadataBlock(head string) bool {
	if strings.HasPrefix(head, "WEBVTT") {
		return true
	}
	for _, kw := range []string{"NOTE", "STYLE", "REGION"} {
		if head == kw || strings.HasPrefix(head, kw+" ") || strings.HasPrefix(head, kw+"\t") {
			return true
		}
	}
	return false
}

func vttTiming(line string) (string, string, bool) {
	parts := strings.SplitN(line, "-->", 2)
	if len(parts) != 2 {
		return "", "", false
	}
	endFields := strings.Fields(parts[1])
	if len(endFields) == 0 {
		return "", "", false
	}
	start, okStart := srtTimestamp(parts[0])
	end, okEnd := srtTimestamp(endFields[0])
	return start, end, okStart && okEnd
}

// srtTimestamp converts "mm:ss.ttt" or "hh:mm:ss.ttt" to "hh:mm:ss,ttt".
func srtTimestamp(value string) (string, bool) {
	value = strings.ReplaceAll(strings.TrimSpace(value), ".", ",")
	if strings.Count(value, ":") == 1 {
		value = "00:" + value
	}
	if _, err := parseTimestamp(value); err != nil {
		return "", false
	}
	return value, true
}
