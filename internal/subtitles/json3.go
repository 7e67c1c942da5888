package subtitles

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

type json3Document struct {
	Events []json3Event `json:"events"`
}

type json3Event struct {
	StartMs    int64          `json:"tStartMs"`
	DurationMs int64          `json:"dDurationMs"`
	Segs       []json3Segment `json:"segs"`
}

type json3Segment struct {
	UTF8 string `json:"utf8"`
}

// ConvertJSON3ToSRT renders YouTube's json3 timed-text format as SRT. Events
// without text (window and style events) are skipped.
func ConvertJSON3ToSRT(data []byte) (string, error) {
	var doc json3Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return "", fmt.Errorf("parse json3 captions: %w", err)
	}
	var out []string
	for _, event := range doc.Events {
		var text strings.Builder
		for _, seg := range event.Segs {
			text.WriteString(seg.UTF8)
		}
		body := strings.TrimSpace(text.String())
		if body == "" {
			continue
		}
		start := time.Duration(event.StartMs) * time.Millisecond
		end := start + time.Duration(event.DurationMs)*time.Millisecond
		out = append(out, fmt.Sprintf("%d\n%s --> %s\n%s\n", len(out)+1, formatTimestamp(start), formatTimestamp(end), body))
	}
	if len(out) == 0 {
		return "", nil
	}
	return strings.Join(out, "\n"), nil
}
