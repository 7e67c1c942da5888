package subtitles

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// durationTolerance is how far past the end of the video the last cue may run
// before it is reported.
const durationTolerance = 8 * time.Second

// Cue is one SRT entry.
type Cue struct {
	Index int
	Start time.Duration
	End   time.Duration
	Text  string
}

// ParseSRT reads the cues out of SRT text. Blocks without a parseable timing
// line are skipped.
func ParseSRT(content string) []Cue {
	content = strings.TrimPrefix(content, "\ufeff")
	content = strings.ReplaceAll(content, "\r\n", "\n")

	var cues []Cue
	for _, block := range splitBlocks(content) {
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
		parts := strings.SplitN(block[timing], "-->", 2)
		start, errStart := parseTimestamp(parts[0])
		endFields := strings.Fields(parts[1])
		if errStart != nil || len(endFields) == 0 {
			continue
		}
		end, errEnd := parseTimestamp(endFields[0])
		if errEnd != nil {
			continue
		}
		cue := Cue{Start: start, End: end, Text: strings.Join(block[timing+1:], "\n")}
		if timing > 0 {
			cue.Index, _ = strconv.Atoi(strings.TrimSpace(block[timing-1]))
		}
		cues = append(cues, cue)
	}
	return cues
}

// CountCues returns the number of cues in the SRT file at path.
func CountCues(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read srt: %w", err)
	}
	return len(ParseSRT(string(data))), nil
}

// ValidateSRT checks an SRT file for format issues. videoSeconds enables the
// duration check when positive. An empty result means validation passed.
func ValidateSRT(path string, videoSeconds float64) []string {
	data, err := os.ReadFile(path)
	if err != nil {
		return []string{fmt.Sprintf("read_error: %v", err)}
	}
	if strings.TrimSpace(string(data)) == "" {
		return []string{"empty_subtitle_file"}
	}
	cues := ParseSRT(string(data))
	if len(cues) == 0 {
		return []string{"no_valid_timestamps"}
	}

	var issues []string
	var last time.Duration
	inverted := 0
	for _, cue := range cues {
		if cue.End < cue.Start {
			inverted++
		}
		if cue.End > last {
			last = cue.End
		}
	}
	if inverted > 0 {
		issues = append(issues, fmt.Sprintf("inverted_cues: count=%d", inverted))
	}
	if videoSeconds > 0 {
		video := time.Duration(videoSeconds * float64(time.Second))
		if over := last - video; over > durationTolerance {
			issues = append(issues, fmt.Sprintf("duration_mismatch: overrun=%.1fs", over.Seconds()))
		}
	}
	return issues
}

// parseTimestamp accepts "hh:mm:ss,ttt" and the "." separated variant.
func parseTimestamp(value string) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, errors.New("empty timestamp")
	}
	value = strings.ReplaceAll(value, ".", ",")
	clock, fraction, ok := strings.Cut(value, ",")
	if !ok {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hms := strings.Split(clock, ":")
	if len(hms) != 3 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hours, errH := strconv.Atoi(hms[0])
	minutes, errM := strconv.Atoi(hms[1])
	seconds, errS := strconv.Atoi(hms[2])
	millis, errMS := strconv.Atoi(fraction)
	if errH != nil || errM != nil || errS != nil || errMS != nil || minutes > 59 || seconds > 59 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	return time.Duration(hours)*time.Hour +
		time.Duration(minutes)*time.Minute +
		time.Duration(seconds)*time.Second +
		time.Duration(millis)*time.Millisecond, nil
}

func formatTimestamp(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	ms := d.Milliseconds()
	return fmt.Sprintf("%02d:%02d:%02d,%03d", ms/3_600_000, (ms/60_000)%60, (ms/1000)%60, ms%1000)
}
