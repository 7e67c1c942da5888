package ytdlp

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a failed yt-dlp invocation from its stderr.
type Kind int

const (
	KindOther Kind = iota
	KindBotDetected
	KindFormatUnavailable
	KindRateLimited
	KindTimeout
)

func (k Kind) String() string {
	switch k {
	case KindBotDetected:
		return "bot_detected"
	case KindFormatUnavailable:
		return "format_unavailable"
	case KindRateLimited:
		return "rate_limited"
	case KindTimeout:
		return "timeout"
	default:
		return "other"
	}
}

// CommandError is returned when yt-dlp exits unsuccessfully.
type CommandError struct {
	Kind   Kind
	Stderr string
	Err    error
}

func (e *CommandError) Error() string {
	detail := summarizeStderr(e.Stderr)
	if detail == "" {
		return fmt.Sprintf("yt-dlp %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("yt-dlp %s: %v: %s", e.Kind, e.Err, detail)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// KindOf returns the classification of err, or KindOther when err did not
// come from yt-dlp.
func KindOf(err error) Kind {
	var cmdErr *CommandError
	if errors.As(err, &cmdErr) {
		return cmdErr.Kind
	}
	return KindOther
}

// IsTransient reports whether err is bot detection or rate limiting, both of
// which tend to clear with time or a different player client.
func IsTransient(err error) bool {
	switch KindOf(err) {
	case KindBotDetected, KindRateLimited:
		return true
	default:
		return false
	}
}

func classifyStderr(stderr string) Kind {
	msg := strings.ToLower(stderr)
	switch {
	case strings.Contains(msg, "requested format is not available"),
		strings.Contains(msg, "format is not available"):
		return KindFormatUnavailable
	case strings.Contains(msg, "not a bot"),
		strings.Contains(msg, "bot detection"),
		strings.Contains(msg, "sign in"),
		strings.Contains(msg, "confirm you"):
		return KindBotDetected
	case strings.Contains(msg, "http error 429"),
		strings.Contains(msg, "too many requests"):
		return KindRateLimited
	default:
		return KindOther
	}
}

// summarizeStderr keeps the ERROR lines, which carry the useful part of a
// yt-dlp failure, and falls back to the last non-empty line.
func summarizeStderr(stderr string) string {
	var errorsOnly []string
	var last string
	for _, line := range strings.Split(stderr, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		last = line
		if strings.HasPrefix(line, "ERROR:") {
			errorsOnly = append(errorsOnly, line)
		}
	}
	if len(errorsOnly) > 0 {
		return strings.Join(errorsOnly, "; ")
	}
	return last
}
