package youtube

import (
	"net/url"
	"path"
	"regexp"
	"strings"
)

var videoIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

var youtubeDomains = []string{"youtube.com", "youtu.be"}

// IsURL reports whether source looks like an HTTP(S) URL.
func IsURL(source string) bool {
	lower := strings.ToLower(strings.TrimSpace(source))
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// IsYouTubeURL reports whether raw parses as a URL whose host is youtube.com,
// youtu.be, or a subdomain of either.
func IsYouTubeURL(raw string) bool {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	return isYouTubeHost(parsed.Hostname())
}

func isYouTubeHost(host string) bool {
	host = strings.TrimSuffix(strings.ToLower(host), ".")
	for _, domain := range youtubeDomains {
		if host == domain || strings.HasSuffix(host, "."+domain) {
			return true
		}
	}
	return false
}

// VideoID extracts the video identifier from the common YouTube URL shapes:
// watch?v=, youtu.be/<id>, /shorts/<id>, /embed/<id> and /live/<id>.
// It returns false when no identifier can be found.
func VideoID(raw string) (string, bool) {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", false
	}
	host := strings.ToLower(parsed.Hostname())

	if v := parsed.Query().Get("v"); v != "" {
		return checkID(v)
	}

	segments := strings.Split(strings.Trim(path.Clean(parsed.Path), "/"), "/")
	if host == "youtu.be" || strings.HasSuffix(host, ".youtu.be") {
		return checkID(segments[0])
	}
	if len(segments) >= 2 {
		switch segments[0] {
		case "shorts", "embed", "live", "v":
			return checkID(segments[1])
		}
	}
	return "", false
}

func checkID(candidate string) (string, bool) {
	candidate = strings.TrimSpace(candidate)
	if !videoIDPattern.MatchString(candidate) {
		return "", false
	}
	return candidate, true
}
