package youtube

import (
	"bufio"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

const httpOnlyPrefix = "#HttpOnly_"

// ParseCookieFile reads a Netscape/Mozilla cookies.txt export, the format
// browsers' "export cookies" extensions and yt-dlp --cookies share.
func ParseCookieFile(path string) ([]*http.Cookie, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var cookies []*http.Cookie
	scanner := bufio.NewScanner(file)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		httpOnly := false
		if strings.HasPrefix(line, httpOnlyPrefix) {
			line = strings.TrimPrefix(line, httpOnlyPrefix)
			httpOnly = true
		}
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 7 {
			return nil, fmt.Errorf("cookie file %s line %d: expected 7 tab-separated fields, got %d", path, lineNo, len(fields))
		}
		cookie := &http.Cookie{
			Domain:   fields[0],
			Path:     fields[2],
			Secure:   strings.EqualFold(fields[3], "TRUE"),
			Name:     fields[5],
			Value:    fields[6],
			HttpOnly: httpOnly,
		}
		if expires, err := strconv.ParseInt(fields[4], 10, 64); err == nil && expires > 0 {
			cookie.Expires = time.Unix(expires, 0)
		}
		cookies = append(cookies, cookie)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read cookie file %s: %w", path, err)
	}
	return cookies, nil
}

// NewCookieJar builds a cookie jar seeded from a Netscape cookie file. An
// empty path yields an empty jar.
func NewCookieJar(path string) (http.CookieJar, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}
	if strings.TrimSpace(path) == "" {
		return jar, nil
	}
	cookies, err := ParseCookieFile(path)
	if err != nil {
		return nil, err
	}

	byOrigin := map[string][]*http.Cookie{}
	for _, cookie := range cookies {
		host := strings.TrimPrefix(cookie.Domain, ".")
		if host == "" {
			continue
		}
		scheme := "http"
		if cookie.Secure {
			scheme = "https"
		}
		origin := scheme + "://" + host
		byOrigin[origin] = append(byOrigin[origin], cookie)
	}
	for origin, list := range byOrigin {
		u, err := url.Parse(origin + "/")
		if err != nil {
			continue
		}
		jar.SetCookies(u, list)
	}
	return jar, nil
}
