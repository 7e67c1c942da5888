package preflight

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/sys/unix"

	"dvd/internal/config"
	"dvd/internal/deps"
	"dvd/internal/youtube"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckFreeSpace reports the space available to unprivileged users on the
// filesystem holding path and fails below minBytes.
func CheckFreeSpace(name, path string, minBytes uint64) Result {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: statfs: %v)", path, err)}
	}
	free := stat.Bavail * uint64(stat.Bsize)
	detail := fmt.Sprintf("%s free", humanize.IBytes(free))
	if free < minBytes {
		return Result{Name: name, Detail: fmt.Sprintf("%s (need at least %s)", detail, humanize.IBytes(minBytes))}
	}
	return Result{Name: name, Passed: true, Detail: detail}
}

// CheckCookies reports whether the configured cookie file is usable. A
// missing configuration is not a failure; downloads then run anonymously.
func CheckCookies(path string) Result {
	const name = "YouTube cookies"
	path = strings.TrimSpace(path)
	if path == "" {
		return Result{Name: name, Passed: true, Optional: true, Detail: fmt.Sprintf("not configured (set youtube.cookies_file or %s)", config.CookiesEnv)}
	}
	cookies, err := youtube.ParseCookieFile(path)
	if err != nil {
		return Result{Name: name, Optional: true, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	if len(cookies) == 0 {
		return Result{Name: name, Optional: true, Detail: fmt.Sprintf("%s (no cookies found)", path)}
	}
	return Result{Name: name, Passed: true, Optional: true, Detail: fmt.Sprintf("%s (%d cookies)", path, len(cookies))}
}

// CheckYouTube verifies that YouTube answers a plain request using the
// configured identity. A single attempt is made.
func CheckYouTube(ctx context.Context, baseURL string, cfg config.YouTube) Result {
	const name = "YouTube"

	base := strings.TrimSpace(baseURL)
	if base == "" {
		base = cfg.Referer
	}
	if base == "" {
		return Result{Name: name, Optional: true, Detail: "missing url"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	client := &http.Client{Timeout: 5 * time.Second}
	req, err := http.NewRequestWithContext(checkCtx, http.MethodHead, base, nil)
	if err != nil {
		return Result{Name: name, Optional: true, Detail: fmt.Sprintf("request failed (%v)", err)}
	}
	if cfg.UserAgent != "" {
		req.Header.Set("User-Agent", cfg.UserAgent)
	}

	resp, err := client.Do(req)
	if err != nil {
		return Result{Name: name, Optional: true, Detail: fmt.Sprintf("unreachable (%v)", err)}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return Result{Name: name, Optional: true, Detail: "rate limited (429)"}
	case resp.StatusCode >= 200 && resp.StatusCode < 400:
		return Result{Name: name, Passed: true, Optional: true, Detail: "Reachable"}
	default:
		return Result{Name: name, Optional: true, Detail: fmt.Sprintf("unexpected status (%d)", resp.StatusCode)}
	}
}

// CheckSystemDeps evaluates the external binaries for the given config. The
// status command and "dvd load --frames" share this list.
func CheckSystemDeps(ctx context.Context, cfg *config.Config) []deps.Status {
	requirements := deps.Requirements(cfg)
	for i := range requirements {
		if requirements[i].Name == "FFprobe" {
			requirements[i].Command = deps.ResolveFFprobe(cfg.FFprobeBinary(), cfg.FFmpegBinary())
		}
	}
	return deps.CheckBinaries(ctx, requirements)
}
