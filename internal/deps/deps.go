package deps

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"dvd/internal/config"
)

// Requirement defines an external binary dvd shells out to.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	// VersionArg is passed to the binary to report its version. Empty skips
	// version probing.
	VersionArg string
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Version     string
	Detail      string
}

// Requirements lists the binaries the configured pipeline needs.
func Requirements(cfg *config.Config) []Requirement {
	return []Requirement{
		{Name: "yt-dlp", Command: cfg.YtDlpBinary(), Description: "Downloads videos and subtitles", VersionArg: "--version"},
		{Name: "FFmpeg", Command: cfg.FFmpegBinary(), Description: "Decodes frames", VersionArg: "-version"},
		{Name: "FFprobe", Command: cfg.FFprobeBinary(), Description: "Reads frame rate and dimensions", VersionArg: "-version"},
	}
}

// versionTimeout bounds each version query.
const versionTimeout = 5 * time.Second

// lookPath and runVersion are replaced in tests.
var (
	lookPath   = exec.LookPath
	runVersion = func(ctx context.Context, binary, arg string) ([]byte, error) {
		return exec.CommandContext(ctx, binary, arg).Output()
	}
)

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(ctx context.Context, requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		resolved, err := lookPath(cmd)
		if err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		if req.VersionArg != "" {
			status.Version = readVersion(ctx, resolved, req.VersionArg)
		}
		results = append(results, status)
	}
	return results
}

// readVersion returns the first line of the binary's version output, with
// ffmpeg's "ffmpeg version X Copyright ..." shortened to X.
func readVersion(ctx context.Context, binary, arg string) string {
	ctx, cancel := context.WithTimeout(ctx, versionTimeout)
	defer cancel()
	out, err := runVersion(ctx, binary, arg)
	if err != nil {
		return ""
	}
	line, _, _ := strings.Cut(strings.TrimSpace(string(out)), "\n")
	fields := strings.Fields(line)
	if len(fields) >= 3 && fields[1] == "version" {
		return fields[2]
	}
	return strings.TrimSpace(line)
}
