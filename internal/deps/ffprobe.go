package deps

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// ResolveFFprobe returns the ffprobe command to run. A configured value that
// resolves on PATH wins; otherwise an ffprobe sitting next to the resolved
// ffmpeg binary is used, since static ffmpeg builds ship the pair together.
// The configured value is returned unchanged when neither is found.
func ResolveFFprobe(ffprobeCommand, ffmpegCommand string) string {
	ffprobeCommand = strings.TrimSpace(ffprobeCommand)
	if ffprobeCommand != "" {
		if _, err := lookPath(ffprobeCommand); err == nil {
			return ffprobeCommand
		}
	}
	if resolved, err := lookPath(strings.TrimSpace(ffmpegCommand)); err == nil {
		candidate := filepath.Join(filepath.Dir(resolved), executableName("ffprobe"))
		if info, statErr := os.Stat(candidate); statErr == nil && isExecutable(info) {
			return candidate
		}
	}
	return ffprobeCommand
}

func executableName(base string) string {
	if runtime.GOOS == "windows" {
		return base + ".exe"
	}
	return base
}

func isExecutable(info os.FileInfo) bool {
	if info == nil || info.IsDir() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode().Perm()&0o111 != 0
}
