package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"dvd/internal/config"
	"dvd/internal/deps"
	"dvd/internal/media/ffprobe"
	"dvd/internal/subtitles"
)

// subtitleReport summarises a stored SRT file for command output.
type subtitleReport struct {
	Path   string   `json:"path"`
	Cues   int      `json:"cues"`
	Issues []string `json:"issues,omitempty"`
}

// inspectSubtitle counts cues and validates timing. When videoPath is set and
// ffprobe can read it, cue times are checked against the video duration.
func inspectSubtitle(ctx context.Context, cfg *config.Config, srtPath, videoPath string) subtitleReport {
	report := subtitleReport{Path: srtPath}
	if count, err := subtitles.CountCues(srtPath); err == nil {
		report.Cues = count
	}
	var seconds float64
	if strings.TrimSpace(videoPath) != "" {
		probe := deps.ResolveFFprobe(cfg.FFprobeBinary(), cfg.FFmpegBinary())
		if result, err := ffprobe.Inspect(ctx, probe, videoPath); err == nil {
			seconds = result.DurationSeconds()
		}
	}
	report.Issues = subtitles.ValidateSRT(srtPath, seconds)
	return report
}

func printSubtitleReport(out io.Writer, report subtitleReport) {
	fmt.Fprintf(out, "Subtitle: %s (%d cues)\n", report.Path, report.Cues)
	for _, issue := range report.Issues {
		fmt.Fprintf(out, "  warning: %s\n", issue)
	}
}
