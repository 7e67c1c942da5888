package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"dvd/internal/services"
	"dvd/internal/youtube"
)

func newSubtitleCommand(ctx *commandContext) *cobra.Command {
	var outputPath string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "subtitle <youtube-url>",
		Short: "Fetch an SRT subtitle for a YouTube video",
		Long: "Fetch an SRT subtitle for a YouTube video.\n\n" +
			"yt-dlp is retried across player-client identities with linear backoff.\n" +
			"When YouTube refuses to list formats the caption track is downloaded\n" +
			"directly and converted to SRT. Configure youtube.cookies_file (or\n" +
			"YOUTUBE_COOKIES) when YouTube asks to confirm you are not a bot.",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("provide a YouTube URL. Example: dvd subtitle https://www.youtube.com/watch?v=<id>\nRun dvd subtitle --help for more details")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			url := strings.TrimSpace(args[0])
			target := strings.TrimSpace(outputPath)
			if target == "" {
				id, ok := youtube.VideoID(url)
				if !ok {
					return services.Wrap(services.ErrValidation, "subtitle", "resolve output",
						"cannot derive a video id from the URL; pass --output", nil)
				}
				target = filepath.Join(cfg.RawDir(), id+".srt")
			}
			if abs, err := filepath.Abs(target); err == nil {
				target = abs
			}

			fetcher, err := ctx.newFetcher()
			if err != nil {
				return err
			}
			runCtx := runContext(cmd)
			if err := fetcher.Fetch(runCtx, url, target); err != nil {
				return ctx.reportFailure(runCtx, "subtitle", err)
			}

			report := inspectSubtitle(runCtx, cfg, target, "")
			if jsonOutput {
				return writeJSON(cmd, report)
			}
			printSubtitleReport(cmd.OutOrStdout(), report)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Destination .srt path (default <database_root>/raw/<id>.srt)")
	addJSONFlag(cmd, &jsonOutput)
	return cmd
}
