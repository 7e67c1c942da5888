package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"dvd/internal/frames"
	"dvd/internal/loader"
	"dvd/internal/preflight"
	"dvd/internal/services"
)

type loadOutput struct {
	Video    loader.Result   `json:"video"`
	Bytes    int64           `json:"bytes"`
	Subtitle *subtitleReport `json:"subtitle,omitempty"`
	Frames   *frames.Result  `json:"frames,omitempty"`
}

func newLoadCommand(ctx *commandContext) *cobra.Command {
	var withSubtitles bool
	var subtitleSource string
	var withFrames bool
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "load <youtube-url|video-file>",
		Short: "Store a video in the database (optionally with subtitle and frames)",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("provide a YouTube URL or a local video path. Example: dvd load https://youtu.be/<id> --subtitles\nRun dvd load --help for more details")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			if check := preflight.CheckDirectoryAccess("Database root", cfg.Paths.DatabaseRoot); !check.Passed {
				return services.Wrap(services.ErrConfiguration, "load", "preflight", check.Detail, nil)
			}

			l, err := ctx.newLoader()
			if err != nil {
				return err
			}
			runCtx := runContext(cmd)
			result, err := l.Load(runCtx, loader.Request{
				Source:         strings.TrimSpace(args[0]),
				WithSubtitle:   withSubtitles || strings.TrimSpace(subtitleSource) != "",
				SubtitleSource: subtitleSource,
			})
			if err != nil {
				return ctx.reportFailure(runCtx, "load", err)
			}

			output := loadOutput{Video: result}
			if info, err := os.Stat(result.VideoPath); err == nil {
				output.Bytes = info.Size()
			}
			if result.SubtitlePath != "" {
				report := inspectSubtitle(runCtx, cfg, result.SubtitlePath, result.VideoPath)
				output.Subtitle = &report
			}
			if withFrames {
				decoder, err := ctx.newDecoder()
				if err != nil {
					return err
				}
				framesResult, err := decoder.Decode(runCtx, result.VideoPath)
				if err != nil {
					return ctx.reportFailure(runCtx, "frames", err)
				}
				output.Frames = &framesResult
			}

			if jsonOutput {
				return writeJSON(cmd, output)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Stored %s video %s (%s)\n", result.Source, result.VideoPath, humanize.Bytes(uint64(output.Bytes)))
			if output.Subtitle != nil {
				printSubtitleReport(out, *output.Subtitle)
			} else if withSubtitles {
				fmt.Fprintln(out, "Subtitle: none found (try dvd subtitle <url>)")
			}
			if output.Frames != nil {
				printFramesResult(out, *output.Frames)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&withSubtitles, "subtitles", "s", false, "Also store an SRT subtitle next to the video")
	cmd.Flags().StringVar(&subtitleSource, "subtitle-source", "", "Local .srt path, or subtitle language for YouTube (e.g. en, auto)")
	cmd.Flags().BoolVar(&withFrames, "frames", false, "Decode frames after the video is stored")
	addJSONFlag(cmd, &jsonOutput)
	return cmd
}
