package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"dvd/internal/frames"
)

func newFramesCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "frames <video-path>",
		Short: "Sample a video into JPEG frames at video.fps",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("provide the path to a video file. Example: dvd frames ~/.local/share/dvd/video_database/raw/<id>.mp4\nRun dvd frames --help for more details")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			decoder, err := ctx.newDecoder()
			if err != nil {
				return err
			}
			runCtx := runContext(cmd)
			result, err := decoder.Decode(runCtx, strings.TrimSpace(args[0]))
			if err != nil {
				return ctx.reportFailure(runCtx, "frames", err)
			}
			if jsonOutput {
				return writeJSON(cmd, result)
			}
			printFramesResult(cmd.OutOrStdout(), result)
			return nil
		},
	}

	addJSONFlag(cmd, &jsonOutput)
	return cmd
}

func printFramesResult(out io.Writer, result frames.Result) {
	fps := "unknown"
	if result.SourceFPS > 0 {
		fps = humanize.FtoaWithDigits(result.SourceFPS, 3)
	}
	fmt.Fprintf(out, "Frames: %s frames saved to %s (read %s, source %s fps, every %d)\n",
		humanize.Comma(int64(result.FramesSaved)),
		result.FramesDir,
		humanize.Comma(int64(result.FramesRead)),
		fps,
		result.Interval,
	)
}
