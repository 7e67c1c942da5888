package frames

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"

	"dvd/internal/config"
	"dvd/internal/logging"
	"dvd/internal/services"
	"dvd/internal/textutil"
)

const stageName = "frames"

// Capture yields decoded frames in presentation order.
type Capture interface {
	// FPS reports the source frame rate; values <= 0 mean unknown.
	FPS() float64
	// Read returns the next frame, or io.EOF after the last one.
	Read() (image.Image, error)
	Close() error
}

// Opener opens a capture for a video file.
type Opener func(ctx context.Context, path string) (Capture, error)

// Result summarises a decode run.
type Result struct {
	FramesDir   string  `json:"frames_dir"`
	SourceFPS   float64 `json:"source_fps"`
	Interval    int     `json:"interval"`
	FramesRead  int     `json:"frames_read"`
	FramesSaved int     `json:"frames_saved"`
}

// Option configures a Decoder.
type Option func(*Decoder)

// WithOpener replaces the ffmpeg-backed capture.
func WithOpener(open Opener) Option {
	return func(d *Decoder) {
		if open != nil {
			d.open = open
		}
	}
}

// WithLogger sets the logger used for progress output.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Decoder) {
		d.logger = logging.NewComponentLogger(logger, "frames")
	}
}

// Decoder writes sampled frames for a video.
type Decoder struct {
	cfg    *config.Config
	open   Opener
	logger *slog.Logger
}

// NewDecoder constructs a decoder using the configured ffmpeg and ffprobe.
func NewDecoder(cfg *config.Config, opts ...Option) (*Decoder, error) {
	if cfg == nil {
		return nil, errors.New("frames: config required")
	}
	d := &Decoder{
		cfg:    cfg,
		open:   FFmpegOpener(cfg.FFmpegBinary(), cfg.FFprobeBinary()),
		logger: logging.NewComponentLogger(nil, "frames"),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Interval returns how many source frames separate saved frames. Sampling
// never upscales: a target at or above the source rate keeps every frame.
func Interval(sourceFPS, targetFPS float64) int {
	if sourceFPS <= 0 || targetFPS <= 0 || targetFPS >= sourceFPS {
		return 1
	}
	interval := int(math.Round(sourceFPS / targetFPS))
	if interval < 1 {
		return 1
	}
	return interval
}

// FrameName is the file name of the n-th saved frame.
func FrameName(n int) string {
	return fmt.Sprintf("frame_n%06d.jpg", n)
}

// Decode samples videoPath into the frames directory for its stem.
func (d *Decoder) Decode(ctx context.Context, videoPath string) (Result, error) {
	ctx = services.WithStage(ctx, stageName)
	info, err := os.Stat(videoPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Result{}, services.Wrap(services.ErrNotFound, stageName, "open video",
				fmt.Sprintf("video %q not found", videoPath), nil)
		}
		return Result{}, services.Wrap(services.ErrValidation, stageName, "open video", "stat video", err)
	}
	if info.IsDir() {
		return Result{}, services.Wrap(services.ErrValidation, stageName, "open video",
			fmt.Sprintf("%q is a directory", videoPath), nil)
	}

	stem := textutil.SanitizeStem(videoPath)
	ctx = services.WithVideoID(ctx, stem)
	framesDir, err := filepath.Abs(d.cfg.FramesDir(stem))
	if err != nil {
		return Result{}, fmt.Errorf("resolve frames dir: %w", err)
	}

	capture, err := d.open(ctx, videoPath)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Result{}, ctxErr
		}
		return Result{}, services.Wrap(services.ErrExternalTool, stageName, "open video", "could not open video for decoding", err)
	}
	defer capture.Close()

	if err := prepareDir(framesDir); err != nil {
		return Result{}, err
	}

	result := Result{
		FramesDir: framesDir,
		SourceFPS: capture.FPS(),
		Interval:  Interval(capture.FPS(), d.cfg.Video.FPS),
	}
	d.logger.InfoContext(ctx, "decoding frames",
		logging.String("video", videoPath),
		logging.Float64("source_fps", result.SourceFPS),
		logging.Float64("target_fps", d.cfg.Video.FPS),
		logging.Int("interval", result.Interval),
	)
	if result.SourceFPS <= 0 {
		logging.WarnWithContext(ctx, d.logger, "source frame rate unknown, keeping every frame", "fps_unknown",
			logging.String(logging.FieldErrorHint, "check the file with ffprobe"),
			logging.String(logging.FieldImpact, "more frames than configured will be written"),
		)
	}

	opts := &jpeg.Options{Quality: d.cfg.Video.JPEGQuality}
	for {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		frame, err := capture.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return result, services.Wrap(services.ErrExternalTool, stageName, "read frame",
				fmt.Sprintf("decode failed after %d frames", result.FramesRead), err)
		}
		index := result.FramesRead
		result.FramesRead++
		if index%result.Interval != 0 {
			continue
		}
		if err := writeJPEG(filepath.Join(framesDir, FrameName(result.FramesSaved)), frame, opts); err != nil {
			return result, fmt.Errorf("write frame %d: %w", result.FramesSaved, err)
		}
		result.FramesSaved++
	}

	d.logger.InfoContext(ctx, "frames decoded",
		logging.String("frames_dir", framesDir),
		logging.Int("frames_read", result.FramesRead),
		logging.Int("frames_saved", result.FramesSaved),
	)
	return result, nil
}

// prepareDir creates dir and removes frames from an earlier run so the
// sequence on disk always matches the latest decode.
func prepareDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create frames dir: %w", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("list frames dir: %w", err)
	}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, "frame_n") || !strings.HasSuffix(name, ".jpg") {
			continue
		}
		if err := os.Remove(filepath.Join(dir, name)); err != nil {
			return fmt.Errorf("remove stale frame: %w", err)
		}
	}
	return nil
}

func writeJPEG(path string, img image.Image, opts *jpeg.Options) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	if err := jpeg.Encode(w, img, opts); err != nil {
		_ = f.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
