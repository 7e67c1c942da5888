package frames

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os/exec"
	"strings"

	"dvd/internal/media/ffprobe"
)

// FFmpegOpener returns an Opener that inspects the first video stream with
// ffprobe and streams rgb24 frames from ffmpeg.
func FFmpegOpener(ffmpegBinary, ffprobeBinary string) Opener {
	return func(ctx context.Context, path string) (Capture, error) {
		info, err := ffprobe.Inspect(ctx, ffprobeBinary, path)
		if err != nil {
			return nil, err
		}
		stream, ok := info.VideoStream()
		if !ok {
			return nil, fmt.Errorf("%s has no video stream", path)
		}
		if stream.Width <= 0 || stream.Height <= 0 {
			return nil, fmt.Errorf("%s reports invalid dimensions %dx%d", path, stream.Width, stream.Height)
		}
		width, height := stream.DisplaySize()
		return startFFmpeg(ctx, ffmpegBinary, path, width, height, stream.FrameRate())
	}
}

type ffmpegCapture struct {
	cmd    *exec.Cmd
	stdout io.ReadCloser
	reader *bufio.Reader
	stderr *bytes.Buffer
	width  int
	height int
	fps    float64
	buf    []byte
	closed bool
}

func startFFmpeg(ctx context.Context, binary, path string, width, height int, fps float64) (*ffmpegCapture, error) {
	if strings.TrimSpace(binary) == "" {
		binary = "ffmpeg"
	}
	cmd := exec.CommandContext(ctx, binary, ffmpegArgs(path, width, height)...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg stdout: %w", err)
	}
	stderr := &bytes.Buffer{}
	cmd.Stderr = stderr
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start ffmpeg: %w", err)
	}
	frameSize := width * height * 3
	return &ffmpegCapture{
		cmd:    cmd,
		stdout: stdout,
		reader: bufio.NewReaderSize(stdout, frameSize),
		stderr: stderr,
		width:  width,
		height: height,
		fps:    fps,
		buf:    make([]byte, frameSize),
	}, nil
}

// ffmpegArgs decodes the first video stream to packed rgb24. ffmpeg applies
// rotation metadata first; the scale filter then pins every frame to
// width x height so rows always line up with the read buffer.
func ffmpegArgs(path string, width, height int) []string {
	return []string{
		"-hide_banner", "-loglevel", "error", "-nostdin",
		"-i", path,
		"-map", "0:v:0",
		"-vf", fmt.Sprintf("scale=%d:%d", width, height),
		"-f", "rawvideo", "-pix_fmt", "rgb24",
		"-",
	}
}

func (c *ffmpegCapture) FPS() float64 { return c.fps }

func (c *ffmpegCapture) Read() (image.Image, error) {
	if _, err := io.ReadFull(c.reader, c.buf); err != nil {
		// A short trailing read means the stream ended mid-frame.
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			if waitErr := c.wait(); waitErr != nil {
				return nil, waitErr
			}
			return nil, io.EOF
		}
		return nil, err
	}
	return rgbToImage(c.buf, c.width, c.height), nil
}

func (c *ffmpegCapture) Close() error {
	if c.closed {
		return nil
	}
	_ = c.stdout.Close()
	if c.cmd.ProcessState == nil && c.cmd.Process != nil {
		_ = c.cmd.Process.Kill()
	}
	c.closed = true
	if c.cmd.ProcessState == nil {
		_ = c.cmd.Wait()
	}
	return nil
}

func (c *ffmpegCapture) wait() error {
	if c.cmd.ProcessState != nil {
		return nil
	}
	if err := c.cmd.Wait(); err != nil {
		detail := strings.TrimSpace(c.stderr.String())
		if detail != "" {
			return fmt.Errorf("ffmpeg: %w: %s", err, detail)
		}
		return fmt.Errorf("ffmpeg: %w", err)
	}
	return nil
}

// rgbToImage copies packed rgb24 pixels into an RGBA image.
func rgbToImage(data []byte, width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	pix := img.Pix
	for i, j := 0, 0; i+2 < len(data) && j+3 < len(pix); i, j = i+3, j+4 {
		pix[j] = data[i]
		pix[j+1] = data[i+1]
		pix[j+2] = data[i+2]
		pix[j+3] = 0xff
	}
	return img
}
