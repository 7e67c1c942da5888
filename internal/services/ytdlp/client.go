package ytdlp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// Executor abstracts command execution for testability.
type Executor interface {
	Run(ctx context.Context, binary string, args []string) (stdout, stderr []byte, err error)
}

// Option configures the client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// Client wraps yt-dlp CLI interactions.
type Client struct {
	binary  string
	timeout time.Duration
	exec    Executor
}

// Identity is the declared client profile sent with a request. PlayerClient
// is a comma separated list of YouTube player clients ("android,web").
type Identity struct {
	PlayerClient string
	UserAgent    string
	Referer      string
	CookiesFile  string
}

// SubtitleOptions requests subtitles alongside a video download.
type SubtitleOptions struct {
	// Languages is passed to --sub-langs; "auto" requests automatic captions
	// in any language.
	Languages string
}

// DownloadRequest describes a video download.
type DownloadRequest struct {
	URL            string
	OutputTemplate string
	Format         string
	MergeFormat    string
	Identity       Identity
	Subtitles      *SubtitleOptions
}

// SubtitleRequest describes a subtitle-only download. Languages follows the
// same rules as SubtitleOptions.Languages; empty leaves yt-dlp's default.
type SubtitleRequest struct {
	URL            string
	OutputTemplate string
	Languages      string
	Identity       Identity
}

// Track is a single subtitle rendition advertised in video metadata.
type Track struct {
	Ext  string `json:"ext"`
	URL  string `json:"url"`
	Name string `json:"name,omitempty"`
}

// Metadata is the subset of yt-dlp's --dump-single-json output dvd uses.
type Metadata struct {
	ID                string             `json:"id"`
	Title             string             `json:"title"`
	Duration          float64            `json:"duration"`
	Subtitles         map[string][]Track `json:"subtitles"`
	AutomaticCaptions map[string][]Track `json:"automatic_captions"`
}

// New constructs a yt-dlp client. timeoutSeconds bounds every invocation;
// zero disables the bound.
func New(binary string, timeoutSeconds int, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("yt-dlp binary required")
	}
	client := &Client{
		binary:  binary,
		timeout: time.Duration(timeoutSeconds) * time.Second,
		exec:    commandExecutor{},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// VideoFormat returns the format selector preferring mp4 video with m4a audio
// no taller than maxHeight.
func VideoFormat(maxHeight int) string {
	return fmt.Sprintf(
		"bestvideo[height<=%[1]d][ext=mp4]+bestaudio[ext=m4a]/best[height<=%[1]d][ext=mp4]/best[height<=%[1]d]",
		maxHeight,
	)
}

// Download fetches a video and returns the final file path reported by yt-dlp.
func (c *Client) Download(ctx context.Context, req DownloadRequest) (string, error) {
	if strings.TrimSpace(req.URL) == "" {
		return "", errors.New("download url required")
	}
	args := []string{
		"--no-playlist",
		"--no-progress",
		"--print", "after_move:filepath",
		"--no-simulate",
		"-o", req.OutputTemplate,
	}
	if req.Format != "" {
		args = append(args, "-f", req.Format)
	}
	if req.MergeFormat != "" {
		args = append(args, "--merge-output-format", req.MergeFormat)
	}
	if req.Subtitles != nil {
		args = append(args, "--write-subs", "--sub-format", "srt", "--convert-subs", "srt", "--force-overwrites")
		if isAutoLanguage(req.Subtitles.Languages) {
			args = append(args, "--write-auto-subs")
		}
		args = append(args, subLangArgs(req.Subtitles.Languages)...)
	}
	args = append(args, identityArgs(req.Identity)...)
	args = append(args, req.URL)

	stdout, err := c.run(ctx, args)
	if err != nil {
		return "", err
	}
	path := lastLine(stdout)
	if path == "" {
		return "", errors.New("yt-dlp did not report an output file")
	}
	return path, nil
}

// DownloadSubtitles fetches manual and automatic subtitles as SRT without
// downloading media.
func (c *Client) DownloadSubtitles(ctx context.Context, req SubtitleRequest) error {
	if strings.TrimSpace(req.URL) == "" {
		return errors.New("subtitle url required")
	}
	args := []string{
		"--no-playlist",
		"--skip-download",
		"--write-subs",
		"--write-auto-subs",
		"--sub-format", "srt/best",
		"--convert-subs", "srt",
		"-o", req.OutputTemplate,
	}
	args = append(args, subLangArgs(req.Languages)...)
	args = append(args, identityArgs(req.Identity)...)
	args = append(args, req.URL)
	_, err := c.run(ctx, args)
	return err
}

func isAutoLanguage(langs string) bool {
	return strings.EqualFold(strings.TrimSpace(langs), "auto")
}

// subLangArgs maps a language list to --sub-langs; "auto" asks for every
// available track.
func subLangArgs(langs string) []string {
	langs = strings.TrimSpace(langs)
	switch {
	case langs == "":
		return nil
	case isAutoLanguage(langs):
		return []string{"--sub-langs", "all"}
	default:
		return []string{"--sub-langs", langs}
	}
}

// Metadata dumps video metadata without resolving playable formats, which
// still works when format selection is what yt-dlp is failing on.
func (c *Client) Metadata(ctx context.Context, url string, identity Identity) (*Metadata, error) {
	args := []string{
		"--no-playlist",
		"--dump-single-json",
		"--skip-download",
		"--ignore-no-formats-error",
	}
	args = append(args, identityArgs(identity)...)
	args = append(args, url)

	stdout, err := c.run(ctx, args)
	if err != nil {
		return nil, err
	}
	var meta Metadata
	if err := json.Unmarshal(stdout, &meta); err != nil {
		return nil, fmt.Errorf("parse yt-dlp metadata: %w", err)
	}
	return &meta, nil
}

func identityArgs(id Identity) []string {
	var args []string
	if id.UserAgent != "" {
		args = append(args, "--user-agent", id.UserAgent)
	}
	if id.Referer != "" {
		args = append(args, "--referer", id.Referer)
	}
	if id.PlayerClient != "" {
		args = append(args, "--extractor-args",
			"youtube:player_client="+id.PlayerClient+";player_skip=webpage,configs")
	}
	if id.CookiesFile != "" {
		args = append(args, "--cookies", id.CookiesFile)
	}
	return args
}

func (c *Client) run(ctx context.Context, args []string) ([]byte, error) {
	runCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	stdout, stderr, err := c.exec.Run(runCtx, c.binary, args)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return nil, &CommandError{Kind: KindTimeout, Stderr: string(stderr), Err: err}
		}
		return nil, &CommandError{Kind: classifyStderr(string(stderr)), Stderr: string(stderr), Err: err}
	}
	return stdout, nil
}

func lastLine(out []byte) string {
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return ""
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}
