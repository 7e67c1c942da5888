package loader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"dvd/internal/config"
	"dvd/internal/fileutil"
	"dvd/internal/language"
	"dvd/internal/logging"
	"dvd/internal/retry"
	"dvd/internal/services"
	"dvd/internal/services/ytdlp"
	"dvd/internal/subtitles"
	"dvd/internal/textutil"
	"dvd/internal/youtube"
)

const stageName = "load"

// primaryPlayerClient is tried first for video downloads; the configured
// client list follows on retries.
const primaryPlayerClient = "android,web"

// SourceKind identifies where a loaded video came from.
type SourceKind string

const (
	SourceYouTube SourceKind = "youtube"
	SourceLocal   SourceKind = "local"
)

// Downloader is the yt-dlp surface the loader needs.
type Downloader interface {
	Download(ctx context.Context, req ytdlp.DownloadRequest) (string, error)
}

// Request describes a single load.
type Request struct {
	// Source is a YouTube URL or a local file path.
	Source string
	// WithSubtitle also stores an SRT sidecar next to the video.
	WithSubtitle bool
	// SubtitleSource is the .srt path for local sources, or a language code
	// ("en", "auto") for YouTube sources.
	SubtitleSource string
}

// Result reports what was stored.
type Result struct {
	VideoPath    string     `json:"video_path"`
	SubtitlePath string     `json:"subtitle_path,omitempty"`
	VideoID      string     `json:"video_id"`
	Source       SourceKind `json:"source"`
}

// Option configures the loader.
type Option func(*Loader)

// WithSleep replaces the backoff sleep (primarily for tests).
func WithSleep(sleep retry.SleepFunc) Option {
	return func(l *Loader) {
		l.sleep = sleep
	}
}

// WithLogger sets the logger used for download diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) {
		l.logger = logging.NewComponentLogger(logger, "loader")
	}
}

// Loader stores videos under <database_root>/raw.
type Loader struct {
	cfg        *config.Config
	downloader Downloader
	sleep      retry.SleepFunc
	logger     *slog.Logger
}

// New constructs a loader. downloader may be nil when only local sources are
// loaded.
func New(cfg *config.Config, downloader Downloader, opts ...Option) (*Loader, error) {
	if cfg == nil {
		return nil, errors.New("loader: config required")
	}
	l := &Loader{
		cfg:        cfg,
		downloader: downloader,
		logger:     logging.NewComponentLogger(nil, "loader"),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Load stores req.Source and returns where it ended up.
func (l *Loader) Load(ctx context.Context, req Request) (Result, error) {
	ctx = services.WithStage(ctx, stageName)
	source := strings.TrimSpace(req.Source)
	if source == "" {
		return Result{}, services.Wrap(services.ErrValidation, stageName, "validate source", "source required", nil)
	}

	if youtube.IsURL(source) {
		if !youtube.IsYouTubeURL(source) {
			return Result{}, services.Wrap(services.ErrValidation, stageName, "validate source",
				fmt.Sprintf("%q is not a YouTube URL", source), nil)
		}
		return l.loadYouTube(ctx, source, req)
	}

	info, err := os.Stat(source)
	if err != nil {
		return Result{}, services.Wrap(services.ErrValidation, stageName, "validate source",
			fmt.Sprintf("%q is neither a URL nor an existing file", source), nil)
	}
	if info.IsDir() {
		return Result{}, services.Wrap(services.ErrValidation, stageName, "validate source",
			fmt.Sprintf("%q is a directory, not a file", source), nil)
	}
	return l.loadLocal(ctx, source, req)
}

func (l *Loader) loadYouTube(ctx context.Context, source string, req Request) (Result, error) {
	started := time.Now()
	if l.downloader == nil {
		return Result{}, services.Wrap(services.ErrConfiguration, stageName, "download", "no downloader configured", nil)
	}
	if id, ok := youtube.VideoID(source); ok {
		ctx = services.WithVideoID(ctx, id)
	}
	rawDir := l.cfg.RawDir()
	if err := os.MkdirAll(rawDir, 0o755); err != nil {
		return Result{}, fmt.Errorf("create raw directory: %w", err)
	}

	download := ytdlp.DownloadRequest{
		URL:            source,
		OutputTemplate: filepath.Join(rawDir, "%(id)s.%(ext)s"),
		Format:         ytdlp.VideoFormat(l.cfg.Video.Resolution),
		MergeFormat:    l.cfg.Video.Container,
	}
	if req.WithSubtitle {
		lang := language.Normalize(req.SubtitleSource)
		if lang == "" {
			lang = l.cfg.YouTube.SubtitleLanguage
		}
		download.Subtitles = &ytdlp.SubtitleOptions{Languages: lang}
	}

	clients := downloadClients(l.cfg.YouTube.PlayerClients)
	cookies := l.cookiesFile()
	policy := retry.Config{
		Attempts: l.cfg.YouTube.MaxRetries,
		Step:     l.cfg.BackoffStep(),
		Sleep:    l.sleep,
	}

	var videoPath string
	err := retry.Do(ctx, policy, ytdlp.IsTransient, func(ctx context.Context, attempt int) error {
		attemptReq := download
		attemptReq.Identity = ytdlp.Identity{
			PlayerClient: clients[attempt%len(clients)],
			UserAgent:    l.cfg.YouTube.UserAgent,
			Referer:      l.cfg.YouTube.Referer,
			CookiesFile:  cookies,
		}
		l.logger.InfoContext(ctx, "downloading video",
			logging.Int("attempt", attempt+1),
			logging.String("player_client", attemptReq.Identity.PlayerClient),
			logging.Int("max_height", l.cfg.Video.Resolution),
		)
		path, err := l.downloader.Download(ctx, attemptReq)
		if err != nil {
			if ytdlp.IsTransient(err) {
				logging.WarnWithContext(ctx, l.logger, "youtube rejected download", "ytdlp_"+ytdlp.KindOf(err).String(),
					logging.String("player_client", attemptReq.Identity.PlayerClient),
					logging.String(logging.FieldErrorHint, "configure youtube.cookies_file if this persists"),
					logging.String(logging.FieldImpact, "retrying with backoff"),
				)
			}
			return err
		}
		videoPath = path
		return nil
	})
	if err != nil {
		return Result{}, wrapDownloadError(err)
	}

	if abs, err := filepath.Abs(videoPath); err == nil {
		videoPath = abs
	}
	videoID, ok := youtube.VideoID(source)
	if !ok {
		videoID = strings.TrimSuffix(filepath.Base(videoPath), filepath.Ext(videoPath))
	}
	result := Result{VideoPath: videoPath, VideoID: videoID, Source: SourceYouTube}

	if req.WithSubtitle {
		subtitlePath, err := l.adoptSubtitle(ctx, rawDir, videoID, videoPath, language.Primary(download.Subtitles.Languages))
		if err != nil {
			return Result{}, fmt.Errorf("rename downloaded subtitle: %w", err)
		}
		if subtitlePath == "" {
			logging.WarnWithContext(ctx, l.logger, "no subtitle downloaded with video", "subtitle_missing",
				logging.String("video_id", videoID),
				logging.String(logging.FieldErrorHint, "run dvd subtitle for the fallback strategies"),
				logging.String(logging.FieldImpact, "video stored without subtitle"),
			)
		}
		result.SubtitlePath = subtitlePath
	}

	l.logStored(ctx, result, started)
	return result, nil
}

// loadLocal copies a local video and, when requested, its .srt sidecar. The
// sidecar is validated before anything is written so a bad subtitle path never
// leaves a half-loaded video behind.
func (l *Loader) loadLocal(ctx context.Context, source string, req Request) (Result, error) {
	started := time.Now()
	var subtitleSource string
	if req.WithSubtitle {
		path, err := validateSidecar(req.SubtitleSource)
		if err != nil {
			return Result{}, err
		}
		subtitleSource = path
	}

	stem := textutil.SanitizeStem(source)
	ctx = services.WithVideoID(ctx, stem)
	rawDir := l.cfg.RawDir()
	if err := os.MkdirAll(rawDir, 0o755); err != nil {
		return Result{}, fmt.Errorf("create raw directory: %w", err)
	}

	dest, err := filepath.Abs(filepath.Join(rawDir, stem+strings.ToLower(filepath.Ext(source))))
	if err != nil {
		return Result{}, fmt.Errorf("resolve destination: %w", err)
	}
	srcAbs, _ := filepath.Abs(source)
	if srcAbs != dest {
		if err := fileutil.CopyFileVerified(source, dest); err != nil {
			return Result{}, fmt.Errorf("copy video: %w", err)
		}
	}
	result := Result{VideoPath: dest, VideoID: stem, Source: SourceLocal}

	if subtitleSource != "" {
		subDest := filepath.Join(rawDir, stem+".srt")
		subAbs, _ := filepath.Abs(subtitleSource)
		if subAbs != subDest {
			if err := fileutil.CopyFile(subtitleSource, subDest); err != nil {
				return Result{}, fmt.Errorf("copy subtitle: %w", err)
			}
		}
		result.SubtitlePath = subDest
	}

	l.logStored(ctx, result, started)
	return result, nil
}

func (l *Loader) logStored(ctx context.Context, result Result, started time.Time) {
	attrs := []logging.Attr{
		logging.String("path", result.VideoPath),
		logging.Bool("subtitle", result.SubtitlePath != ""),
		logging.Duration("elapsed", time.Since(started).Round(time.Millisecond)),
	}
	if info, err := os.Stat(result.VideoPath); err == nil {
		attrs = append(attrs, logging.Int64("bytes", info.Size()))
	}
	l.logger.InfoContext(ctx, "video stored", logging.Args(attrs...)...)
}

func validateSidecar(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", services.Wrap(services.ErrValidation, stageName, "validate subtitle",
			"a subtitle path is required for local videos", nil)
	}
	if !strings.EqualFold(filepath.Ext(path), ".srt") {
		return "", services.Wrap(services.ErrValidation, stageName, "validate subtitle",
			fmt.Sprintf("only .srt subtitles are supported, got %q", filepath.Base(path)), nil)
	}
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return "", services.Wrap(services.ErrNotFound, stageName, "validate subtitle",
			fmt.Sprintf("subtitle file %q not found", path), nil)
	}
	if err != nil {
		return "", fmt.Errorf("stat subtitle: %w", err)
	}
	if info.IsDir() {
		return "", services.Wrap(services.ErrValidation, stageName, "validate subtitle",
			fmt.Sprintf("subtitle path %q is a directory", path), nil)
	}
	return path, nil
}

// adoptSubtitle renames the <id>.*.srt written by yt-dlp to <video base>.srt,
// preferring the requested language, and removes the other tracks.
func (l *Loader) adoptSubtitle(ctx context.Context, rawDir, videoID, videoPath, preferred string) (string, error) {
	target := strings.TrimSuffix(videoPath, filepath.Ext(videoPath)) + ".srt"
	found, extra, err := subtitles.LocateDownloaded(rawDir, videoID, target, preferred)
	if err != nil {
		return "", err
	}
	if found == "" {
		if _, err := os.Stat(target); err == nil {
			return target, nil
		}
		return "", nil
	}
	if err := fileutil.MoveFile(found, target); err != nil {
		return "", err
	}
	subtitles.RemoveExtra(ctx, l.logger, extra)
	return target, nil
}

func (l *Loader) cookiesFile() string {
	path := strings.TrimSpace(l.cfg.YouTube.CookiesFile)
	if path == "" {
		return ""
	}
	if info, err := os.Stat(path); err != nil || info.IsDir() {
		l.logger.Warn("cookies file unavailable, downloading without cookies",
			logging.String("path", path),
			logging.String(logging.FieldEventType, "cookies_missing"),
			logging.String(logging.FieldErrorHint, "export browser cookies in Netscape format"),
		)
		return ""
	}
	return path
}

// downloadClients puts primaryPlayerClient first, followed by the configured
// clients in order without duplicates.
func downloadClients(configured []string) []string {
	out := []string{primaryPlayerClient}
	seen := map[string]struct{}{primaryPlayerClient: {}}
	for _, c := range configured {
		if _, ok := seen[c]; ok || c == "" {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}

func wrapDownloadError(err error) error {
	var exhausted *retry.ExhaustedError
	switch {
	case errors.As(err, &exhausted):
		return services.Wrap(services.ErrTransient, stageName, "download video",
			fmt.Sprintf("YouTube kept rejecting the download after %d attempts; configure youtube.cookies_file or %s", exhausted.Attempts, config.CookiesEnv),
			exhausted)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case ytdlp.KindOf(err) == ytdlp.KindTimeout:
		return services.Wrap(services.ErrTimeout, stageName, "download video", "yt-dlp timed out", err)
	case ytdlp.KindOf(err) == ytdlp.KindFormatUnavailable:
		return services.Wrap(services.ErrNotFound, stageName, "download video", "no format matches the resolution cap", err)
	default:
		return services.Wrap(services.ErrExternalTool, stageName, "download video", "yt-dlp failed", err)
	}
}
