package subtitles

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"dvd/internal/config"
	"dvd/internal/fileutil"
	lang "dvd/internal/language"
	"dvd/internal/logging"
	"dvd/internal/retry"
	"dvd/internal/services"
	"dvd/internal/services/ytdlp"
	"dvd/internal/youtube"
)

const stageName = "subtitles"

var (
	errNoSubtitleFile = errors.New("yt-dlp finished without writing a subtitle file")
	errDirectFailed   = errors.New("direct subtitle download failed")
)

// Client is the yt-dlp surface the fetcher needs.
type Client interface {
	DownloadSubtitles(ctx context.Context, req ytdlp.SubtitleRequest) error
	Metadata(ctx context.Context, url string, identity ytdlp.Identity) (*ytdlp.Metadata, error)
}

// Option configures the fetcher.
type Option func(*Fetcher)

// WithHTTPClient replaces the client used for direct track downloads.
func WithHTTPClient(client *http.Client) Option {
	return func(f *Fetcher) {
		if client != nil {
			f.http = client
		}
	}
}

// WithSleep replaces the backoff sleep (primarily for tests).
func WithSleep(sleep retry.SleepFunc) Option {
	return func(f *Fetcher) {
		f.sleep = sleep
	}
}

// WithLogger sets the logger used for attempt and fallback diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Fetcher) {
		f.logger = logging.NewComponentLogger(logger, "subtitles")
	}
}

// Fetcher downloads a single SRT subtitle for a YouTube video, rotating player
// clients between attempts and falling back to fetching the track URL directly
// when yt-dlp rejects format selection.
type Fetcher struct {
	cfg    *config.Config
	client Client
	http   *http.Client
	sleep  retry.SleepFunc
	logger *slog.Logger
}

// NewFetcher constructs a subtitle fetcher.
func NewFetcher(cfg *config.Config, client Client, opts ...Option) (*Fetcher, error) {
	if cfg == nil {
		return nil, errors.New("subtitles: config required")
	}
	if client == nil {
		return nil, errors.New("subtitles: yt-dlp client required")
	}
	f := &Fetcher{
		cfg:    cfg,
		client: client,
		http:   &http.Client{Timeout: cfg.HTTPTimeout()},
		logger: logging.NewComponentLogger(nil, "subtitles"),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// Fetch writes the subtitle for rawURL to outputPath.
func (f *Fetcher) Fetch(ctx context.Context, rawURL, outputPath string) error {
	ctx = services.WithStage(ctx, stageName)
	if !youtube.IsYouTubeURL(rawURL) {
		return services.Wrap(services.ErrValidation, stageName, "validate url",
			fmt.Sprintf("%q is not a YouTube URL", rawURL), nil)
	}
	if strings.TrimSpace(outputPath) == "" {
		return services.Wrap(services.ErrValidation, stageName, "validate output", "output path required", nil)
	}
	outputDir := filepath.Dir(outputPath)
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("create subtitle directory: %w", err)
	}

	clients := f.cfg.YouTube.PlayerClients
	if len(clients) == 0 {
		return services.Wrap(services.ErrConfiguration, stageName, "player clients", "youtube.player_clients is empty", nil)
	}
	cookies := f.cookiesFile(ctx)

	videoID, err := f.resolveVideoID(ctx, rawURL, f.identity(clients[0], cookies))
	if err != nil {
		return err
	}
	ctx = services.WithVideoID(ctx, videoID)

	policy := retry.Config{
		Attempts: f.cfg.YouTube.MaxRetries,
		Step:     f.cfg.BackoffStep(),
		Sleep:    f.sleep,
	}
	err = retry.Do(ctx, policy, isRetryable, func(ctx context.Context, attempt int) error {
		identity := f.identity(clients[attempt%len(clients)], cookies)
		f.logger.InfoContext(ctx, "subtitle attempt",
			logging.Int("attempt", attempt+1),
			logging.Int("max_attempts", policy.Attempts),
			logging.String("player_client", identity.PlayerClient),
			logging.Bool("cookies", identity.CookiesFile != ""),
		)
		return f.attempt(ctx, rawURL, videoID, outputPath, identity)
	})
	if err == nil {
		f.logger.InfoContext(ctx, "subtitle saved", logging.String("path", outputPath))
		return nil
	}

	var exhausted *retry.ExhaustedError
	switch {
	case errors.As(err, &exhausted) && ytdlp.IsTransient(exhausted.Err):
		return services.Wrap(services.ErrTransient, stageName, "fetch subtitles", remediation(exhausted.Attempts), exhausted)
	case errors.As(err, &exhausted):
		return services.Wrap(services.ErrNotFound, stageName, "fetch subtitles",
			fmt.Sprintf("no subtitles found for %s after %d attempts", videoID, exhausted.Attempts), exhausted)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case ytdlp.KindOf(err) == ytdlp.KindTimeout:
		return services.Wrap(services.ErrTimeout, stageName, "fetch subtitles", "yt-dlp timed out", err)
	default:
		return services.Wrap(services.ErrExternalTool, stageName, "fetch subtitles", "yt-dlp failed", err)
	}
}

func (f *Fetcher) attempt(ctx context.Context, rawURL, videoID, outputPath string, identity ytdlp.Identity) error {
	outputDir := filepath.Dir(outputPath)
	err := f.client.DownloadSubtitles(ctx, ytdlp.SubtitleRequest{
		URL:            rawURL,
		OutputTemplate: filepath.Join(outputDir, "%(id)s.%(ext)s"),
		Languages:      f.cfg.YouTube.SubtitleLanguage,
		Identity:       identity,
	})
	switch {
	case err == nil:
		found, extra, err := LocateDownloaded(outputDir, videoID, outputPath, lang.Primary(f.cfg.YouTube.SubtitleLanguage))
		if err != nil {
			return fmt.Errorf("scan subtitle directory: %w", err)
		}
		if found == "" {
			f.logger.InfoContext(ctx, "no subtitle file produced", logging.String("player_client", identity.PlayerClient))
			return errNoSubtitleFile
		}
		if err := fileutil.MoveFile(found, outputPath); err != nil {
			return err
		}
		RemoveExtra(ctx, f.logger, extra)
		return nil

	case ytdlp.KindOf(err) == ytdlp.KindFormatUnavailable:
		f.logger.InfoContext(ctx, "format unavailable, fetching track directly",
			logging.String("player_client", identity.PlayerClient))
		if directErr := f.fetchDirect(ctx, rawURL, outputPath, identity); directErr != nil {
			logging.WarnWithContext(ctx, f.logger, "direct subtitle fetch failed", "subtitle_direct_failed",
				logging.Error(directErr),
				logging.String(logging.FieldErrorHint, "the next attempt uses a different player client"),
			)
			return fmt.Errorf("%w: %w", errDirectFailed, directErr)
		}
		return nil

	case ytdlp.IsTransient(err):
		logging.WarnWithContext(ctx, f.logger, "youtube rejected request", "ytdlp_"+ytdlp.KindOf(err).String(),
			logging.String("player_client", identity.PlayerClient),
			logging.String(logging.FieldErrorHint, "configure youtube.cookies_file if this persists"),
			logging.String(logging.FieldImpact, "retrying with backoff"),
		)
		return err

	default:
		return err
	}
}

func (f *Fetcher) resolveVideoID(ctx context.Context, rawURL string, identity ytdlp.Identity) (string, error) {
	if id, ok := youtube.VideoID(rawURL); ok {
		return id, nil
	}
	meta, err := f.client.Metadata(ctx, rawURL, identity)
	if err != nil {
		return "", services.Wrap(services.ErrValidation, stageName, "resolve video id",
			fmt.Sprintf("could not determine video id from %q", rawURL), err)
	}
	if strings.TrimSpace(meta.ID) == "" {
		return "", services.Wrap(services.ErrValidation, stageName, "resolve video id",
			fmt.Sprintf("yt-dlp reported no id for %q", rawURL), nil)
	}
	return meta.ID, nil
}

func (f *Fetcher) identity(playerClient, cookies string) ytdlp.Identity {
	return ytdlp.Identity{
		PlayerClient: playerClient,
		UserAgent:    f.cfg.YouTube.UserAgent,
		Referer:      f.cfg.YouTube.Referer,
		CookiesFile:  cookies,
	}
}

// cookiesFile returns the configured cookie file when it exists.
func (f *Fetcher) cookiesFile(ctx context.Context) string {
	path := strings.TrimSpace(f.cfg.YouTube.CookiesFile)
	if path == "" {
		return ""
	}
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		logging.WarnWithContext(ctx, f.logger, "cookies file unavailable, continuing without cookies", "cookies_missing",
			logging.String("path", path),
			logging.String(logging.FieldErrorHint, "export browser cookies in Netscape format"),
			logging.String(logging.FieldImpact, "requests are more likely to hit bot detection"),
		)
		return ""
	}
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}

func isRetryable(err error) bool {
	return errors.Is(err, errNoSubtitleFile) || errors.Is(err, errDirectFailed) || ytdlp.IsTransient(err)
}

func remediation(attempts int) string {
	return fmt.Sprintf("YouTube bot detection after %d attempts. Wait a few minutes and retry, or export "+
		"browser cookies in Netscape format (https://github.com/yt-dlp/yt-dlp/wiki/FAQ#how-do-i-pass-cookies-to-yt-dlp) "+
		"and point youtube.cookies_file or %s at the file", attempts, config.CookiesEnv)
}
