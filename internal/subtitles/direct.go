package subtitles

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"dvd/internal/fileutil"
	lang "dvd/internal/language"
	"dvd/internal/logging"
	"dvd/internal/services"
	"dvd/internal/services/ytdlp"
	"dvd/internal/youtube"
)

// maxTrackBytes bounds a single subtitle download.
const maxTrackBytes = 16 << 20

// fetchDirect reads the subtitle track list from metadata that skips format
// resolution, downloads the chosen track over plain HTTP, and writes it as SRT.
func (f *Fetcher) fetchDirect(ctx context.Context, rawURL, outputPath string, identity ytdlp.Identity) error {
	meta, err := f.client.Metadata(ctx, rawURL, identity)
	if err != nil {
		return fmt.Errorf("fetch metadata: %w", err)
	}
	selection, ok := SelectTrack(meta, lang.Primary(f.cfg.YouTube.SubtitleLanguage))
	if !ok {
		return services.Wrap(services.ErrNotFound, stageName, "select track", "video lists no subtitle tracks", nil)
	}
	f.logger.InfoContext(ctx, "direct subtitle track selected",
		logging.String("language", selection.Language),
		logging.String("language_name", lang.DisplayName(selection.Language)),
		logging.String("ext", selection.Track.Ext),
		logging.Bool("automatic", selection.Automatic),
	)

	body, err := f.downloadTrack(ctx, selection.Track.URL, identity)
	if err != nil {
		return err
	}
	content, err := toSRT(selection.Track.Ext, body)
	if err != nil {
		return err
	}
	if strings.TrimSpace(content) == "" {
		return services.Wrap(services.ErrNotFound, stageName, "convert track", "subtitle track has no cues", nil)
	}
	return fileutil.WriteFileAtomic(outputPath, []byte(content), 0o644)
}

func (f *Fetcher) downloadTrack(ctx context.Context, trackURL string, identity ytdlp.Identity) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, trackURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build track request: %w", err)
	}
	if identity.UserAgent != "" {
		req.Header.Set("User-Agent", identity.UserAgent)
	}
	if identity.Referer != "" {
		req.Header.Set("Referer", identity.Referer)
	}
	if identity.CookiesFile != "" {
		jar, err := youtube.NewCookieJar(identity.CookiesFile)
		if err != nil {
			logging.WarnWithContext(ctx, f.logger, "cookie file unreadable, fetching track without cookies", "cookies_unreadable",
				logging.Error(err))
		} else {
			for _, cookie := range jar.Cookies(req.URL) {
				req.AddCookie(cookie)
			}
		}
	}

	resp, err := f.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch subtitle track: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
	case resp.StatusCode == http.StatusNotFound:
		return nil, services.Wrap(services.ErrNotFound, stageName, "fetch track", "subtitle track returned 404", nil)
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, services.Wrap(services.ErrTransient, stageName, "fetch track", "rate limited by YouTube", nil)
	default:
		return nil, fmt.Errorf("fetch subtitle track: unexpected status %s", resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxTrackBytes))
	if err != nil {
		return nil, fmt.Errorf("read subtitle track: %w", err)
	}
	return body, nil
}

// toSRT normalizes a downloaded track to SRT text.
func toSRT(ext string, body []byte) (string, error) {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	switch {
	case IsWebVTT(ext, body):
		return ConvertVTTToSRT(string(body)), nil
	case ext == "json3":
		return ConvertJSON3ToSRT(body)
	case ext == "srt" || len(ParseSRT(string(body))) > 0:
		return string(body), nil
	default:
		return "", fmt.Errorf("unsupported subtitle format %q", ext)
	}
}
