package config

import (
	"fmt"
	"os"
	"strings"

	"dvd/internal/language"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeVideo()
	if err := c.normalizeYouTube(); err != nil {
		return err
	}
	c.normalizeTools()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	c.Paths.DatabaseRoot = strings.TrimSpace(c.Paths.DatabaseRoot)
	if c.Paths.DatabaseRoot == "" {
		if value, ok := os.LookupEnv(DatabaseRootEnv); ok && strings.TrimSpace(value) != "" {
			c.Paths.DatabaseRoot = strings.TrimSpace(value)
		} else {
			c.Paths.DatabaseRoot = defaultDatabaseRoot
		}
	}
	if c.Paths.DatabaseRoot, err = expandPath(c.Paths.DatabaseRoot); err != nil {
		return fmt.Errorf("paths.database_root: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeVideo() {
	c.Video.Container = strings.ToLower(strings.TrimSpace(c.Video.Container))
	if c.Video.Container == "" {
		c.Video.Container = defaultContainer
	}
	if c.Video.JPEGQuality == 0 {
		c.Video.JPEGQuality = defaultJPEGQuality
	}
}

func (c *Config) normalizeYouTube() error {
	c.YouTube.CookiesFile = strings.TrimSpace(c.YouTube.CookiesFile)
	if c.YouTube.CookiesFile == "" {
		if value, ok := os.LookupEnv(CookiesEnv); ok {
			c.YouTube.CookiesFile = strings.TrimSpace(value)
		}
	}
	if c.YouTube.CookiesFile != "" {
		expanded, err := expandPath(c.YouTube.CookiesFile)
		if err != nil {
			return fmt.Errorf("youtube.cookies_file: %w", err)
		}
		c.YouTube.CookiesFile = expanded
	}
	c.YouTube.UserAgent = strings.TrimSpace(c.YouTube.UserAgent)
	if c.YouTube.UserAgent == "" {
		c.YouTube.UserAgent = defaultUserAgent
	}
	c.YouTube.Referer = strings.TrimSpace(c.YouTube.Referer)
	if c.YouTube.Referer == "" {
		c.YouTube.Referer = defaultReferer
	}
	clients := make([]string, 0, len(c.YouTube.PlayerClients))
	for _, entry := range c.YouTube.PlayerClients {
		if normalized := normalizeClientList(entry); normalized != "" {
			clients = append(clients, normalized)
		}
	}
	if len(clients) == 0 {
		clients = append(clients, defaultPlayerClients...)
	}
	c.YouTube.PlayerClients = clients
	c.YouTube.SubtitleLanguage = language.Normalize(c.YouTube.SubtitleLanguage)
	if c.YouTube.SubtitleLanguage == "" {
		c.YouTube.SubtitleLanguage = defaultSubtitleLanguage
	}
	if c.YouTube.HTTPTimeoutSeconds <= 0 {
		c.YouTube.HTTPTimeoutSeconds = defaultHTTPTimeoutSeconds
	}
	return nil
}

// normalizeClientList lowercases a comma-separated player client list and
// drops empty members, so " Android , WEB" becomes "android,web".
func normalizeClientList(value string) string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.ToLower(strings.TrimSpace(part)); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return strings.Join(out, ",")
}

func (c *Config) normalizeTools() {
	c.Tools.YtDlpBinary = strings.TrimSpace(c.Tools.YtDlpBinary)
	if c.Tools.YtDlpBinary == "" {
		c.Tools.YtDlpBinary = defaultYtDlpBinary
	}
	c.Tools.FFmpegBinary = strings.TrimSpace(c.Tools.FFmpegBinary)
	if c.Tools.FFmpegBinary == "" {
		c.Tools.FFmpegBinary = defaultFFmpegBinary
	}
	c.Tools.FFprobeBinary = strings.TrimSpace(c.Tools.FFprobeBinary)
	if c.Tools.FFprobeBinary == "" {
		c.Tools.FFprobeBinary = defaultFFprobeBinary
	}
	if c.Tools.DownloadTimeoutSeconds < 0 {
		c.Tools.DownloadTimeoutSeconds = 0
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
