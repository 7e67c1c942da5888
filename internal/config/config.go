package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains storage and log directory configuration.
type Paths struct {
	DatabaseRoot string `toml:"database_root"`
	LogDir       string `toml:"log_dir"`
}

// Video contains download and frame sampling settings.
type Video struct {
	// Resolution caps the downloaded video height in pixels.
	Resolution int `toml:"resolution"`
	// FPS is the target frame sampling rate used by the frame decoder.
	FPS float64 `toml:"fps"`
	// JPEGQuality is the encoder quality for saved frames (1-100).
	JPEGQuality int `toml:"jpeg_quality"`
	// Container is the merge output format requested from yt-dlp.
	Container string `toml:"container"`
}

// YouTube contains settings that shape requests against YouTube.
type YouTube struct {
	CookiesFile        string   `toml:"cookies_file"`
	UserAgent          string   `toml:"user_agent"`
	Referer            string   `toml:"referer"`
	PlayerClients      []string `toml:"player_clients"`
	MaxRetries         int      `toml:"max_retries"`
	BackoffStepSeconds int      `toml:"backoff_step_seconds"`
	SubtitleLanguage   string   `toml:"subtitle_language"`
	HTTPTimeoutSeconds int      `toml:"http_timeout_seconds"`
}

// Tools contains external binary locations and invocation limits.
type Tools struct {
	YtDlpBinary            string `toml:"ytdlp_binary"`
	FFmpegBinary           string `toml:"ffmpeg_binary"`
	FFprobeBinary          string `toml:"ffprobe_binary"`
	DownloadTimeoutSeconds int    `toml:"download_timeout_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for dvd.
//
// Configuration sections by subsystem:
//   - Paths: video database root and log directory
//   - Video: resolution cap, sampling frame rate, JPEG quality
//   - YouTube: cookies, client identities, retry budget
//   - Tools: yt-dlp / ffmpeg / ffprobe binaries
//   - Logging: log format and level
type Config struct {
	Paths   Paths   `toml:"paths"`
	Video   Video   `toml:"video"`
	YouTube YouTube `toml:"youtube"`
	Tools   Tools   `toml:"tools"`
	Logging Logging `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/dvd/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		info, err := os.Stat(expanded)
		if err != nil {
			if os.IsNotExist(err) {
				return "", false, fmt.Errorf("config file %s not found", expanded)
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		if info.IsDir() {
			return "", false, fmt.Errorf("config path %s is a directory", expanded)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath("~/.config/dvd/config.toml")
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("dvd.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the database root, its raw video directory, and
// the log directory.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DatabaseRoot, c.RawDir(), c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// RawDir is the directory that holds stored videos and their subtitle sidecars.
func (c *Config) RawDir() string {
	return filepath.Join(c.Paths.DatabaseRoot, "raw")
}

// VideoDir is the per-video working directory under the database root.
func (c *Config) VideoDir(videoID string) string {
	return filepath.Join(c.Paths.DatabaseRoot, videoID)
}

// FramesDir is the directory decoded frames for videoID are written to.
func (c *Config) FramesDir(videoID string) string {
	return filepath.Join(c.VideoDir(videoID), "frames")
}

// YtDlpBinary returns the yt-dlp executable name.
func (c *Config) YtDlpBinary() string {
	if bin := strings.TrimSpace(c.Tools.YtDlpBinary); bin != "" {
		return bin
	}
	return defaultYtDlpBinary
}

// FFmpegBinary returns the ffmpeg executable used for frame decoding.
func (c *Config) FFmpegBinary() string {
	if bin := strings.TrimSpace(c.Tools.FFmpegBinary); bin != "" {
		return bin
	}
	return defaultFFmpegBinary
}

// FFprobeBinary returns the ffprobe executable name used for media inspection.
func (c *Config) FFprobeBinary() string {
	if bin := strings.TrimSpace(c.Tools.FFprobeBinary); bin != "" {
		return bin
	}
	return defaultFFprobeBinary
}

// BackoffStep is the linear backoff increment between retried attempts.
func (c *Config) BackoffStep() time.Duration {
	return time.Duration(c.YouTube.BackoffStepSeconds) * time.Second
}

// DownloadTimeout bounds a single yt-dlp invocation. Zero disables the limit.
func (c *Config) DownloadTimeout() time.Duration {
	return time.Duration(c.Tools.DownloadTimeoutSeconds) * time.Second
}

// HTTPTimeout bounds direct subtitle track requests.
func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.YouTube.HTTPTimeoutSeconds) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
