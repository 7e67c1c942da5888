package config

const (
	defaultDatabaseRoot       = "~/.local/share/dvd/video_database"
	defaultLogDir             = "~/.local/share/dvd/logs"
	defaultResolution         = 720
	defaultFPS                = 1.0
	defaultJPEGQuality        = 95
	defaultContainer          = "mp4"
	defaultUserAgent          = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	defaultReferer            = "https://www.youtube.com/"
	defaultMaxRetries         = 5
	defaultBackoffStepSeconds = 3
	defaultSubtitleLanguage   = "en"
	defaultHTTPTimeoutSeconds = 30
	defaultYtDlpBinary        = "yt-dlp"
	defaultFFmpegBinary       = "ffmpeg"
	defaultFFprobeBinary      = "ffprobe"
	defaultDownloadTimeout    = 1800
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"

	// CookiesEnv names the environment variable holding a browser-exported
	// cookie file used to authenticate YouTube requests.
	CookiesEnv = "YOUTUBE_COOKIES"
	// DatabaseRootEnv overrides the database root when the config leaves it unset.
	DatabaseRootEnv = "DVD_DATABASE_ROOT"
)

// defaultPlayerClients is the order of client identities tried by the
// subtitle fetcher. Each entry is a comma-separated yt-dlp player_client list.
var defaultPlayerClients = []string{
	"android",
	"ios",
	"web",
	"android,web",
	"ios,android,web",
}

// Default returns a Config populated with repository defaults. DatabaseRoot is
// left empty so normalization can honour DVD_DATABASE_ROOT.
func Default() Config {
	return Config{
		Paths: Paths{
			LogDir: defaultLogDir,
		},
		Video: Video{
			Resolution:  defaultResolution,
			FPS:         defaultFPS,
			JPEGQuality: defaultJPEGQuality,
			Container:   defaultContainer,
		},
		YouTube: YouTube{
			UserAgent:          defaultUserAgent,
			Referer:            defaultReferer,
			PlayerClients:      append([]string(nil), defaultPlayerClients...),
			MaxRetries:         defaultMaxRetries,
			BackoffStepSeconds: defaultBackoffStepSeconds,
			SubtitleLanguage:   defaultSubtitleLanguage,
			HTTPTimeoutSeconds: defaultHTTPTimeoutSeconds,
		},
		Tools: Tools{
			YtDlpBinary:            defaultYtDlpBinary,
			FFmpegBinary:           defaultFFmpegBinary,
			FFprobeBinary:          defaultFFprobeBinary,
			DownloadTimeoutSeconds: defaultDownloadTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
