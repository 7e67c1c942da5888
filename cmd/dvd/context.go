package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"dvd/internal/config"
	"dvd/internal/frames"
	"dvd/internal/loader"
	"dvd/internal/logging"
	"dvd/internal/services"
	"dvd/internal/services/ytdlp"
	"dvd/internal/subtitles"
)

type commandContext struct {
	configFlag   *string
	logLevelFlag *string

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error

	// ytdlpOptions and frameOptions let tests swap the external tools.
	ytdlpOptions []ytdlp.Option
	frameOptions []frames.Option
}

func newCommandContext(configFlag, logLevelFlag *string) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, path, _, err := config.Load(c.configFlagValue())
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = path
	})
	return c.config, c.configErr
}

func (c *commandContext) configFlagValue() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

func (c *commandContext) resolvedLogLevel(cfg *config.Config) string {
	if c.logLevelFlag != nil {
		if level := strings.TrimSpace(*c.logLevelFlag); level != "" {
			return level
		}
	}
	if cfg == nil {
		return "info"
	}
	return cfg.Logging.Level
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		local := *cfg
		local.Logging.Level = c.resolvedLogLevel(cfg)
		logger, err := logging.NewFromConfig(&local)
		if err != nil {
			c.loggerErr = fmt.Errorf("init logger: %w", err)
			return
		}
		c.logger = logger
	})
	return c.logger, c.loggerErr
}

// runContext stamps a fresh correlation id onto the command's context so
// every log line of one invocation can be grouped.
func runContext(cmd *cobra.Command) context.Context {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return services.WithRequestID(ctx, uuid.NewString())
}

// reportFailure appends a terminal command failure to the log with its error
// category and returns err unchanged. Cancellation is not logged.
func (c *commandContext) reportFailure(ctx context.Context, command string, err error) error {
	if err == nil || errors.Is(err, context.Canceled) {
		return err
	}
	logger, logErr := c.ensureLogger()
	if logErr != nil {
		return err
	}
	logging.ErrorWithContext(ctx, logger, command+" failed", "command_failed",
		logging.String("command", command),
		logging.String("error_category", string(services.Classify(err))),
		logging.Int("exit_code", exitCode(err)),
		logging.Error(err),
	)
	return err
}

func (c *commandContext) ytdlpClient(cfg *config.Config) (*ytdlp.Client, error) {
	return ytdlp.New(cfg.YtDlpBinary(), cfg.Tools.DownloadTimeoutSeconds, c.ytdlpOptions...)
}

func (c *commandContext) newLoader() (*loader.Loader, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}
	client, err := c.ytdlpClient(cfg)
	if err != nil {
		return nil, err
	}
	return loader.New(cfg, client, loader.WithLogger(logger))
}

func (c *commandContext) newFetcher() (*subtitles.Fetcher, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}
	client, err := c.ytdlpClient(cfg)
	if err != nil {
		return nil, err
	}
	return subtitles.NewFetcher(cfg, client, subtitles.WithLogger(logger))
}

func (c *commandContext) newDecoder() (*frames.Decoder, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}
	opts := append([]frames.Option{frames.WithLogger(logger)}, c.frameOptions...)
	return frames.NewDecoder(cfg, opts...)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
