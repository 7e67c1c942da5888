package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateVideo(); err != nil {
		return err
	}
	if err := c.validateYouTube(); err != nil {
		return err
	}
	if err := c.validateTools(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.DatabaseRoot) == "" {
		return errors.New("paths.database_root must be set")
	}
	return nil
}

func (c *Config) validateVideo() error {
	if c.Video.Resolution <= 0 {
		return errors.New("video.resolution must be positive")
	}
	if c.Video.FPS <= 0 {
		return errors.New("video.fps must be positive")
	}
	if c.Video.JPEGQuality < 1 || c.Video.JPEGQuality > 100 {
		return errors.New("video.jpeg_quality must be between 1 and 100")
	}
	return nil
}

func (c *Config) validateYouTube() error {
	if c.YouTube.MaxRetries < 1 {
		return errors.New("youtube.max_retries must be at least 1")
	}
	if c.YouTube.BackoffStepSeconds < 0 {
		return errors.New("youtube.backoff_step_seconds must be >= 0")
	}
	if len(c.YouTube.PlayerClients) == 0 {
		return errors.New("youtube.player_clients must include at least one client")
	}
	return nil
}

func (c *Config) validateTools() error {
	for key, value := range map[string]string{
		"tools.ytdlp_binary":   c.Tools.YtDlpBinary,
		"tools.ffmpeg_binary":  c.Tools.FFmpegBinary,
		"tools.ffprobe_binary": c.Tools.FFprobeBinary,
	} {
		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("%s must be set", key)
		}
	}
	return nil
}
