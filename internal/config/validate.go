package config

import (
	"fmt"
	"log/slog"
	"net"
	"strings"
)

var validLogLevels = map[string]bool{
	"debug":   true,
	"info":    true,
	"warn":    true,
	"warning": true,
	"error":   true,
}

// Validate checks the config and returns every problem found. Out of range
// numbers are clamped so the config stays usable; the returned errors are
// also logged as warnings.
func (c *Config) Validate() []error {
	var errs []error

	if c.LogLevel != "" && !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Errorf("log_level %q is not valid (use debug, info, warn, error)", c.LogLevel))
	}
	if c.LogFormat != "" && c.LogFormat != "text" && c.LogFormat != "json" {
		errs = append(errs, fmt.Errorf("log_format %q is not valid (use text or json)", c.LogFormat))
	}

	if _, _, err := net.SplitHostPort(c.ListenAddr); err != nil {
		errs = append(errs, fmt.Errorf("listen_addr %q: %w", c.ListenAddr, err))
	}

	if c.FrameRate < 1 {
		errs = append(errs, fmt.Errorf("frame_rate %d is below minimum 1, clamping", c.FrameRate))
		c.FrameRate = 1
	} else if c.FrameRate > 60 {
		errs = append(errs, fmt.Errorf("frame_rate %d exceeds maximum 60, clamping", c.FrameRate))
		c.FrameRate = 60
	}

	if c.JPEGQuality < 1 {
		errs = append(errs, fmt.Errorf("jpeg_quality %d is below minimum 1, clamping", c.JPEGQuality))
		c.JPEGQuality = 1
	} else if c.JPEGQuality > 100 {
		errs = append(errs, fmt.Errorf("jpeg_quality %d exceeds maximum 100, clamping", c.JPEGQuality))
		c.JPEGQuality = 100
	}

	// 0 means no limit
	if c.MaxWidth < 0 {
		errs = append(errs, fmt.Errorf("max_width %d is negative, disabling the limit", c.MaxWidth))
		c.MaxWidth = 0
	}
	if c.MaxHeight < 0 {
		errs = append(errs, fmt.Errorf("max_height %d is negative, disabling the limit", c.MaxHeight))
		c.MaxHeight = 0
	}

	if strings.TrimSpace(c.FFmpegPath) == "" {
		errs = append(errs, fmt.Errorf("ffmpeg_path is empty, using ffmpeg"))
		c.FFmpegPath = "ffmpeg"
	}

	for _, err := range errs {
		slog.Warn("config validation", "error", err)
	}
	return errs
}
