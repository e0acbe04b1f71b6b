// Package config loads windowcapture settings from file and environment.
package config

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

const EnvPrefix = "WINDOWCAPTURE"

type Config struct {
	LogLevel    string `mapstructure:"log_level"`
	LogFormat   string `mapstructure:"log_format"`
	ListenAddr  string `mapstructure:"listen_addr"`
	FrameRate   int    `mapstructure:"frame_rate"`
	JPEGQuality int    `mapstructure:"jpeg_quality"`
	MaxWidth    int    `mapstructure:"max_width"`
	MaxHeight   int    `mapstructure:"max_height"`
	FFmpegPath  string `mapstructure:"ffmpeg_path"`
}

func Default() *Config {
	return &Config{
		LogLevel:    "info",
		LogFormat:   "text",
		ListenAddr:  "127.0.0.1:8787",
		FrameRate:   10,
		JPEGQuality: 80,
		FFmpegPath:  "ffmpeg",
	}
}

// Load reads cfgFile, or windowcapture.yaml from the user config directory
// or the working directory when cfgFile is empty. A missing default file is
// not an error. WINDOWCAPTURE_* environment variables override file values.
func Load(cfgFile string) (*Config, error) {
	cfg := Default()
	v := viper.New()

	v.SetDefault("log_level", cfg.LogLevel)
	v.SetDefault("log_format", cfg.LogFormat)
	v.SetDefault("listen_addr", cfg.ListenAddr)
	v.SetDefault("frame_rate", cfg.FrameRate)
	v.SetDefault("jpeg_quality", cfg.JPEGQuality)
	v.SetDefault("max_width", cfg.MaxWidth)
	v.SetDefault("max_height", cfg.MaxHeight)
	v.SetDefault("ffmpeg_path", cfg.FFmpegPath)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("windowcapture")
		v.SetConfigType("yaml")
		if dir := configDir(); dir != "" {
			v.AddConfigPath(dir)
		}
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func configDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "windowcapture")
}
