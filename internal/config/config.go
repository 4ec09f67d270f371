// Package config handles viewer configuration loading and management.
package config

import "time"

// Config holds all viewer settings.
type Config struct {
	Assets   AssetsConfig   `yaml:"assets"`
	Playback PlaybackConfig `yaml:"playback"`
	Server   ServerConfig   `yaml:"server"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// AssetsConfig holds where model files are read from.
type AssetsConfig struct {
	Roots []string `yaml:"roots"` // Asset directories, later roots override earlier ones
	Cache bool     `yaml:"cache"` // Keep read files in memory
}

// PlaybackConfig holds animation playback settings.
type PlaybackConfig struct {
	DefaultFrameRate float32       `yaml:"default_frame_rate"` // For clips that declare none
	TickInterval     time.Duration `yaml:"tick_interval"`      // Streaming update period
}

// ServerConfig holds HTTP service settings.
type ServerConfig struct {
	Addr        string        `yaml:"addr"`
	CORSOrigins []string      `yaml:"cors_origins"`
	ReadTimeout time.Duration `yaml:"read_timeout"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Assets: AssetsConfig{
			Roots: []string{"assets"},
			Cache: true,
		},
		Playback: PlaybackConfig{
			DefaultFrameRate: 30,
			TickInterval:     33 * time.Millisecond,
		},
		Server: ServerConfig{
			Addr:        "127.0.0.1:8390",
			CORSOrigins: []string{"*"},
			ReadTimeout: 10 * time.Second,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
