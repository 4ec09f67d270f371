package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Load loads configuration with priority: defaults < file < flags.
func Load() (*Config, error) {
	// Start with defaults
	cfg := Default()

	// Try to load from file (explicit path takes priority)
	configPath := ConfigPath()
	if configPath == "" {
		configPath = findConfigFile()
	}

	if configPath != "" {
		if err := loadFromFile(cfg, configPath); err != nil {
			return nil, fmt.Errorf("loading config from %s: %w", configPath, err)
		}
	}

	// Apply CLI flags (highest priority)
	applyFlags(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// findConfigFile looks for config in standard locations.
func findConfigFile() string {
	candidates := []string{
		"./config.yaml",
		filepath.Join(ConfigDir(), "config.yaml"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// ConfigDir returns the OS-appropriate config directory.
func ConfigDir() string {
	switch runtime.GOOS {
	case "darwin":
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "Library", "Application Support", "TrinityViewer")
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "TrinityViewer")
	default: // Linux and others
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "trinity-viewer")
		}
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "trinity-viewer")
	}
}

// loadFromFile loads config from a YAML file, merging with existing values.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// Validate checks values that would make the viewer unusable.
func (c *Config) Validate() error {
	if len(c.Assets.Roots) == 0 {
		return fmt.Errorf("no asset roots configured")
	}
	if c.Playback.DefaultFrameRate <= 0 {
		return fmt.Errorf("default frame rate must be positive, got %v", c.Playback.DefaultFrameRate)
	}
	if c.Playback.TickInterval <= 0 {
		return fmt.Errorf("tick interval must be positive, got %v", c.Playback.TickInterval)
	}
	if c.Server.Addr == "" {
		return fmt.Errorf("server address is empty")
	}
	return nil
}
