package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Load loads configuration with priority: defaults < file < flags.
// flags may be nil.
func Load(flags *Flags) (*Config, error) {
	if flags == nil {
		flags = &Flags{}
	}

	cfg := Default()

	// Explicit path takes priority over the standard locations
	configPath := flags.ConfigPath
	if configPath == "" {
		configPath = findConfigFile()
	}

	if configPath != "" {
		if err := loadFromFile(cfg, configPath); err != nil {
			return nil, fmt.Errorf("loading config from %s: %w", configPath, err)
		}
	}

	flags.apply(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values the viewer cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Focus.FadeOpacity < 0 || c.Focus.FadeOpacity > 1 {
		errs = append(errs, fmt.Errorf("focus.fade_opacity must be in [0,1], got %v", c.Focus.FadeOpacity))
	}
	if c.Focus.DistanceMultiplier <= 0 {
		errs = append(errs, fmt.Errorf("focus.distance_multiplier must be positive, got %v", c.Focus.DistanceMultiplier))
	}
	if c.Focus.FramingDuration < 0 {
		errs = append(errs, fmt.Errorf("focus.framing_duration must not be negative, got %v", c.Focus.FramingDuration))
	}
	if c.Loop.TickRate <= 0 {
		errs = append(errs, fmt.Errorf("loop.tick_rate must be positive, got %d", c.Loop.TickRate))
	}
	return errors.Join(errs...)
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
		return filepath.Join(home, "Library", "Application Support", "BodyView")
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "BodyView")
	default: // Linux and others
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "bodyview")
		}
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "bodyview")
	}
}

// CacheDir returns the model cache directory, honoring model.cache_dir.
func (c *Config) CacheDir() string {
	if c.Model.CacheDir != "" {
		return c.Model.CacheDir
	}
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "bodyview", "models")
	}
	return filepath.Join(ConfigDir(), "cache")
}

// loadFromFile loads config from a YAML file, merging with existing values.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}
