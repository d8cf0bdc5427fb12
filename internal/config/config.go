// Package config handles viewer configuration loading and management.
package config

import "time"

// Config holds all viewer settings.
type Config struct {
	Window  WindowConfig  `yaml:"window"`
	Server  ServerConfig  `yaml:"server"`
	Focus   FocusConfig   `yaml:"focus"`
	Loop    LoopConfig    `yaml:"loop"`
	Model   ModelConfig   `yaml:"model"`
	Storage StorageConfig `yaml:"storage"`
	Logging LoggingConfig `yaml:"logging"`
}

// WindowConfig holds display settings for the interactive viewer.
type WindowConfig struct {
	Width      int     `yaml:"width"`
	Height     int     `yaml:"height"`
	Fullscreen bool    `yaml:"fullscreen"`
	VSync      bool    `yaml:"vsync"`
	FOV        float32 `yaml:"fov"` // Vertical field of view in degrees
}

// ServerConfig holds the host bridge HTTP settings.
type ServerConfig struct {
	Addr         string        `yaml:"addr"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	CORS         bool          `yaml:"cors"`
}

// FocusConfig holds the tunables of mesh focusing.
type FocusConfig struct {
	FadeOpacity        float32       `yaml:"fade_opacity"`        // Opacity applied to occluders
	DistanceMultiplier float32       `yaml:"distance_multiplier"` // Camera distance per unit of half-diagonal
	EmissiveFraction   float32       `yaml:"emissive_fraction"`   // Emissive share of the highlight color
	FramingDuration    time.Duration `yaml:"framing_duration"`
}

// LoopConfig holds event loop settings.
type LoopConfig struct {
	TickRate int `yaml:"tick_rate"` // Ticks per second in headless mode
}

// ModelConfig holds model loading settings.
type ModelConfig struct {
	URL           string        `yaml:"url"`            // Model loaded at startup
	CacheDir      string        `yaml:"cache_dir"`      // Downloaded models are kept here
	HTTPTimeout   time.Duration `yaml:"http_timeout"`
	NormalizeSize float32       `yaml:"normalize_size"` // 0 keeps the model's own units
	Watch         bool          `yaml:"watch"`          // Reload local models on change
}

// StorageConfig holds injury record storage settings.
type StorageConfig struct {
	DBPath string `yaml:"db_path"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	Format  string `yaml:"format"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Window: WindowConfig{
			Width:      1280,
			Height:     720,
			Fullscreen: false,
			VSync:      true,
			FOV:        45,
		},
		Server: ServerConfig{
			Addr:         "127.0.0.1:7420",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			CORS:         true,
		},
		Focus: FocusConfig{
			FadeOpacity:        0.2,
			DistanceMultiplier: 2.5,
			EmissiveFraction:   0.3,
			FramingDuration:    500 * time.Millisecond,
		},
		Loop: LoopConfig{
			TickRate: 60,
		},
		Model: ModelConfig{
			URL:           "",
			CacheDir:      "",
			HTTPTimeout:   20 * time.Second,
			NormalizeSize: 2,
			Watch:         false,
		},
		Storage: StorageConfig{
			DBPath: "data/injuries.db",
		},
		Logging: LoggingConfig{
			Level:   "info",
			Format:  "console",
			LogFile: "",
		},
	}
}
