package config

import "github.com/spf13/pflag"

// Flags holds command-line overrides. Zero values leave the config untouched.
type Flags struct {
	ConfigPath string
	Debug      bool
	Addr       string
	ModelURL   string
	DBPath     string
	Watch      bool
	Windowed   bool
	Fullscreen bool
	Width      int
	Height     int
}

// Register binds the flags on fs.
func (f *Flags) Register(fs *pflag.FlagSet) {
	fs.StringVar(&f.ConfigPath, "config", "", "Path to config file")
	fs.BoolVar(&f.Debug, "debug", false, "Enable debug logging")
	fs.StringVar(&f.Addr, "addr", "", "Host bridge listen address")
	fs.StringVar(&f.ModelURL, "model", "", "Model path or URL to load at startup")
	fs.StringVar(&f.DBPath, "db", "", "Injury database path")
	fs.BoolVar(&f.Watch, "watch", false, "Reload local model files when they change")
	fs.BoolVar(&f.Windowed, "windowed", false, "Run in windowed mode")
	fs.BoolVar(&f.Fullscreen, "fullscreen", false, "Run in fullscreen mode")
	fs.IntVar(&f.Width, "width", 0, "Window width")
	fs.IntVar(&f.Height, "height", 0, "Window height")
}

// apply applies CLI flag overrides to the config.
func (f *Flags) apply(cfg *Config) {
	if f.Debug {
		cfg.Logging.Level = "debug"
	}
	if f.Addr != "" {
		cfg.Server.Addr = f.Addr
	}
	if f.ModelURL != "" {
		cfg.Model.URL = f.ModelURL
	}
	if f.DBPath != "" {
		cfg.Storage.DBPath = f.DBPath
	}
	if f.Watch {
		cfg.Model.Watch = true
	}
	if f.Windowed {
		cfg.Window.Fullscreen = false
	}
	if f.Fullscreen {
		cfg.Window.Fullscreen = true
	}
	if f.Width > 0 {
		cfg.Window.Width = f.Width
	}
	if f.Height > 0 {
		cfg.Window.Height = f.Height
	}
}
