package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Window.Width != 1280 {
		t.Errorf("expected width 1280, got %d", cfg.Window.Width)
	}
	if cfg.Window.Height != 720 {
		t.Errorf("expected height 720, got %d", cfg.Window.Height)
	}
	if !cfg.Window.VSync {
		t.Error("expected vsync to be true by default")
	}

	if cfg.Focus.FadeOpacity != 0.2 {
		t.Errorf("expected fade opacity 0.2, got %f", cfg.Focus.FadeOpacity)
	}
	if cfg.Focus.DistanceMultiplier != 2.5 {
		t.Errorf("expected distance multiplier 2.5, got %f", cfg.Focus.DistanceMultiplier)
	}
	if cfg.Focus.EmissiveFraction != 0.3 {
		t.Errorf("expected emissive fraction 0.3, got %f", cfg.Focus.EmissiveFraction)
	}
	if cfg.Focus.FramingDuration != 500*time.Millisecond {
		t.Errorf("expected framing duration 500ms, got %v", cfg.Focus.FramingDuration)
	}

	if cfg.Server.Addr != "127.0.0.1:7420" {
		t.Errorf("expected addr 127.0.0.1:7420, got %s", cfg.Server.Addr)
	}
	if cfg.Loop.TickRate != 60 {
		t.Errorf("expected tick rate 60, got %d", cfg.Loop.TickRate)
	}

	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "" {
		t.Errorf("expected empty log file, got %s", cfg.Logging.LogFile)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate, got %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
window:
  width: 1920
  height: 1080
  fullscreen: true
  vsync: false

server:
  addr: "0.0.0.0:9000"
  read_timeout: 5s

focus:
  fade_opacity: 0.35
  distance_multiplier: 3
  framing_duration: 750ms

model:
  url: "https://example.com/body.glb"
  http_timeout: 2s
  watch: true

storage:
  db_path: "/var/lib/bodyview/injuries.db"

logging:
  level: "debug"
  log_file: "viewer.log"
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Window.Width != 1920 {
		t.Errorf("expected width 1920, got %d", cfg.Window.Width)
	}
	if !cfg.Window.Fullscreen {
		t.Error("expected fullscreen to be true")
	}
	if cfg.Server.Addr != "0.0.0.0:9000" {
		t.Errorf("expected addr 0.0.0.0:9000, got %s", cfg.Server.Addr)
	}
	if cfg.Server.ReadTimeout != 5*time.Second {
		t.Errorf("expected read timeout 5s, got %v", cfg.Server.ReadTimeout)
	}
	if cfg.Focus.FadeOpacity != 0.35 {
		t.Errorf("expected fade opacity 0.35, got %f", cfg.Focus.FadeOpacity)
	}
	if cfg.Focus.FramingDuration != 750*time.Millisecond {
		t.Errorf("expected framing duration 750ms, got %v", cfg.Focus.FramingDuration)
	}
	// Untouched keys keep their defaults
	if cfg.Focus.EmissiveFraction != 0.3 {
		t.Errorf("expected default emissive fraction, got %f", cfg.Focus.EmissiveFraction)
	}
	if cfg.Model.URL != "https://example.com/body.glb" {
		t.Errorf("unexpected model url %s", cfg.Model.URL)
	}
	if !cfg.Model.Watch {
		t.Error("expected watch to be true")
	}
	if cfg.Storage.DBPath != "/var/lib/bodyview/injuries.db" {
		t.Errorf("unexpected db path %s", cfg.Storage.DBPath)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yaml")

	invalidYAML := `
window:
  width: not a number
  invalid syntax here
`

	if err := os.WriteFile(configPath, []byte(invalidYAML), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err == nil {
		t.Error("expected error loading invalid YAML, got nil")
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg := Default()
	if err := loadFromFile(cfg, "/nonexistent/path/config.yaml"); err == nil {
		t.Error("expected error loading missing file, got nil")
	}
}

func TestConfigDir(t *testing.T) {
	dir := ConfigDir()

	if dir == "" {
		t.Error("ConfigDir returned empty string")
	}
	if !filepath.IsAbs(dir) {
		t.Errorf("ConfigDir should return absolute path, got %s", dir)
	}
}

func TestFindConfigFile(t *testing.T) {
	origDir, _ := os.Getwd()
	defer os.Chdir(origDir)

	tmpDir := t.TempDir()
	os.Chdir(tmpDir)
	t.Setenv("XDG_CONFIG_HOME", tmpDir)

	if path := findConfigFile(); path != "" {
		t.Errorf("expected empty path when no config exists, got %s", path)
	}

	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("window:\n  width: 800\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}

	if path := findConfigFile(); path == "" {
		t.Error("expected to find config.yaml in current directory")
	}
}

func TestFlagsApply(t *testing.T) {
	tests := []struct {
		name   string
		args   []string
		verify func(t *testing.T, cfg *Config)
	}{
		{
			name: "debug flag",
			args: []string{"--debug"},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Logging.Level != "debug" {
					t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
				}
			},
		},
		{
			name: "addr and model flags",
			args: []string{"--addr", ":8080", "--model", "body.glb"},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Server.Addr != ":8080" {
					t.Errorf("expected addr :8080, got %s", cfg.Server.Addr)
				}
				if cfg.Model.URL != "body.glb" {
					t.Errorf("expected model body.glb, got %s", cfg.Model.URL)
				}
			},
		},
		{
			name: "fullscreen flag",
			args: []string{"--fullscreen"},
			verify: func(t *testing.T, cfg *Config) {
				if !cfg.Window.Fullscreen {
					t.Error("expected fullscreen to be true with fullscreen flag")
				}
			},
		},
		{
			name: "width and height flags",
			args: []string{"--width", "2560", "--height", "1440"},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Window.Width != 2560 {
					t.Errorf("expected width 2560, got %d", cfg.Window.Width)
				}
				if cfg.Window.Height != 1440 {
					t.Errorf("expected height 1440, got %d", cfg.Window.Height)
				}
			},
		},
		{
			name: "no flags",
			args: nil,
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Server.Addr != Default().Server.Addr {
					t.Errorf("expected default addr, got %s", cfg.Server.Addr)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var flags Flags
			fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
			flags.Register(fs)
			if err := fs.Parse(tt.args); err != nil {
				t.Fatalf("parse flags: %v", err)
			}

			cfg := Default()
			flags.apply(cfg)
			tt.verify(t, cfg)
		})
	}
}

func TestLoadPriority(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
window:
  width: 1600
  height: 900
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(&Flags{ConfigPath: configPath, Width: 1920})
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	// Width should be from flag (1920), not file (1600)
	if cfg.Window.Width != 1920 {
		t.Errorf("expected width 1920 from flag, got %d", cfg.Window.Width)
	}
	// Height should be from file (900) since no flag override
	if cfg.Window.Height != 900 {
		t.Errorf("expected height 900 from file, got %d", cfg.Window.Height)
	}
}

func TestLoadRejectsInvalidFocus(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("focus:\n  fade_opacity: 1.5\n  distance_multiplier: 0\n"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	if _, err := Load(&Flags{ConfigPath: configPath}); err == nil {
		t.Error("expected validation error, got nil")
	}
}

func TestSaveToRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := Default()
	cfg.Focus.FadeOpacity = 0.4
	cfg.Focus.FramingDuration = time.Second
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}

	loaded := Default()
	if err := loadFromFile(loaded, path); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if loaded.Focus.FadeOpacity != 0.4 {
		t.Errorf("expected fade opacity 0.4, got %f", loaded.Focus.FadeOpacity)
	}
	if loaded.Focus.FramingDuration != time.Second {
		t.Errorf("expected framing duration 1s, got %v", loaded.Focus.FramingDuration)
	}
}
