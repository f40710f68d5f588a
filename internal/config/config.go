package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/marcelocantos/boxlog/internal/entry"
)

// Config holds the global boxlog configuration.
type Config struct {
	App     AppConfig     `yaml:"app"`
	Log     LogConfig     `yaml:"log"`
	Table   TableConfig   `yaml:"table"`
	Console ConsoleConfig `yaml:"console"`
	Session SessionConfig `yaml:"session"`
}

// AppConfig describes the program writing logs.
type AppConfig struct {
	Version string   `yaml:"version"`
	Label   string   `yaml:"label"`
	Source  string   `yaml:"source"`
	Params  []string `yaml:"params"` // extra session header lines
}

// LogConfig controls the encoded record file.
type LogConfig struct {
	Path string `yaml:"path"`
	// Key encrypts every line when set. BOXLOG_KEY overrides it.
	Key string `yaml:"key"`
}

// TableConfig controls the human-readable table file. An empty path
// disables it.
type TableConfig struct {
	Path string `yaml:"path"`
}

// ConsoleConfig controls console output.
type ConsoleConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Color    string `yaml:"color"` // auto, always or never
	MinLevel string `yaml:"min_level"`
}

// SessionConfig controls the persistent session counter.
type SessionConfig struct {
	StatePath string `yaml:"state_path"`
}

// ColorMode returns nil for auto-detection, or the forced setting.
func (c *ConsoleConfig) ColorMode() (*bool, error) {
	switch strings.ToLower(c.Color) {
	case "", "auto":
		return nil, nil
	case "always":
		on := true
		return &on, nil
	case "never":
		off := false
		return &off, nil
	}
	return nil, fmt.Errorf("console.color: unknown mode %q", c.Color)
}

// Level parses MinLevel; empty means trace.
func (c *ConsoleConfig) Level() (entry.Level, error) {
	if c.MinLevel == "" {
		return entry.Trace, nil
	}
	l, err := entry.ParseLevel(c.MinLevel)
	if err != nil {
		return 0, fmt.Errorf("console.min_level: %w", err)
	}
	return l, nil
}

// AppVersion parses App.Version; empty means 0.0.0.
func (c *Config) AppVersion() (entry.Version, error) {
	if c.App.Version == "" {
		return entry.Version{}, nil
	}
	v, err := entry.ParseVersion(c.App.Version)
	if err != nil {
		return entry.Version{}, fmt.Errorf("app.version: %w", err)
	}
	return v, nil
}

// Validate checks the fields that are parsed lazily.
func (c *Config) Validate() error {
	if _, err := c.Console.ColorMode(); err != nil {
		return err
	}
	if _, err := c.Console.Level(); err != nil {
		return err
	}
	if _, err := c.AppVersion(); err != nil {
		return err
	}
	if c.Log.Path == "" {
		return fmt.Errorf("log.path: must not be empty")
	}
	return nil
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()
	share := filepath.Join(home, ".local", "share", "boxlog")
	return &Config{
		App: AppConfig{
			Version: "0.1.0",
			Label:   "app",
			Source:  "boxlog",
		},
		Log: LogConfig{
			Path: filepath.Join(share, "app.log"),
		},
		Table: TableConfig{
			Path: filepath.Join(share, "app.table.log"),
		},
		Console: ConsoleConfig{
			Enabled: true,
			Color:   "auto",
		},
		Session: SessionConfig{
			StatePath: filepath.Join(share, "session.yaml"),
		},
	}
}

// Load reads the config from the standard location (~/.config/boxlog/config.yaml).
// If the file doesn't exist, returns the default config.
func Load() (*Config, error) {
	if _, err := os.UserHomeDir(); err != nil {
		return DefaultConfig(), nil
	}
	return LoadFrom(ConfigPath())
}

// LoadFrom reads the config from the given path.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	for _, p := range []*string{&cfg.Log.Path, &cfg.Table.Path, &cfg.Session.StatePath} {
		*p = expandHome(*p)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func expandHome(path string) string {
	if path == "" || path[0] != '~' {
		return path
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, path[1:])
}

// ConfigPath returns the standard config file path.
func ConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "boxlog", "config.yaml")
}
