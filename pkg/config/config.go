// Package config loads the console server configuration from a YAML file.
//
// A missing file is not an error: every field has a usable default so the
// console runs with no configuration at all.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/stonebell/issuegraph/pkg/layout"
)

// Defaults applied for absent fields.
const (
	DefaultPort         = 3939
	DefaultDatabaseFile = "issuegraph.db"
	DefaultGitHubAPI    = "https://api.github.com"
)

// Config is the console server configuration.
type Config struct {
	// Port the console HTTP server listens on.
	Port int `yaml:"port"`

	// DatabasePath is the SQLite file backing the position cache.
	DatabasePath string `yaml:"database_path"`

	// GitHubAPI is the upstream API base for the pass-through proxy.
	GitHubAPI string `yaml:"github_api"`

	// DebounceMillis is the coalescing window for position writes.
	DebounceMillis int `yaml:"debounce_millis"`

	Layout LayoutConfig `yaml:"layout"`
}

// LayoutConfig tunes the layered layout.
type LayoutConfig struct {
	// Direction is "vertical" or "horizontal".
	Direction string `yaml:"direction"`

	NodeSpacing  float64 `yaml:"node_spacing"`
	LayerSpacing float64 `yaml:"layer_spacing"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Port:           DefaultPort,
		DatabasePath:   defaultDatabasePath(),
		GitHubAPI:      DefaultGitHubAPI,
		DebounceMillis: 500,
		Layout: LayoutConfig{
			Direction:    string(layout.Vertical),
			NodeSpacing:  layout.DefaultNodeSpacing,
			LayerSpacing: layout.DefaultLayerSpacing,
		},
	}
}

func defaultDatabasePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return DefaultDatabaseFile
	}
	return filepath.Join(home, ".issuegraph", DefaultDatabaseFile)
}

// Load reads the config at path, filling absent fields with defaults. A
// missing file returns Default() with no error; a malformed file is an
// error.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// applyDefaults fills zero values left by a partial file.
func (c *Config) applyDefaults() {
	def := Default()
	if c.Port == 0 {
		c.Port = def.Port
	}
	if c.DatabasePath == "" {
		c.DatabasePath = def.DatabasePath
	}
	if c.GitHubAPI == "" {
		c.GitHubAPI = def.GitHubAPI
	}
	if c.DebounceMillis == 0 {
		c.DebounceMillis = def.DebounceMillis
	}
	if c.Layout.Direction == "" {
		c.Layout.Direction = def.Layout.Direction
	}
	if c.Layout.NodeSpacing == 0 {
		c.Layout.NodeSpacing = def.Layout.NodeSpacing
	}
	if c.Layout.LayerSpacing == 0 {
		c.Layout.LayerSpacing = def.Layout.LayerSpacing
	}
}

// Validate checks field ranges.
func (c Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	switch layout.Direction(c.Layout.Direction) {
	case layout.Vertical, layout.Horizontal:
	default:
		return fmt.Errorf("unknown layout direction %q", c.Layout.Direction)
	}
	if c.Layout.NodeSpacing < 0 || c.Layout.LayerSpacing < 0 {
		return fmt.Errorf("layout spacing must be non-negative")
	}
	return nil
}

// DebounceWait returns the position-write coalescing window as a Duration.
func (c Config) DebounceWait() time.Duration {
	return time.Duration(c.DebounceMillis) * time.Millisecond
}

// Direction returns the configured layout direction.
func (c Config) Direction() layout.Direction {
	return layout.Direction(c.Layout.Direction)
}
