// Package config provides configuration management for tessera.
//
// Config file locations (priority order):
//  1. $TESSERA_CONFIG
//  2. ./tessera.yaml
//  3. $XDG_CONFIG_HOME/tessera/config.yaml
//  4. ~/.config/tessera/config.yaml
//  5. /etc/tessera/config.yaml
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full tessera configuration.
type Config struct {
	Data    DatabaseConfig `yaml:"data"`
	Log     DatabaseConfig `yaml:"log"`
	Logging LoggingConfig  `yaml:"logging"`
}

// DatabaseConfig describes one logical SQLite database.
type DatabaseConfig struct {
	Path        string    `yaml:"path"`
	BusyTimeout *Duration `yaml:"busy_timeout,omitempty"`
}

// LoggingConfig controls process logging.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load finds and loads the config file, or returns defaults if none found
func Load() (*Config, string, error) {
	path := FindConfigPath()

	if path == "" {
		return DefaultConfig(), "", nil
	}

	return LoadFromPath(path)
}

// LoadFromPath loads config from a specific path
func LoadFromPath(path string) (*Config, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, path, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, path, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()

	return &cfg, path, nil
}

// DefaultConfig returns sensible defaults for a new installation
func DefaultConfig() *Config {
	cfg := &Config{
		Data:    DatabaseConfig{Path: "./data.db"},
		Log:     DatabaseConfig{Path: "./log.db"},
		Logging: LoggingConfig{Level: "info"},
	}
	return cfg
}

// applyDefaults fills in missing values with defaults
func (c *Config) applyDefaults() {
	if c.Data.Path == "" {
		c.Data.Path = "./data.db"
	}
	if c.Log.Path == "" {
		c.Log.Path = "./log.db"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

// EffectiveBusyTimeout returns the configured busy timeout, or zero to
// let the store apply its own default.
func (d DatabaseConfig) EffectiveBusyTimeout() time.Duration {
	if d.BusyTimeout == nil {
		return 0
	}
	return d.BusyTimeout.Duration()
}

// Duration wraps time.Duration for YAML unmarshaling
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Duration returns the underlying time.Duration
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}
