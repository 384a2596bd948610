// Package config loads the slipstream server configuration.
//
// Configuration comes from a single YAML file named by the --config flag or
// the SLIPSTREAM_CONFIG environment variable. Without either, Default() is
// used as is. There is no automatic discovery. Unknown keys are rejected so
// that a typo fails loudly instead of silently falling back to a default.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvConfigPath names the environment variable holding the config file path.
const EnvConfigPath = "SLIPSTREAM_CONFIG"

// Config is the server configuration.
type Config struct {
	// Listen is the HTTP listen address.
	// Default: 0.0.0.0:3000
	Listen string `yaml:"listen"`

	// Database is the SQLite database path. Created if missing.
	// Default: slipstream.db
	Database string `yaml:"database"`

	// LogLevel is one of debug, info, warn, error.
	// Default: info
	LogLevel string `yaml:"log_level"`

	// ShutdownTimeout bounds graceful shutdown of in-flight requests.
	// Default: 10s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// ValidLogLevels lists the accepted log_level values.
var ValidLogLevels = []string{"debug", "info", "warn", "error"}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Listen:          "0.0.0.0:3000",
		Database:        "slipstream.db",
		LogLevel:        "info",
		ShutdownTimeout: 10 * time.Second,
	}
}

// Load resolves the config path from the argument or SLIPSTREAM_CONFIG and
// loads it. An empty path with no environment variable yields Default().
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}
	if path == "" {
		return Default(), nil
	}
	return LoadFile(path)
}

// LoadFile reads the YAML file at path over Default() and validates it.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	if err := cfg.decode(data); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) decode(data []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// Validate checks every field and reports all problems at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Listen == "" {
		errs = append(errs, fmt.Errorf("listen is required"))
	}
	if c.Database == "" {
		errs = append(errs, fmt.Errorf("database is required"))
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, fmt.Errorf("shutdown_timeout must be positive, got %s", c.ShutdownTimeout))
	}

	return errors.Join(errs...)
}

// SlogLevel returns the configured level. Call Validate first; an invalid
// level falls back to info.
func (c *Config) SlogLevel() slog.Level {
	level, err := ParseLogLevel(c.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return level
}

// ParseLogLevel converts a log_level value to a slog.Level.
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("log_level must be one of %v, got %q", ValidLogLevels, s)
	}
}
