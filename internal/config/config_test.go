package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "slipstream.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "0.0.0.0:3000", cfg.Listen)
	assert.Equal(t, "slipstream.db", cfg.Database)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
listen: 127.0.0.1:8080
database: /var/lib/slipstream/layout.db
log_level: debug
shutdown_timeout: 3s
`)

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:8080", cfg.Listen)
	assert.Equal(t, "/var/lib/slipstream/layout.db", cfg.Database)
	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())
	assert.Equal(t, 3*time.Second, cfg.ShutdownTimeout)
}

func TestLoadFile_PartialKeepsDefaults(t *testing.T) {
	path := writeConfig(t, "database: other.db\n")

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "other.db", cfg.Database)
	assert.Equal(t, "0.0.0.0:3000", cfg.Listen)
}

func TestLoadFile_Empty(t *testing.T) {
	cfg, err := LoadFile(writeConfig(t, ""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFile_UnknownKey(t *testing.T) {
	_, err := LoadFile(writeConfig(t, "listne: \"127.0.0.1:3000\"\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "listne")
}

func TestLoadFile_Invalid(t *testing.T) {
	_, err := LoadFile(writeConfig(t, `
listen: ""
log_level: loud
shutdown_timeout: 0s
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "listen is required")
	assert.Contains(t, err.Error(), "log_level")
	assert.Contains(t, err.Error(), "shutdown_timeout")
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoad_EnvironmentVariable(t *testing.T) {
	path := writeConfig(t, "listen: 127.0.0.1:9999\n")
	t.Setenv(EnvConfigPath, path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9999", cfg.Listen)
}

func TestLoad_ExplicitPathWins(t *testing.T) {
	t.Setenv(EnvConfigPath, writeConfig(t, "listen: 127.0.0.1:1111\n"))
	explicit := writeConfig(t, "listen: 127.0.0.1:2222\n")

	cfg, err := Load(explicit)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:2222", cfg.Listen)
}

func TestLoad_NoPathUsesDefault(t *testing.T) {
	t.Setenv(EnvConfigPath, "")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestParseLogLevel(t *testing.T) {
	level, err := ParseLogLevel("WARN")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, level)

	_, err = ParseLogLevel("trace")
	assert.Error(t, err)
}
