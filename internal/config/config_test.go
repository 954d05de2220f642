package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ragline.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "ragline", cfg.Server.Name)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, ".ragline", cfg.DataDir)
	require.Len(t, cfg.Destinations, 1)
	assert.Equal(t, "sqlite", cfg.Destinations[0].Type)
	assert.True(t, cfg.Destinations[0].Enabled)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  name: myserver
log_level: debug
data_dir: /var/lib/ragline
destinations:
  - type: redis
    enabled: true
    settings:
      addr: localhost:6379
      prefix: myapp
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "myserver", cfg.Server.Name)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "/var/lib/ragline", cfg.DataDir)
	require.Len(t, cfg.Destinations, 1)
	assert.Equal(t, "redis", cfg.Destinations[0].Type)
	assert.Equal(t, "localhost:6379", cfg.Destinations[0].Settings["addr"])
}

func TestLoadPartialFileKeepsRemainingDefaults(t *testing.T) {
	path := writeConfig(t, "log_level: warn\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, "ragline", cfg.Server.Name)
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	path := writeConfig(t, "log_levle: debug\n")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config: parse")
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := writeConfig(t, "server: [unclosed\n")

	_, err := Load(path)
	assert.Error(t, err)
}
