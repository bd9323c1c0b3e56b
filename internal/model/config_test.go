package model

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:5000", cfg.API.BaseURL)
	assert.Equal(t, 30, cfg.Poll.IntervalSec)
	assert.Equal(t, 5, cfg.Poll.InitialDelaySec)
	assert.Equal(t, 0, cfg.API.TimeoutSec)
	assert.False(t, cfg.Log.Debug)
}

func TestLoadConfigReadsYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `api:
  base_url: https://crm.example.com/
  timeout_sec: 15
poll:
  interval_sec: 10
log:
  debug: true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "https://crm.example.com", cfg.API.BaseURL)
	assert.Equal(t, 15, cfg.API.TimeoutSec)
	assert.Equal(t, 10, cfg.Poll.IntervalSec)
	assert.Equal(t, 5, cfg.Poll.InitialDelaySec)
	assert.True(t, cfg.Log.Debug)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("CRMDASH_API_BASE_URL", "http://10.0.0.2:5000")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "http://10.0.0.2:5000", cfg.API.BaseURL)
}

func TestLoadConfigRejectsNonPositiveInterval(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("poll:\n  interval_sec: 0\n"), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 30, cfg.Poll.IntervalSec)
}

func TestSaveConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := defaultAppConfig()
	cfg.API.BaseURL = "https://crm.internal"
	cfg.Poll.IntervalSec = 45
	require.NoError(t, SaveConfig(path, cfg))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "https://crm.internal", loaded.API.BaseURL)
	assert.Equal(t, 45, loaded.Poll.IntervalSec)
}
