package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.Equal(t, "https://query1.finance.yahoo.com", cfg.Yahoo.BaseURL)
	require.Equal(t, 30, cfg.Yahoo.TimeoutSec)
	require.Equal(t, "info", cfg.LogLevel)
	require.Zero(t, cfg.Yahoo.MaxRequestsPerMinute)
	require.Zero(t, cfg.Yahoo.MinRequestIntervalSec)
}

func TestLoad_MissingPathReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)
	require.Equal(t, Default().Yahoo.BaseURL, cfg.Yahoo.BaseURL)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"log_level": "debug",
		"yahoo": {"base_url": "http://localhost:9999", "timeout_sec": 5, "max_requests_per_minute": 30, "burst": 5}
	}`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "debug", cfg.LogLevel)
	require.Equal(t, "http://localhost:9999", cfg.Yahoo.BaseURL)
	require.Equal(t, 5, cfg.Yahoo.TimeoutSec)
	require.Equal(t, 30, cfg.Yahoo.MaxRequestsPerMinute)
	require.Equal(t, 5, cfg.Yahoo.Burst)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"yahoo": {"base_url": "http://file:1"}}`), 0o600))

	t.Setenv("YAHOO_BASE_URL", "http://env:2")
	t.Setenv("REQUEST_TIMEOUT_SEC", "7")
	t.Setenv("LOG_LEVEL", "WARN")
	t.Setenv("YAHOO_MIN_INTERVAL_SEC", "3")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "http://env:2", cfg.Yahoo.BaseURL)
	require.Equal(t, 7, cfg.Yahoo.TimeoutSec)
	require.Equal(t, "warn", cfg.LogLevel)
	require.Equal(t, 3, cfg.Yahoo.MinRequestIntervalSec)
}

func TestLoad_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{not json`), 0o600))

	_, err := Load(path)
	require.Error(t, err)
}
