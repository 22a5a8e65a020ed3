package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var komodoEnvVars = []string{
	"KOMODO_CONFIG_PATH", "KOMODO_TITLE", "KOMODO_HOST", "KOMODO_PORT",
	"KOMODO_PASSKEY", "KOMODO_JWT_VALID_FOR", "KOMODO_MONITORING_INTERVAL",
	"KOMODO_KEEP_STATS_FOR_DAYS", "KOMODO_KEEP_ALERTS_FOR_DAYS",
	"KOMODO_GITHUB_WEBHOOK_SECRET", "KOMODO_GITHUB_WEBHOOK_BASE_URL",
	"KOMODO_TRANSPARENT_MODE", "KOMODO_LOCAL_AUTH",
	"KOMODO_MONGO_URI", "KOMODO_MONGO_DATABASE",
	"KOMODO_AWS_ACCESS_KEY_ID", "KOMODO_AWS_SECRET_ACCESS_KEY", "KOMODO_AWS_REGION",
	"KOMODO_HETZNER_TOKEN", "KOMODO_LOGGING_LEVEL", "KOMODO_LOGGING_PRETTY",
}

// clearKomodoEnv resets every KOMODO_* var via t.Setenv("", "")-then-Unsetenv
// so t's cleanup restores whatever the test process originally had.
func clearKomodoEnv(t *testing.T) {
	t.Helper()
	for _, name := range komodoEnvVars {
		t.Setenv(name, "")
		os.Unsetenv(name)
	}
}

func TestLoadAppliesDefaultsWithNoFileOrEnv(t *testing.T) {
	clearKomodoEnv(t)
	t.Setenv("KOMODO_PASSKEY", "secret")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "Komodo", cfg.Title)
	assert.Equal(t, 9120, cfg.Port)
	assert.Equal(t, 24*time.Hour, cfg.JWTValidFor)
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	clearKomodoEnv(t)
	t.Setenv("KOMODO_PASSKEY", "secret")

	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
title = "MyKomodo"
port = 8080
`), 0o644))
	t.Setenv("KOMODO_CONFIG_PATH", path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "MyKomodo", cfg.Title)
	assert.Equal(t, 8080, cfg.Port)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	clearKomodoEnv(t)
	t.Setenv("KOMODO_PASSKEY", "secret")

	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`port = 8080`), 0o644))
	t.Setenv("KOMODO_CONFIG_PATH", path)
	t.Setenv("KOMODO_PORT", "9999")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 9999, cfg.Port)
}

func TestLoadRejectsMissingPasskeyWithoutLocalAuth(t *testing.T) {
	clearKomodoEnv(t)

	_, err := Load("")
	assert.Error(t, err)
}

func TestLoadAllowsMissingPasskeyWithLocalAuth(t *testing.T) {
	clearKomodoEnv(t)
	t.Setenv("KOMODO_LOCAL_AUTH", "true")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.True(t, cfg.LocalAuth)
}

func TestLoadRejectsInvalidPort(t *testing.T) {
	clearKomodoEnv(t)
	t.Setenv("KOMODO_PASSKEY", "secret")
	t.Setenv("KOMODO_PORT", "99999")

	_, err := Load("")
	assert.Error(t, err)
}

func TestEnvDurationAcceptsBareSecondsAndDurationStrings(t *testing.T) {
	clearKomodoEnv(t)
	t.Setenv("KOMODO_MONITORING_INTERVAL", "30")
	d, err := envDuration("KOMODO_MONITORING_INTERVAL")
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, d)

	t.Setenv("KOMODO_MONITORING_INTERVAL", "1m")
	d, err = envDuration("KOMODO_MONITORING_INTERVAL")
	require.NoError(t, err)
	assert.Equal(t, time.Minute, d)
}
