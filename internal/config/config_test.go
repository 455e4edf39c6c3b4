package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "wdctl.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, "http://127.0.0.1:4444/wd/hub", cfg.HubURL)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, time.Hour, cfg.SessionTTL)
}

func TestLoadFile(t *testing.T) {
	path := writeFile(t, `
hub_url: http://grid:4444/wd/hub
browser: chrome
redis_addr: redis:6379
redis_db: 2
session_ttl: 30m
timeout: 5s
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://grid:4444/wd/hub", cfg.HubURL)
	assert.Equal(t, "chrome", cfg.Browser)
	assert.Equal(t, "redis:6379", cfg.RedisAddr)
	assert.Equal(t, 2, cfg.RedisDB)
	assert.Equal(t, 30*time.Minute, cfg.SessionTTL)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
}

func TestEnvironmentWins(t *testing.T) {
	path := writeFile(t, "hub_url: http://grid:4444/wd/hub\n")
	t.Setenv("WDCTL_HUB_URL", "http://env:4444/wd/hub")
	t.Setenv("WDCTL_REDIS_DB", "3")
	t.Setenv("WDCTL_SESSION_TTL", "10m")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://env:4444/wd/hub", cfg.HubURL)
	assert.Equal(t, 3, cfg.RedisDB)
	assert.Equal(t, 10*time.Minute, cfg.SessionTTL)
}

func TestBadEnvironmentKeepsDefault(t *testing.T) {
	t.Setenv("WDCTL_REDIS_DB", "two")
	t.Setenv("WDCTL_SESSION_TTL", "forever")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.RedisDB)
	assert.Equal(t, time.Hour, cfg.SessionTTL)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "hub_url: [unclosed\n"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "session_ttl: -1m\n"))
	assert.Error(t, err)
}
