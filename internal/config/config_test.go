package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `{
		"server": {"host": "127.0.0.1", "port": 8080},
		"database": {"path": "/tmp/intentcfg"}
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 5*time.Minute, cfg.LocalTTL())
	assert.Equal(t, 30*time.Minute, cfg.SharedTTL())
	assert.Equal(t, 1024, cfg.Cache.LocalSize)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadExplicitValues(t *testing.T) {
	path := writeConfig(t, `{
		"cache": {"local_ttl_seconds": 60, "shared_ttl_seconds": 600, "local_size": 16},
		"redis": {"addr": "localhost:6379", "db": 2},
		"sync": {"scopes": ["web:acme:eu:prod"]},
		"log_level": "debug"
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, time.Minute, cfg.LocalTTL())
	assert.Equal(t, 10*time.Minute, cfg.SharedTTL())
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 2, cfg.Redis.DB)
	assert.Equal(t, []string{"web:acme:eu:prod"}, cfg.Sync.Scopes)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestPathFollowsEnvironment(t *testing.T) {
	t.Setenv("INTENTCFG_ENV", "")
	assert.Equal(t, "config/config.development.json", Path())

	t.Setenv("INTENTCFG_ENV", "production")
	assert.Equal(t, "config/config.production.json", Path())
}
