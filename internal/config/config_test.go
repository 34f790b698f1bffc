package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "memory", cfg.Cache.Backend)
	assert.Equal(t, 20*time.Second, cfg.Cache.IndexTTL)
	assert.Equal(t, "local", cfg.Storage.Backend)
	assert.Equal(t, "./media", cfg.Storage.Local.BasePath)
	assert.Equal(t, "http://localhost:8080", cfg.Server.SiteURL)
	assert.Empty(t, cfg.OAuth.GoogleClientID)
}

func TestLoadEnvOverrides(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("PORT", "9090")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DATABASE_URL", "file:yatube.db")
	t.Setenv("CACHE_INDEX_TTL", "45s")
	t.Setenv("CACHE_BACKEND", "redis")
	t.Setenv("GOOGLE_CLIENT_ID", "client-id")
	t.Setenv("SITE_URL", "https://yatube.example")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "file:yatube.db", cfg.Database.DSN)
	assert.Equal(t, 45*time.Second, cfg.Cache.IndexTTL)
	assert.Equal(t, "redis", cfg.Cache.Backend)
	assert.Equal(t, "client-id", cfg.OAuth.GoogleClientID)
	assert.Equal(t, "https://yatube.example", cfg.Server.SiteURL)
}

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}
