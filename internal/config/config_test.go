package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "0.0.0.0:8080", cfg.Addr())
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Equal(t, int64(32), cfg.Pool.Fast)
	assert.Equal(t, int64(2), cfg.Pool.Slow)
	assert.Equal(t, 1, cfg.Engine.DefaultPly)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("BGEVAL_PORT", "9999")
	t.Setenv("BGEVAL_LOG_LEVEL", "debug")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 9999, cfg.Port)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := "port: 8181\nengine:\n  default_ply: 2\npool:\n  fast: 8\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8181, cfg.Port)
	assert.Equal(t, 2, cfg.Engine.DefaultPly)
	assert.Equal(t, int64(8), cfg.Pool.Fast)
	// untouched keys keep their defaults
	assert.Equal(t, int64(2), cfg.Pool.Slow)
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("BGEVAL_PORT", "70000")
	_, err := Load("")
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	assert.Error(t, err)
}
