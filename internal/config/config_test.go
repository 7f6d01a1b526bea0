package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	got, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), got)
}

func TestLoadOverlaysOnlyGivenKeys(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wingline.yml")
	require.NoError(t, os.WriteFile(path, []byte("cache_dir: /var/wingline/cache\nlog_level: debug\n"), 0o644))

	got, err := Load(path)
	require.NoError(t, err)

	want := Default()
	want.CacheDir = "/var/wingline/cache"
	want.LogLevel = "debug"
	assert.Equal(t, want, got)
}

func TestApplyEnvOverridesOnlySetVariables(t *testing.T) {
	t.Setenv(EnvCacheDir, "/tmp/override-cache")

	got := ApplyEnv(Default())
	assert.Equal(t, "/tmp/override-cache", got.CacheDir)
	assert.Equal(t, Default().LogLevel, got.LogLevel)
}
