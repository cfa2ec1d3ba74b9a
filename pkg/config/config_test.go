package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndLoadRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "summitgo.yaml")

	require.NoError(t, GenerateDefault(path))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:8177", cfg.Server.Addr)
	assert.Equal(t, "https://api.summitlog.app", cfg.API.BaseURL)
	assert.Equal(t, 15*time.Second, cfg.Sync.ProbeInterval.Std())
	assert.Equal(t, 24*time.Hour, cfg.Cache.TTL.Std())
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default().DB.Path, cfg.DB.Path)
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sync:\n  probe_interval: 5s\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 5*time.Second, cfg.Sync.ProbeInterval.Std())
	assert.Equal(t, Default().Server.Addr, cfg.Server.Addr, "untouched sections keep defaults")
}

func TestEnvOverridesToken(t *testing.T) {
	t.Setenv("SUMMITGO_API_TOKEN", "secret-token")
	t.Setenv("SUMMITGO_API_BASE_URL", "http://localhost:9000")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "secret-token", cfg.API.Token)
	assert.Equal(t, "http://localhost:9000", cfg.API.BaseURL)
}

func TestDurationParseErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sync:\n  probe_interval: soon\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}
