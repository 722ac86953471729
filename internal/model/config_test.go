package model

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "gpt-3.5-turbo", cfg.AI.OpenAIModel)
	assert.Equal(t, "sonar-pro", cfg.AI.PerplexityModel)
	assert.Equal(t, "KAIZEN_JWT_SECRET", cfg.Auth.JWTSecretEnv)
	assert.False(t, cfg.Ordering.VersionCheck)
	assert.True(t, cfg.Ordering.AtomicBatches)
}

func TestLoadConfig_FileAndEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("database:\n  driver: postgres\n  dsn: postgres://localhost/kaizen\nordering:\n  version_check: true\n"), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.True(t, cfg.Ordering.VersionCheck)

	t.Setenv("KAIZEN_DATABASE_DRIVER", "mysql")
	cfg, err = LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "mysql", cfg.Database.Driver)
}

func TestLoadConfig_RejectsUnknownDriver(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("database:\n  driver: oracle\n"), 0o644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")
	cfg := defaultAppConfig()
	cfg.AI.MaxTokens = 321

	require.NoError(t, SaveConfig(path, cfg))
	got, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 321, got.AI.MaxTokens)
}
