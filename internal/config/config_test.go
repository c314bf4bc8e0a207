package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jugglerbayes/internal/errors"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"UI_PORT", "API_PORT", "GIN_MODE", "CATALOG_FILE", "CATALOG_BUILTIN", "SWEEP_MAX_POINTS", "SWEEP_WORKERS", "MAX_TRIALS", "LOG_LEVEL"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Server.UIPort)
	assert.Equal(t, "8081", cfg.Server.APIPort)
	assert.Equal(t, "release", cfg.Server.GinMode)
	assert.Equal(t, "", cfg.Catalog.File)
	assert.Equal(t, "myjuggler5", cfg.Catalog.Builtin)
	assert.Equal(t, 2000, cfg.Sweep.MaxPoints)
	assert.Equal(t, 8, cfg.Sweep.Workers)
	assert.Equal(t, 100000, cfg.Limits.MaxTrials)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("UI_PORT", "9000")
	t.Setenv("CATALOG_FILE", "tables/custom.yaml")
	t.Setenv("SWEEP_WORKERS", "2")
	t.Setenv("MAX_TRIALS", "20000")
	t.Setenv("LOG_LEVEL", "DEBUG")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9000", cfg.Server.UIPort)
	assert.Equal(t, "tables/custom.yaml", cfg.Catalog.File)
	assert.Equal(t, 2, cfg.Sweep.Workers)
	assert.Equal(t, 20000, cfg.Limits.MaxTrials)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"UI_PORT", "eighty"},
		{"GIN_MODE", "verbose"},
		{"SWEEP_WORKERS", "-1"},
		{"MAX_TRIALS", "0"},
		{"MAX_TRIALS", "-100"},
		{"LOG_LEVEL", "chatty"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			require.Error(t, err)
			assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
		})
	}
}

func TestGetEnvIntFallsBackOnGarbage(t *testing.T) {
	t.Setenv("SWEEP_MAX_POINTS", "lots")
	assert.Equal(t, 2000, getEnvIntOrDefault("SWEEP_MAX_POINTS", 2000))
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("JUGGLER_DOTENV_CHECK=loaded\n"), 0o600))
	t.Setenv("JUGGLER_DOTENV_CHECK", "")
	os.Unsetenv("JUGGLER_DOTENV_CHECK")

	LoadDotEnv(path)
	assert.Equal(t, "loaded", os.Getenv("JUGGLER_DOTENV_CHECK"))

	// a missing file is not fatal
	LoadDotEnv(filepath.Join(dir, "missing.env"))
}
