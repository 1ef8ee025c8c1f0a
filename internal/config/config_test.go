package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gosdt/internal"
	"gosdt/internal/errors"
)

var configKeys = []string{
	"DATABASE_URL", "DB_CONNECT_TIMEOUT", "PORT", "UI_PORT", "GIN_MODE", "SHUTDOWN_TIMEOUT",
	"WORKERS", "DENSITY_POINTS", "DENSITY_SPAN", "EXPORT_DIR", "LOG_LEVEL",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range configKeys {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.False(t, cfg.Database.Enabled())
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "8081", cfg.Server.UIPort)
	assert.Equal(t, "release", cfg.Server.GinMode)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, 4, cfg.Analysis.Workers)
	assert.Equal(t, 201, cfg.Analysis.DensityPoints)
	assert.Equal(t, 4.0, cfg.Analysis.DensitySpan)
	assert.Equal(t, "./exports", cfg.Export.Dir)
	assert.Equal(t, internal.LogLevelInfo, cfg.LogLevel)
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "postgres://localhost/sdt?sslmode=disable")
	t.Setenv("PORT", "9000")
	t.Setenv("GIN_MODE", "debug")
	t.Setenv("WORKERS", "16")
	t.Setenv("DENSITY_SPAN", "2.5")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.Database.Enabled())
	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Server.GinMode)
	assert.Equal(t, 16, cfg.Analysis.Workers)
	assert.Equal(t, 2.5, cfg.Analysis.DensitySpan)
	assert.Equal(t, internal.LogLevelDebug, cfg.LogLevel)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"WORKERS", "0"},
		{"DENSITY_POINTS", "1"},
		{"DENSITY_POINTS", "1000000000"},
		{"DENSITY_SPAN", "-1"},
		{"GIN_MODE", "verbose"},
		{"UI_PORT", "8080"},
		{"LOG_LEVEL", "loud"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			require.Error(t, err)
			assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
		})
	}
}
