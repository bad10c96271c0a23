package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	// Neutralize ambient environment so defaults are actually exercised.
	for _, key := range []string{"SERVICE_NAME", "ENV", "PORT", "LOG_LEVEL", "DATABASE_URL", "SESSION_LIFETIME"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, "auth-service", cfg.Service.Name)
	assert.Equal(t, "8080", cfg.Service.Port)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 30*24*time.Hour, cfg.Auth.SessionLifetime)
	assert.False(t, cfg.UsePostgres())
	assert.False(t, cfg.IsProduction())
	require.NoError(t, cfg.Validate())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("PORT", "9090")
	t.Setenv("DATABASE_URL", "postgres://localhost/auth")
	t.Setenv("SESSION_LIFETIME", "24h")
	t.Setenv("TRACING_ENABLED", "true")
	t.Setenv("TRACING_SAMPLE_RATE", "0.25")

	cfg := Load()

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "9090", cfg.Service.Port)
	assert.True(t, cfg.UsePostgres())
	assert.Equal(t, 24*time.Hour, cfg.Auth.SessionLifetime)
	assert.True(t, cfg.Tracing.Enabled)
	assert.Equal(t, 0.25, cfg.Tracing.SampleRate)
	require.NoError(t, cfg.Validate())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(cfg *Config)
		wantErr string
	}{
		{
			name:    "empty port",
			mutate:  func(cfg *Config) { cfg.Service.Port = "" },
			wantErr: "PORT",
		},
		{
			name:    "non-numeric port",
			mutate:  func(cfg *Config) { cfg.Service.Port = "http" },
			wantErr: "PORT",
		},
		{
			name:    "non-positive session lifetime",
			mutate:  func(cfg *Config) { cfg.Auth.SessionLifetime = 0 },
			wantErr: "SESSION_LIFETIME",
		},
		{
			name:    "sample rate out of range",
			mutate:  func(cfg *Config) { cfg.Tracing.SampleRate = 1.5 },
			wantErr: "TRACING_SAMPLE_RATE",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Load()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_IgnoresMalformedValues(t *testing.T) {
	t.Setenv("BCRYPT_COST", "not-a-number")
	t.Setenv("SESSION_LIFETIME", "soon")
	t.Setenv("TRACING_ENABLED", "maybe")

	cfg := Load()

	assert.Equal(t, 10, cfg.Auth.BcryptCost)
	assert.Equal(t, 30*24*time.Hour, cfg.Auth.SessionLifetime)
	assert.False(t, cfg.Tracing.Enabled)
}
