package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/fintrack")
	t.Setenv("PORT", "")
	t.Setenv("DEMO_MODE", "false")
	t.Setenv("CACHE_MAX_COST", "10000")
	t.Setenv("ALLOWED_ORIGINS", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres://localhost/fintrack", cfg.DatabaseURL)
	assert.Equal(t, int64(10000), cfg.CacheMaxCost)
	assert.False(t, cfg.DemoMode)
	assert.Equal(t, defaultOrigins, cfg.AllowedOrigins)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DEMO_MODE", "true")
	t.Setenv("CACHE_MAX_COST", "500")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example ,")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.True(t, cfg.DemoMode)
	assert.Equal(t, int64(500), cfg.CacheMaxCost)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("DEMO_MODE", "sometimes")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("DEMO_MODE", "false")
	t.Setenv("CACHE_MAX_COST", "0")
	_, err = Load()
	assert.Error(t, err)
}

func TestValidateServer(t *testing.T) {
	cfg := Config{}
	assert.Error(t, cfg.ValidateDatabase())

	cfg.DatabaseURL = "postgres://localhost/fintrack"
	require.NoError(t, cfg.ValidateDatabase())
	assert.Error(t, cfg.ValidateServer())

	cfg.JWTSecret = "secret"
	require.NoError(t, cfg.ValidateServer())

	cfg.PlaidClientID, cfg.PlaidSecret, cfg.PlaidEnv = "id", "secret", "staging"
	assert.True(t, cfg.PlaidEnabled())
	assert.Error(t, cfg.ValidateServer())
}
