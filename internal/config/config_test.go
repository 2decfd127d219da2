package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "development", cfg.Server.Env)
	assert.Equal(t, DefaultPageSize, cfg.Content.PageSize)
	assert.Equal(t, 12, DefaultPageSize)
	assert.Equal(t, 5*time.Minute, cfg.Content.HomeCacheTTL)
	assert.Equal(t, "firmlens", cfg.JWT.Issuer)
	assert.Equal(t, 15*time.Minute, cfg.JWT.AccessTokenExpiry)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("API_PORT", "9000")
	t.Setenv("PAGE_SIZE", "24")
	t.Setenv("HOME_CACHE_TTL", "30s")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, 24, cfg.Content.PageSize)
	assert.Equal(t, 30*time.Second, cfg.Content.HomeCacheTTL)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestValidate_ProductionRequiresSecret(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")

	t.Setenv("JWT_SECRET", "a-production-secret-of-decent-size")
	_, err = Load()
	assert.NoError(t, err)
}

func TestValidate_PageSizeBounds(t *testing.T) {
	for _, bad := range []string{"0", "101", "-5"} {
		t.Setenv("PAGE_SIZE", bad)
		_, err := Load()
		assert.Error(t, err, "PAGE_SIZE=%s should be rejected", bad)
	}

	t.Setenv("PAGE_SIZE", "100")
	_, err := Load()
	assert.NoError(t, err)
}

func TestGetEnvDuration_Malformed(t *testing.T) {
	t.Setenv("HOME_CACHE_TTL", "not-a-duration")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 5*time.Minute, cfg.Content.HomeCacheTTL)
}
