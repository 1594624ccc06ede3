package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		t.Setenv("ENVIRONMENT", "")
		t.Setenv("JWT_SECRET", "")
		t.Setenv("TOKEN_CARRIER", "")
		t.Setenv("TOKEN_TTL", "")
		t.Setenv("COOKIE_SECURE", "")

		cfg, err := FromEnv()
		require.NoError(t, err)

		assert.Equal(t, ":8080", cfg.Addr)
		assert.Equal(t, CarrierBearer, cfg.Carrier)
		assert.Equal(t, 30*24*time.Hour, cfg.TokenTTL)
		assert.Equal(t, 10, cfg.BcryptCost)
		assert.Equal(t, devSigningKey, cfg.JWTSecret)
		assert.False(t, cfg.CookieSecure)
		assert.False(t, cfg.Google.Enabled())
	})

	t.Run("overrides", func(t *testing.T) {
		t.Setenv("ENVIRONMENT", "dev")
		t.Setenv("JWT_SECRET", "s3cret")
		t.Setenv("TOKEN_CARRIER", "cookie")
		t.Setenv("TOKEN_TTL", "1h")
		t.Setenv("GOOGLE_CLIENT_ID", "id")
		t.Setenv("GOOGLE_CLIENT_SECRET", "secret")
		t.Setenv("GOOGLE_REDIRECT_URL", "http://localhost/api/signin/google/reroute")

		cfg, err := FromEnv()
		require.NoError(t, err)

		assert.Equal(t, CarrierCookie, cfg.Carrier)
		assert.Equal(t, time.Hour, cfg.TokenTTL)
		assert.Equal(t, "s3cret", cfg.JWTSecret)
		assert.True(t, cfg.CookieSecure)
		assert.True(t, cfg.Google.Enabled())
	})

	t.Run("production requires a secret", func(t *testing.T) {
		t.Setenv("ENVIRONMENT", "production")
		t.Setenv("JWT_SECRET", "")

		_, err := FromEnv()
		assert.ErrorContains(t, err, "JWT_SECRET")
	})

	t.Run("rejects unknown carrier", func(t *testing.T) {
		t.Setenv("TOKEN_CARRIER", "header")

		_, err := FromEnv()
		assert.ErrorContains(t, err, "TOKEN_CARRIER")
	})

	t.Run("rejects bad duration", func(t *testing.T) {
		t.Setenv("TOKEN_CARRIER", "")
		t.Setenv("TOKEN_TTL", "forever")

		_, err := FromEnv()
		assert.ErrorContains(t, err, "TOKEN_TTL")
	})
}
