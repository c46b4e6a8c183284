package config

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("AUTH_TOKEN_SECRET", "s3cr3t")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "example_system", cfg.Auth.TokenIssuer)
	assert.Equal(t, 8*time.Hour, cfg.Auth.TokenTTL())
	assert.Equal(t, 15*time.Minute, cfg.Auth.LoginWindow())
	assert.Equal(t, 5, cfg.Auth.LoginMaxAttempts)
	assert.Equal(t, []byte("s3cr3t"), cfg.Auth.SecretBytes())
	assert.Equal(t, 30*time.Second, cfg.App.RequestTimeout())
	assert.True(t, cfg.Audit.Enabled)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("AUTH_TOKEN_SECRET", "s3cr3t")
	t.Setenv("AUTH_TOKEN_ISSUER", "idp.test")
	t.Setenv("AUTH_TOKEN_TTL_MINUTES", "60")
	t.Setenv("APP_HOST", "0.0.0.0")
	t.Setenv("APP_PORT", "9090")
	t.Setenv("HTTP_REQUEST_TIMEOUT_SECONDS", "0")
	t.Setenv("AUDIT_ENABLED", "false")
	t.Setenv("POSTGRES_MAX_CONNS", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "idp.test", cfg.Auth.TokenIssuer)
	assert.Equal(t, time.Hour, cfg.Auth.TokenTTL())
	assert.Equal(t, "0.0.0.0:9090", cfg.App.Addr())
	assert.Equal(t, time.Duration(0), cfg.App.RequestTimeout())
	assert.False(t, cfg.Audit.Enabled)
	assert.Equal(t, int32(10), cfg.Postgres.MaxConns)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing secret", func(t *testing.T) {
		t.Setenv("AUTH_TOKEN_SECRET", "")
		_, err := Load()
		assert.ErrorContains(t, err, "AUTH_TOKEN_SECRET")
	})

	t.Run("invalid redis db", func(t *testing.T) {
		t.Setenv("AUTH_TOKEN_SECRET", "s3cr3t")
		t.Setenv("REDIS_DB", "x")
		_, err := Load()
		assert.ErrorContains(t, err, "REDIS_DB")
	})

	t.Run("non-positive ttl", func(t *testing.T) {
		t.Setenv("AUTH_TOKEN_SECRET", "s3cr3t")
		t.Setenv("AUTH_TOKEN_TTL_MINUTES", "-1")
		_, err := Load()
		assert.ErrorContains(t, err, "AUTH_TOKEN_TTL_MINUTES")
	})
}

func TestAuthConfig_StringRedactsSecret(t *testing.T) {
	cfg := AuthConfig{TokenSecret: "do-not-print", TokenIssuer: "idp", TokenTTLMinutes: 1}
	out := fmt.Sprintf("%v", cfg)
	assert.NotContains(t, out, "do-not-print")
	assert.Contains(t, out, "[redacted]")
}
