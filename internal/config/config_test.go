package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SERVER_ID", "node-a")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "3001", cfg.Port)
	require.Equal(t, ":3001", cfg.Addr())
	require.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	require.Equal(t, "chat", cfg.MongoDatabase)
	require.Equal(t, 24*time.Hour, cfg.AccessTokenTTL)
	require.False(t, cfg.RequireJoinToken)
	require.Equal(t, 256, cfg.SendBuffer)
	require.Equal(t, "node-a", cfg.ServerID)

	secret, dev := cfg.Secret()
	require.True(t, dev)
	require.NotEmpty(t, secret)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test,http://b.test")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("REQUIRE_JOIN_TOKEN", "true")
	t.Setenv("LOGIN_LOCKOUT", "30s")
	t.Setenv("LOG_JSON", "true")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, ":9000", cfg.Addr())
	require.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.AllowedOrigins)
	require.True(t, cfg.RequireJoinToken)
	require.Equal(t, 30*time.Second, cfg.LoginLockout)
	require.True(t, cfg.Logger().JSON)

	secret, dev := cfg.Secret()
	require.False(t, dev)
	require.Equal(t, "s3cret", secret)
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("SEND_BUFFER", "0")
	t.Setenv("BCRYPT_COST", "99")

	_, err := Load()
	require.Error(t, err)
	require.Contains(t, err.Error(), "SEND_BUFFER")
	require.Contains(t, err.Error(), "BCRYPT_COST")
}

func TestLoadRejectsUnparsable(t *testing.T) {
	t.Setenv("ACCESS_TOKEN_TTL", "forever")

	_, err := Load()
	require.Error(t, err)
}
