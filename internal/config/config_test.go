package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(3001)
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "0.0.0.0", cfg.HTTP.Host)
	assert.Equal(t, 3001, cfg.HTTP.Port)
	assert.Equal(t, 10*time.Second, cfg.HTTP.ShutdownTimeout)
	assert.Equal(t, 25, cfg.Database.MaxOpenConns)
	assert.Empty(t, cfg.Redis.Address, "cache is disabled unless configured")
	assert.Equal(t, "http://localhost:3001", cfg.Peer.URL)
	assert.Equal(t, 5*time.Second, cfg.Peer.Timeout)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("HTTP_PORT", "8080")
	t.Setenv("DATABASE_DSN", "postgres://app@db:5432/prod")
	t.Setenv("REDIS_ADDRESS", "redis:6379")
	t.Setenv("PEER_URL", "http://orders:3001")
	t.Setenv("PEER_TIMEOUT", "2s")

	cfg, err := Load(3002)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, "postgres://app@db:5432/prod", cfg.Database.DSN)
	assert.Equal(t, "redis:6379", cfg.Redis.Address)
	assert.Equal(t, "http://orders:3001", cfg.Peer.URL)
	assert.Equal(t, 2*time.Second, cfg.Peer.Timeout)
}
