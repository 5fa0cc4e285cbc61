package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, 5*time.Second, cfg.OpTimeout)
	assert.Equal(t, 10*time.Second, cfg.Locks.TTL)
	assert.Equal(t, "pet-pedigree", cfg.Log.App)
	assert.Empty(t, cfg.Database.DSN)
	assert.Empty(t, cfg.Redis.URL)
	assert.Empty(t, cfg.Auth.BaseURL)
	assert.Equal(t, "X-Api-Key", cfg.Auth.APIKeyHeader)
}

func TestParse_FromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DB_DSN", "postgres://u:p@localhost:5432/pets?sslmode=disable")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("OP_TIMEOUT", "2s")
	t.Setenv("LOCK_TTL", "30s")
	t.Setenv("MIGRATE_ON_START", "true")
	t.Setenv("AUTH_BASE_URL", "https://auth.internal")
	t.Setenv("AUTH_TIMEOUT", "1s")

	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Addr())
	assert.Equal(t, "postgres://u:p@localhost:5432/pets?sslmode=disable", cfg.Database.DSN)
	assert.True(t, cfg.Database.MigrateOnStart)
	assert.Equal(t, "redis://localhost:6379/0", cfg.Redis.URL)
	assert.Equal(t, 2*time.Second, cfg.OpTimeout)
	assert.Equal(t, 30*time.Second, cfg.Locks.TTL)
	assert.Equal(t, "https://auth.internal", cfg.Auth.BaseURL)
	assert.Equal(t, time.Second, cfg.Auth.Timeout)
}

func TestParse_LockTTLMustOutliveOperation(t *testing.T) {
	t.Setenv("OP_TIMEOUT", "10s")
	t.Setenv("LOCK_TTL", "5s")

	_, err := Parse()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LOCK_TTL")
}
