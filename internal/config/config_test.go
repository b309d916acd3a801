package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "3001", cfg.Server.Port)
	assert.Equal(t, "https://tipwalt.com", cfg.Telegram.WebappURL)
	assert.Equal(t, "https://walt.tip/approve", cfg.Telegram.ApproveURL)
	assert.Equal(t, "https://mainnet.base.org", cfg.Chain.RPCURL)
	assert.Equal(t, int64(8453), cfg.Chain.ChainID)
	assert.Equal(t, "0x1E018AC547796185f978aF6AeFa9b1e88D1Bc0b1", cfg.Chain.TokenAddress)
	assert.Equal(t, "1000", cfg.Faucet.Amount)
	assert.Equal(t, BackendPostgres, cfg.Storage.Backend)
	assert.Equal(t, "database/tips.db", cfg.Storage.SQLite.Path)
	assert.Equal(t, 20*time.Second, cfg.Cache.BalanceTTL)
	assert.Equal(t, time.Minute, cfg.Cache.LeaderboardTTL)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "sqlite")
	t.Setenv("SQLITE_PATH", "/tmp/test.db")
	t.Setenv("FAUCET_AMOUNT", "250")
	t.Setenv("CACHE_BALANCE_TTL", "5s")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, BackendSQLite, cfg.Storage.Backend)
	assert.Equal(t, "/tmp/test.db", cfg.Storage.SQLite.Path)
	assert.Equal(t, "250", cfg.Faucet.Amount)
	assert.Equal(t, 5*time.Second, cfg.Cache.BalanceTTL)
}

func TestLoadConfigUnknownBackend(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "mongodb")

	_, err := LoadConfig()
	require.Error(t, err)
}

func TestFaucetEnabled(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.False(t, cfg.FaucetEnabled())

	t.Setenv("FAUCET_PRIVATE_KEY", "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318")
	cfg, err = LoadConfig()
	require.NoError(t, err)
	assert.True(t, cfg.FaucetEnabled())
}

func TestGetEnvAsDurationInvalid(t *testing.T) {
	t.Setenv("CACHE_BALANCE_TTL", "not-a-duration")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 20*time.Second, cfg.Cache.BalanceTTL)
}
