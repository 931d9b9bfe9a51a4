package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

// chdir runs the test from an empty directory so no stray .env is picked up.
// AUTH_SECRET is set since Load refuses to run without it.
func chdir(t *testing.T) string {
	t.Helper()
	t.Setenv("AUTH_SECRET", testSecret)
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	chdir(t)
	for _, k := range []string{"PORT", "DATABASE_URL", "REDIS_URL", "CACHE_TTL", "FARM_ADMIN",
		"FARM_ADDRESS", "STAKE_SYMBOL", "REWARD_SYMBOL", "TOKEN_DECIMALS", "REWARD_SUPPLY", "REWARD_RATE"} {
		t.Setenv(k, "")
	}

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "8080", cfg.Port)
	require.Empty(t, cfg.DatabaseURL)
	require.Equal(t, 30*time.Second, cfg.CacheTTL)
	require.Equal(t, "admin", string(cfg.Admin))
	require.Equal(t, "farm", string(cfg.FarmAddress))
	require.Equal(t, uint8(18), cfg.Decimals)
	require.True(t, cfg.RewardSupply.Equal(decimal.NewFromInt(10_000_000)))
	require.True(t, cfg.RewardRate.IsZero())
	require.Equal(t, testSecret, cfg.AuthSecret)
}

func TestLoad_EnvOverrides(t *testing.T) {
	chdir(t)
	t.Setenv("PORT", "9090")
	t.Setenv("CACHE_TTL", "1m")
	t.Setenv("TOKEN_DECIMALS", "6")
	t.Setenv("REWARD_RATE", "0.5")
	t.Setenv("FARM_ADMIN", "owner")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "9090", cfg.Port)
	require.Equal(t, time.Minute, cfg.CacheTTL)
	require.Equal(t, uint8(6), cfg.Decimals)
	require.True(t, cfg.RewardRate.Equal(decimal.RequireFromString("0.5")))
	require.Equal(t, "owner", string(cfg.Admin))
}

func TestLoad_EnvFile(t *testing.T) {
	dir := chdir(t)
	t.Setenv("FARM_ADDRESS", "")
	t.Setenv("REWARD_SUPPLY", "")
	// godotenv.Load never overrides; clear what the file sets.
	os.Unsetenv("FARM_ADDRESS")
	os.Unsetenv("REWARD_SUPPLY")

	path := filepath.Join(dir, "farm.env")
	require.NoError(t, os.WriteFile(path, []byte("FARM_ADDRESS=vault\nREWARD_SUPPLY=42\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "vault", string(cfg.FarmAddress))
	require.True(t, cfg.RewardSupply.Equal(decimal.NewFromInt(42)))
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	chdir(t)
	_, err := Load("does-not-exist.env")
	require.Error(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"CACHE_TTL", "soon"},
		{"TOKEN_DECIMALS", "300"},
		{"REWARD_SUPPLY", "lots"},
		{"REWARD_RATE", "-1"},
		{"REWARD_SYMBOL", "DEP"},
		{"AUTH_SECRET", ""},
		{"AUTH_SECRET", "too-short"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			chdir(t)
			t.Setenv(tt.key, tt.value)
			_, err := Load("")
			require.Error(t, err)
		})
	}
}
