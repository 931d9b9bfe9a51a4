// Package config loads service settings from the environment, optionally
// seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/atmx/yield-farm/internal/auth"
	"github.com/atmx/yield-farm/internal/model"
)

// DefaultEnvFile is read when present. Variables already set in the
// environment win over the file.
const DefaultEnvFile = ".env"

// Config holds the service settings.
type Config struct {
	Port        string
	DatabaseURL string // empty: in-memory store
	RedisURL    string // empty: no cache
	CacheTTL    time.Duration

	Admin        model.Address // farm administrator and reward-token minter
	FarmAddress  model.Address // account the farm holds tokens under
	StakeSymbol  string
	RewardSymbol string
	Decimals     uint8

	RewardSupply decimal.Decimal // reward tokens minted to Admin at boot
	RewardRate   decimal.Decimal // reward tokens per second; zero leaves the rate unset

	AuthSecret string // HMAC key for caller credentials
}

// Load reads envFile (DefaultEnvFile when empty) and then the environment.
// A missing default file is not an error; a missing explicit file is.
func Load(envFile string) (*Config, error) {
	explicit := envFile != ""
	if !explicit {
		envFile = DefaultEnvFile
	}
	if err := godotenv.Load(envFile); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config: load %s: %w", envFile, err)
		}
	}

	cfg := &Config{
		Port:         getenv("PORT", "8080"),
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		RedisURL:     os.Getenv("REDIS_URL"),
		Admin:        model.Address(getenv("FARM_ADMIN", "admin")),
		FarmAddress:  model.Address(getenv("FARM_ADDRESS", "farm")),
		StakeSymbol:  getenv("STAKE_SYMBOL", "DEP"),
		RewardSymbol: getenv("REWARD_SYMBOL", "RWD"),
		AuthSecret:   os.Getenv("AUTH_SECRET"),
	}
	if len(cfg.AuthSecret) < auth.MinSecretLen {
		return nil, fmt.Errorf("config: AUTH_SECRET must be set to at least %d bytes", auth.MinSecretLen)
	}

	var err error
	if cfg.CacheTTL, err = time.ParseDuration(getenv("CACHE_TTL", "30s")); err != nil {
		return nil, fmt.Errorf("config: CACHE_TTL: %w", err)
	}

	decimals, err := strconv.ParseUint(getenv("TOKEN_DECIMALS", "18"), 10, 8)
	if err != nil {
		return nil, fmt.Errorf("config: TOKEN_DECIMALS: %w", err)
	}
	cfg.Decimals = uint8(decimals)

	if cfg.RewardSupply, err = decimal.NewFromString(getenv("REWARD_SUPPLY", "10000000")); err != nil {
		return nil, fmt.Errorf("config: REWARD_SUPPLY: %w", err)
	}
	if cfg.RewardRate, err = decimal.NewFromString(getenv("REWARD_RATE", "0")); err != nil {
		return nil, fmt.Errorf("config: REWARD_RATE: %w", err)
	}
	if cfg.RewardSupply.IsNegative() || cfg.RewardRate.IsNegative() {
		return nil, errors.New("config: REWARD_SUPPLY and REWARD_RATE must not be negative")
	}
	if cfg.StakeSymbol == cfg.RewardSymbol {
		return nil, fmt.Errorf("config: stake and reward tokens share the symbol %s", cfg.StakeSymbol)
	}
	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
