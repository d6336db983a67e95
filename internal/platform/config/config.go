package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL   string
	Port          string
	IsProduction  bool
	JWTSecret     string
	RedisURL      string // Empty disables the notification publisher
	HTTPRateLimit string // ulule/limiter formatted, e.g. "100-M"

	// Business rules for the ledger core. These are configuration inputs, not
	// engine constants.
	TransferHourlyLimit  int           // Max completed transfers per sender per rolling window
	TransferWindow       time.Duration // Rolling window for the velocity limit
	TransferMinHalves    int64         // Smallest allowed transfer, in halves
	TransferMaxHalves    int64         // Largest allowed transfer, in halves
	EscrowFeeBasisPoints int64         // Platform fee on escrow release
	FeeOnDisputeRelease  bool          // Whether dispute-resolved releases also charge the fee
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("JWT_SECRET", "a-very-secret-key-should-be-longer-and-random")
	viper.SetDefault("REDIS_URL", "")
	viper.SetDefault("HTTP_RATE_LIMIT", "100-M")
	viper.SetDefault("TRANSFER_HOURLY_LIMIT", 10)
	viper.SetDefault("TRANSFER_WINDOW", "1h")
	viper.SetDefault("TRANSFER_MIN_HALVES", 1)
	viper.SetDefault("TRANSFER_MAX_HALVES", 2_000_000)
	viper.SetDefault("ESCROW_FEE_BASIS_POINTS", 0)
	viper.SetDefault("FEE_ON_DISPUTE_RELEASE", false)

	viper.AutomaticEnv()

	cfg := &Config{}

	cfg.DatabaseURL = viper.GetString("PGSQL_URL")
	if cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}

	cfg.Port = viper.GetString("PORT")
	cfg.IsProduction = viper.GetBool("IS_PRODUCTION")

	cfg.JWTSecret = viper.GetString("JWT_SECRET")
	if cfg.JWTSecret == "a-very-secret-key-should-be-longer-and-random" && cfg.IsProduction {
		return nil, fmt.Errorf("JWT_SECRET must be set in production")
	}

	cfg.RedisURL = viper.GetString("REDIS_URL")
	cfg.HTTPRateLimit = viper.GetString("HTTP_RATE_LIMIT")

	cfg.TransferHourlyLimit = viper.GetInt("TRANSFER_HOURLY_LIMIT")
	if cfg.TransferHourlyLimit <= 0 {
		return nil, fmt.Errorf("TRANSFER_HOURLY_LIMIT must be positive, got %d", cfg.TransferHourlyLimit)
	}

	windowStr := viper.GetString("TRANSFER_WINDOW")
	window, err := time.ParseDuration(windowStr)
	if err != nil {
		window = time.Hour
		log.Printf("Warning: Invalid value for TRANSFER_WINDOW ('%s'). Defaulting to %s.\n", windowStr, window)
	}
	cfg.TransferWindow = window

	cfg.TransferMinHalves = viper.GetInt64("TRANSFER_MIN_HALVES")
	cfg.TransferMaxHalves = viper.GetInt64("TRANSFER_MAX_HALVES")
	if cfg.TransferMinHalves <= 0 || cfg.TransferMaxHalves < cfg.TransferMinHalves {
		return nil, fmt.Errorf("invalid transfer bounds: min=%d max=%d", cfg.TransferMinHalves, cfg.TransferMaxHalves)
	}

	cfg.EscrowFeeBasisPoints = viper.GetInt64("ESCROW_FEE_BASIS_POINTS")
	if cfg.EscrowFeeBasisPoints < 0 || cfg.EscrowFeeBasisPoints > 10_000 {
		return nil, fmt.Errorf("ESCROW_FEE_BASIS_POINTS must be within [0,10000], got %d", cfg.EscrowFeeBasisPoints)
	}
	cfg.FeeOnDisputeRelease = viper.GetBool("FEE_ON_DISPUTE_RELEASE")

	return cfg, nil
}
