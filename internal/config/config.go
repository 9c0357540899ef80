package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Database    DatabaseConfig
	Server      ServerConfig
	Solana      SolanaConfig
	Marketplace MarketplaceConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Driver   string // "sqlite" or "postgres"
	Path     string // sqlite file path
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

// ServerConfig holds server settings
type ServerConfig struct {
	Port        string
	FrontendURL string
}

// SolanaConfig holds blockchain settings
type SolanaConfig struct {
	Network string // "mainnet-beta", "devnet", "testnet"
	RPCURL  string // optional override of the public endpoint
}

// MarketplaceConfig holds the payment-flow policy knobs
type MarketplaceConfig struct {
	VerifyPayments    bool   // verify proofs on-chain before completing purchases
	ListingFeeEnabled bool   // payment-gate listing creation
	ListingFeeLamport uint64 // fee amount in lamports
	FeeWallet         string // platform wallet receiving listing fees
	LiveRatesEnabled  bool   // refresh exchange rates from CoinGecko
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	feeLamports, err := strconv.ParseUint(getEnv("LISTING_FEE_LAMPORTS", "100000000"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid LISTING_FEE_LAMPORTS: %w", err)
	}

	config := &Config{
		Database: DatabaseConfig{
			Driver:   getEnv("DB_DRIVER", "sqlite"),
			Path:     getEnv("DB_PATH", "marketplace.db"),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "marketplace"),
		},
		Server: ServerConfig{
			Port:        getEnv("SERVER_PORT", "8080"),
			FrontendURL: getEnv("FRONTEND_URL", ""),
		},
		Solana: SolanaConfig{
			Network: getEnv("SOLANA_NETWORK", "devnet"),
			RPCURL:  getEnv("SOLANA_RPC_URL", ""),
		},
		Marketplace: MarketplaceConfig{
			VerifyPayments:    getEnvBool("VERIFY_PAYMENTS", true),
			ListingFeeEnabled: getEnvBool("LISTING_FEE_ENABLED", false),
			ListingFeeLamport: feeLamports,
			FeeWallet:         getEnv("FEE_WALLET", ""),
			LiveRatesEnabled:  getEnvBool("LIVE_RATES_ENABLED", false),
		},
	}

	switch config.Database.Driver {
	case "sqlite", "postgres":
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", config.Database.Driver)
	}

	if config.Marketplace.ListingFeeEnabled && config.Marketplace.FeeWallet == "" {
		return nil, fmt.Errorf("FEE_WALLET is required when LISTING_FEE_ENABLED is set")
	}

	return config, nil
}

// GetDSN returns the PostgreSQL connection string
func (c *Config) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
	)
}

// getEnv gets an environment variable with a fallback default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvBool parses a boolean environment variable with a fallback
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}
