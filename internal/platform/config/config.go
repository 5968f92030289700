package config

import (
	"fmt"
	"log"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Storage backend names accepted in STORAGE_BACKEND.
const (
	StorageMemory = "memory"
	StoragePgsql  = "pgsql"
)

// Config holds application configuration.
type Config struct {
	Port           string
	IsProduction   bool
	StorageBackend string
	DatabaseURL    string
	EnableDBCheck  bool
	// Rate limiting, e.g. "100-M" for 100 requests per minute.
	RateLimit string
	// DefaultCurrency is used for entries and accounts that do not name one.
	DefaultCurrency string
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("STORAGE_BACKEND", StorageMemory)
	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("ENABLE_DB_CHECK", false)
	viper.SetDefault("RATE_LIMIT", "300-M")
	viper.SetDefault("DEFAULT_CURRENCY", "JPY")

	viper.AutomaticEnv()

	cfg := &Config{
		Port:            viper.GetString("PORT"),
		IsProduction:    viper.GetBool("IS_PRODUCTION"),
		StorageBackend:  viper.GetString("STORAGE_BACKEND"),
		DatabaseURL:     viper.GetString("PGSQL_URL"),
		EnableDBCheck:   viper.GetBool("ENABLE_DB_CHECK"),
		RateLimit:       viper.GetString("RATE_LIMIT"),
		DefaultCurrency: viper.GetString("DEFAULT_CURRENCY"),
	}

	switch cfg.StorageBackend {
	case StorageMemory:
		if cfg.DatabaseURL != "" {
			log.Println("Warning: PGSQL_URL is set but STORAGE_BACKEND is memory; the database will not be used.")
		}
	case StoragePgsql:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("STORAGE_BACKEND is pgsql but PGSQL_URL is not set")
		}
	default:
		return nil, fmt.Errorf("unknown STORAGE_BACKEND %q (expected %q or %q)", cfg.StorageBackend, StorageMemory, StoragePgsql)
	}

	return cfg, nil
}
