package config

import (
	"flag"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port             string
	DatabaseURL      string
	RedisURL         string
	LogLevel         string
	PreviewServerURL string
	InstagramToken   string
	PreviewCacheTTL  time.Duration
}

func Load() *Config {
	// Load .env if present; deployed environments set variables directly
	_ = godotenv.Load()

	config := &Config{
		Port:     getEnvWithDefault("PORT", "8080"),
		LogLevel: getEnvWithDefault("LOG_LEVEL", "info"),
	}

	// Required environment variables (for database/redis services)
	config.DatabaseURL = mustGetEnv("DATABASE_URL")
	config.RedisURL = mustGetEnv("REDIS_URL")

	// Optional trusted first-party preview server; when set it is tried
	// before the public strategy chains
	config.PreviewServerURL = getEnvWithDefault("PREVIEW_SERVER_URL", "")

	// Optional Instagram Graph API token for the highest-priority strategy
	config.InstagramToken = getEnvWithDefault("INSTAGRAM_TOKEN", "")

	ttl, err := time.ParseDuration(getEnvWithDefault("PREVIEW_CACHE_TTL", "2h"))
	if err != nil {
		log.Fatalf("Invalid PREVIEW_CACHE_TTL: %v", err)
	}
	config.PreviewCacheTTL = ttl

	// Command line flags override environment
	flag.StringVar(&config.Port, "port", config.Port, "Server port")
	flag.StringVar(&config.LogLevel, "log-level", config.LogLevel, "Log level")
	flag.Parse()

	return config
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func mustGetEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		log.Fatalf("Environment variable %s is required", key)
	}
	return value
}

// ValidateForWorker ensures all required fields for worker service are present
func (c *Config) ValidateForWorker() error {
	// Worker only needs database and Redis, validated in Load
	return nil
}

// ValidateForAPI ensures all required fields for API service are present
func (c *Config) ValidateForAPI() error {
	// API only needs basic config
	return nil
}
