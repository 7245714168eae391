package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

// Config holds application configuration sourced from the environment.
type Config struct {
	// DatabaseURL is the Postgres connection string. Database-backed routes
	// are degraded when it is missing or unreachable.
	DatabaseURL string

	// Port is the HTTP listen port.
	Port string

	// NasdaqAPIKey enables the daily-price ingestion endpoint when set.
	NasdaqAPIKey string

	// APIBaseURL is the backend base URL used by the fetch CLI.
	APIBaseURL string
}

// Load reads configuration from a .env file (if present) and the
// environment. Missing optional values fall back to defaults.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	return Config{
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		Port:         getEnv("PORT", "8080"),
		NasdaqAPIKey: os.Getenv("NASDAQ_API_KEY"),
		APIBaseURL:   getEnv("API_BASE_URL", "http://localhost:8080"),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
