// Package config reads server configuration from the environment, with a
// .env file loaded first when present.
package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	ServerPort      string
	DatabaseType    string // sqlite, postgres or mysql
	DatabasePath    string
	DatabaseURL     string
	MigrationsPath  string
	SessionDuration time.Duration

	// Shared household password; empty disables the login gate.
	HouseholdPassword string

	// Google OAuth client for the sync backends.
	GoogleClientID     string
	GoogleClientSecret string
	// Base URL the OAuth callback is registered under, e.g.
	// https://meals.example.com. Empty falls back to the request host.
	OAuthRedirectBaseURL string

	// Active sync backend: drive or sheets.
	SyncBackend   string
	AutoSyncDelay time.Duration

	// Amazon SES settings for the export email; empty FromEmail disables
	// sending.
	AWSRegion    string
	SESFromEmail string
	SESFromName  string
}

// Load reads configuration from environment variables with sensible
// defaults.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	return &Config{
		ServerPort:      getEnv("PORT", "8080"),
		DatabaseType:    getEnv("DB_TYPE", "sqlite"),
		DatabasePath:    getEnv("DB_PATH", "./mymeals.db"),
		DatabaseURL:     getEnv("DATABASE_URL", ""),
		MigrationsPath:  getEnv("MIGRATIONS_PATH", "./migrations"),
		SessionDuration: getEnvDuration("SESSION_DURATION", 30*24*time.Hour),

		HouseholdPassword: getEnv("HOUSEHOLD_PASSWORD", ""),

		GoogleClientID:       getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret:   getEnv("GOOGLE_CLIENT_SECRET", ""),
		OAuthRedirectBaseURL: getEnv("OAUTH_REDIRECT_BASE_URL", ""),

		SyncBackend:   getEnv("SYNC_BACKEND", "drive"),
		AutoSyncDelay: getEnvDuration("AUTO_SYNC_DELAY", 2*time.Second),

		AWSRegion:    getEnv("AWS_REGION", "eu-west-1"),
		SESFromEmail: getEnv("SES_FROM_EMAIL", ""),
		SESFromName:  getEnv("SES_FROM_NAME", "My Meals"),
	}
}

// getEnv reads an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvDuration parses a duration or millisecond-count variable.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if ms, err := strconv.Atoi(value); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	log.Printf("Invalid %s value %q, using default", key, value)
	return defaultValue
}
