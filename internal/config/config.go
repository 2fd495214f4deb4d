// internal/config/config.go
// Centralized configuration management
// Loads from environment variables with sensible defaults

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	StorePostgres  = "postgres"
	StoreFirestore = "firestore"
	StoreMemory    = "memory"

	defaultJWTSecret = "change-me-before-deploying"
)

// Config holds all application configuration
type Config struct {
	// Server
	Port        string
	Environment string

	// Storage
	StoreBackend   string
	DatabaseURL    string
	RedisURL       string
	MigrateOnStart bool

	// Firestore
	FirestoreProjectID       string
	FirestoreCredentialsFile string
	FirestoreCredentialsJSON string

	// Fixture file for the memory backend
	FixtureFile string

	// Security
	JWTSecret   string
	TokenExpiry time.Duration
	AuthEnabled bool

	// Matching
	WriteConcurrency int
	LoadTimeout      time.Duration
	LockTTL          time.Duration

	// Logging
	LogJSON  bool
	LogDebug bool
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		// Server
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),

		// Storage
		StoreBackend:   getEnv("STORE_BACKEND", StorePostgres),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		RedisURL:       getEnv("REDIS_URL", ""),
		MigrateOnStart: getEnvBool("MIGRATE_ON_START", false),

		// Firestore
		FirestoreProjectID:       getEnv("FIRESTORE_PROJECT_ID", ""),
		FirestoreCredentialsFile: getEnv("FIRESTORE_CREDENTIALS_FILE", ""),
		FirestoreCredentialsJSON: getEnv("FIRESTORE_CREDENTIALS_JSON", ""),

		FixtureFile: getEnv("FIXTURE_FILE", ""),

		// Security
		JWTSecret:   getEnv("JWT_SECRET", defaultJWTSecret),
		TokenExpiry: getEnvDuration("TOKEN_EXPIRY", "24h"),
		AuthEnabled: getEnvBool("AUTH_ENABLED", true),

		// Matching
		WriteConcurrency: getEnvInt("MATCH_WRITE_CONCURRENCY", 8),
		LoadTimeout:      getEnvDuration("MATCH_LOAD_TIMEOUT", "2m"),
		LockTTL:          getEnvDuration("MATCH_LOCK_TTL", "15m"),

		// Logging
		LogJSON:  getEnvBool("LOG_JSON", false),
		LogDebug: getEnvBool("LOG_DEBUG", false),
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case StorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("database URL is required for the %s store", StorePostgres)
		}
	case StoreFirestore:
		if c.FirestoreProjectID == "" {
			return fmt.Errorf("firestore project id is required for the %s store", StoreFirestore)
		}
	case StoreMemory:
		if c.IsProduction() {
			return fmt.Errorf("memory store cannot be used in production")
		}
	default:
		return fmt.Errorf("invalid store backend: %s", c.StoreBackend)
	}

	if c.AuthEnabled && c.JWTSecret == defaultJWTSecret && c.IsProduction() {
		return fmt.Errorf("JWT secret must be changed for production")
	}
	if !c.AuthEnabled && c.IsProduction() {
		return fmt.Errorf("auth cannot be disabled in production")
	}

	if c.WriteConcurrency < 1 || c.WriteConcurrency > 64 {
		return fmt.Errorf("match write concurrency must be between 1 and 64")
	}
	if c.LoadTimeout <= 0 {
		return fmt.Errorf("match load timeout must be positive")
	}
	if c.LockTTL < time.Minute {
		return fmt.Errorf("match lock TTL must be at least 1m")
	}

	return nil
}

// IsProduction returns true if running in production
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// IsDevelopment returns true if running in development
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// Helper functions

// getEnv gets a string value from environment with a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer value from environment with a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration gets a duration value from environment with a default
func getEnvDuration(key string, defaultValue string) time.Duration {
	value := getEnv(key, defaultValue)
	duration, err := time.ParseDuration(value)
	if err != nil {
		// If parsing fails, try to parse the default
		duration, _ = time.ParseDuration(defaultValue)
	}
	return duration
}

// getEnvBool gets a boolean value from environment with a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
