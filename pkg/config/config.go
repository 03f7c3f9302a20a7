package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Port           string
	Env            string
	LogFormat      string
	AllowedOrigins []string

	// Local store configuration
	DataDir string

	// Remote document store configuration (optional)
	DatabaseURL string

	// Push channel configuration (optional)
	RedisURL      string
	RedisPassword string

	// JWT configuration
	JWTSecret string

	// Currency configuration
	DisplayCurrency string
	BaseCurrency    string
	RatesFile       string

	// SyncTimeout bounds every remote persistence call
	SyncTimeout time.Duration

	// InstanceID names this process on the push channel; generated when empty
	InstanceID string
}

// Load loads configuration from environment variables. A .env file in the
// working directory is read first when present; real environment variables
// take precedence over it.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:            getEnv("PORT", "8080"),
		Env:             getEnv("ENV", "development"),
		LogFormat:       getEnv("LOG_FORMAT", ""),
		AllowedOrigins:  getEnvAsList("ALLOWED_ORIGINS", []string{"http://localhost:5173"}),
		DataDir:         getEnv("DATA_DIR", "./data"),
		DatabaseURL:     getEnv("DATABASE_URL", ""),
		RedisURL:        getEnv("REDIS_URL", ""),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		JWTSecret:       getEnv("JWT_SECRET", ""),
		DisplayCurrency: strings.ToUpper(getEnv("DISPLAY_CURRENCY", "TWD")),
		BaseCurrency:    strings.ToUpper(getEnv("BASE_CURRENCY", "TWD")),
		RatesFile:       getEnv("RATES_FILE", ""),
		SyncTimeout:     time.Duration(getEnvAsInt("SYNC_TIMEOUT", 10)) * time.Second,
		InstanceID:      getEnv("INSTANCE_ID", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures all required configuration is present
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}

	if len(c.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters long")
	}

	if c.DataDir == "" {
		return fmt.Errorf("DATA_DIR is required")
	}

	if len(c.BaseCurrency) != 3 {
		return fmt.Errorf("BASE_CURRENCY must be a 3-letter code, got %q", c.BaseCurrency)
	}

	if len(c.DisplayCurrency) != 3 {
		return fmt.Errorf("DISPLAY_CURRENCY must be a 3-letter code, got %q", c.DisplayCurrency)
	}

	if c.SyncTimeout <= 0 {
		return fmt.Errorf("SYNC_TIMEOUT must be positive")
	}

	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// RemoteEnabled reports whether a remote document store is configured.
func (c *Config) RemoteEnabled() bool {
	return c.DatabaseURL != ""
}

// PushEnabled reports whether the push channel is configured.
func (c *Config) PushEnabled() bool {
	return c.RedisURL != ""
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as an integer with a default value
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsList splits a comma separated variable, dropping blanks
func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
