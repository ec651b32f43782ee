package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	APIPort   string
	LogLevel  slog.Level
	LogFormat string // "text" or "json"
	DBPath    string

	TokenSecret string
	TokenTTL    time.Duration
	TokenIssuer string

	// RedisURL selects the shared replay guard; empty keeps it in memory.
	RedisURL string

	// TokenEndpointURL is the base URL clients fetch feedback tokens from.
	TokenEndpointURL string
	RenderTimeout    time.Duration

	// AdminAPIKey is the bearer key for reading stored feedback; empty disables listing.
	AdminAPIKey string
}

// Load reads configuration from environment variables and returns a Config struct.
// It applies defaults for optional fields and validates required fields.
// If a .env file exists in the current directory or project root, it will be loaded automatically.
// Environment variables already set take precedence over .env file values.
func Load() (*Config, error) {
	loadDotEnv()

	cfg := &Config{
		APIPort:          getEnv("API_PORT", "9000"),
		LogFormat:        strings.ToLower(getEnv("LOG_FORMAT", "text")),
		DBPath:           getEnv("DB_PATH", "./data/chatwidgets.db"),
		TokenSecret:      getEnv("FEEDBACK_TOKEN_SECRET", ""),
		TokenIssuer:      getEnv("FEEDBACK_TOKEN_ISSUER", "chatwidgets"),
		RedisURL:         getEnv("REDIS_URL", ""),
		TokenEndpointURL: strings.TrimRight(getEnv("TOKEN_ENDPOINT_URL", "http://localhost:9000"), "/"),
		AdminAPIKey:      getEnv("ADMIN_API_KEY", ""),
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(getEnv("LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error: %w", err)
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, fmt.Errorf("LOG_FORMAT must be text or json, got %q", cfg.LogFormat)
	}

	ttl, err := parseDuration("FEEDBACK_TOKEN_TTL", "5m")
	if err != nil {
		return nil, err
	}
	cfg.TokenTTL = ttl

	renderTimeout, err := parseDuration("RENDER_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}
	cfg.RenderTimeout = renderTimeout

	// Validate required fields
	if cfg.TokenSecret == "" {
		return nil, fmt.Errorf("FEEDBACK_TOKEN_SECRET is required")
	}

	// Create ./data directory if it doesn't exist
	dataDir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return cfg, nil
}

// LoadClient reads only the settings a token-fetching client needs. It never
// requires the signing secret.
func LoadClient() (*Config, error) {
	loadDotEnv()

	cfg := &Config{
		LogFormat:        strings.ToLower(getEnv("LOG_FORMAT", "text")),
		TokenEndpointURL: strings.TrimRight(getEnv("TOKEN_ENDPOINT_URL", "http://localhost:9000"), "/"),
	}
	if err := cfg.LogLevel.UnmarshalText([]byte(getEnv("LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error: %w", err)
	}
	timeout, err := parseDuration("RENDER_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}
	cfg.RenderTimeout = timeout
	return cfg, nil
}

// loadDotEnv loads the nearest .env file, if any.
func loadDotEnv() {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load() // Try current directory

	// Walk up to find the project root's .env
	wd, err := os.Getwd()
	if err != nil {
		return
	}
	dir := wd
	for i := 0; i < 5; i++ { // Limit search depth
		envPath := filepath.Join(dir, ".env")
		if _, err := os.Stat(envPath); err == nil {
			_ = godotenv.Load(envPath)
			return
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return // Reached filesystem root
		}
		dir = parent
	}
}

func parseDuration(key, defaultValue string) (time.Duration, error) {
	raw := getEnv(key, defaultValue)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration such as 5m: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be greater than 0", key)
	}
	return d, nil
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
