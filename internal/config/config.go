// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// History backends accepted by HISTORY_BACKEND.
const (
	BackendSQLite = "sqlite"
	BackendBolt   = "bolt"
	BackendMemory = "memory"
)

// Config holds all server configuration.
type Config struct {
	Port               string
	FrontendURL        string
	DBPath             string
	HistoryBackend     string
	ChatServiceURL     string
	ChatUserEmail      string
	ChatTimeout        time.Duration // 0 = wait for the transport indefinitely
	SeedTestUser       bool
	CORSAllowedOrigins string
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Port:               getEnv("PORT", "3000"),
		FrontendURL:        getEnv("FRONTEND_URL", ""),
		DBPath:             getEnv("DB_PATH", "./data/edubot.db"),
		HistoryBackend:     strings.ToLower(getEnv("HISTORY_BACKEND", BackendSQLite)),
		ChatServiceURL:     getEnv("CHAT_SERVICE_URL", "http://localhost:5000"),
		ChatUserEmail:      getEnv("CHAT_USER_EMAIL", "user@example.com"),
		ChatTimeout:        getEnvDuration("CHAT_TIMEOUT", 0),
		SeedTestUser:       getEnvBool("SEED_TEST_USER", true),
		CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if err := validateBackend(c.HistoryBackend); err != nil {
		return err
	}
	if c.HistoryBackend != BackendMemory && c.DBPath == "" {
		return fmt.Errorf("DB_PATH cannot be empty")
	}
	if strings.TrimSpace(c.ChatServiceURL) == "" {
		return fmt.Errorf("CHAT_SERVICE_URL cannot be empty")
	}
	if c.ChatTimeout < 0 {
		return fmt.Errorf("CHAT_TIMEOUT must be >= 0")
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.FrontendURL == "" ||
		strings.Contains(c.FrontendURL, "localhost") ||
		strings.Contains(c.FrontendURL, "127.0.0.1")
}

func validateBackend(backend string) error {
	switch backend {
	case BackendSQLite, BackendBolt, BackendMemory:
		return nil
	default:
		return fmt.Errorf("HISTORY_BACKEND must be one of sqlite, bolt, memory (got %q)", backend)
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

// getEnvDuration accepts Go durations ("30s") or a bare number of seconds.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	value = strings.TrimSpace(value)
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if n, err := strconv.Atoi(value); err == nil {
		return time.Duration(n) * time.Second
	}
	return fallback
}
