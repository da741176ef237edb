package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// ClientConfig configures the terminal chat client.
type ClientConfig struct {
	ChatServiceURL string        `toml:"chat_service_url"`
	UserEmail      string        `toml:"user_email"`
	Timeout        time.Duration `toml:"timeout"`
	HistoryBackend string        `toml:"history_backend"`
	HistoryPath    string        `toml:"history_path"`
}

// ClientDir returns the client configuration directory (~/.edubot).
func ClientDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".edubot"), nil
}

// DefaultClient returns the client defaults rooted at dir.
func DefaultClient(dir string) *ClientConfig {
	return &ClientConfig{
		ChatServiceURL: "http://localhost:5000",
		UserEmail:      "user@example.com",
		HistoryBackend: BackendSQLite,
		HistoryPath:    filepath.Join(dir, "history.db"),
	}
}

// LoadClient reads the TOML file at path (or ~/.edubot/config.toml when
// empty), then applies environment overrides. A missing file is not an error.
func LoadClient(path string) (*ClientConfig, error) {
	dir, err := ClientDir()
	if err != nil {
		return nil, err
	}
	if path == "" {
		path = filepath.Join(dir, "config.toml")
	}

	cfg := DefaultClient(dir)
	if _, err := toml.DecodeFile(path, cfg); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to decode TOML file %s: %w", path, err)
	}

	cfg.ApplyEnvOverrides()
	cfg.HistoryBackend = strings.ToLower(cfg.HistoryBackend)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid client configuration: %w", err)
	}
	return cfg, nil
}

// ApplyEnvOverrides replaces file values with any set environment variables.
func (c *ClientConfig) ApplyEnvOverrides() {
	c.ChatServiceURL = getEnv("CHAT_SERVICE_URL", c.ChatServiceURL)
	c.UserEmail = getEnv("CHAT_USER_EMAIL", c.UserEmail)
	c.Timeout = getEnvDuration("CHAT_TIMEOUT", c.Timeout)
	c.HistoryBackend = getEnv("HISTORY_BACKEND", c.HistoryBackend)
	c.HistoryPath = getEnv("HISTORY_PATH", c.HistoryPath)
}

// Validate checks the client configuration.
func (c *ClientConfig) Validate() error {
	if strings.TrimSpace(c.ChatServiceURL) == "" {
		return fmt.Errorf("chat_service_url cannot be empty")
	}
	if err := validateBackend(c.HistoryBackend); err != nil {
		return err
	}
	if c.HistoryBackend != BackendMemory && c.HistoryPath == "" {
		return fmt.Errorf("history_path cannot be empty")
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must be >= 0")
	}
	return nil
}
