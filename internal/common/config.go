// Package common provides shared utilities for Borsa
package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for Borsa
type Config struct {
	Environment   string              `toml:"environment"`
	Currency      string              `toml:"currency"` // Display currency for money values (default "TRY")
	API           APIConfig           `toml:"api"`
	Quotes        QuotesConfig        `toml:"quotes"`
	Stream        StreamConfig        `toml:"stream"`
	Notifications NotificationsConfig `toml:"notifications"`
	Logging       LoggingConfig       `toml:"logging"`
}

// APIConfig holds the backend REST API configuration
type APIConfig struct {
	BaseURL   string `toml:"base_url"`
	Token     string `toml:"token"`
	RateLimit int    `toml:"rate_limit"`
	Timeout   string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *APIConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// QuotesConfig controls price lookups
type QuotesConfig struct {
	StaleTime     string `toml:"stale_time"`     // how long a fetched quote is reused, "0s" disables caching
	MaxConcurrent int    `toml:"max_concurrent"` // in-flight lookups per refresh
}

// GetStaleTime parses and returns the quote stale time
func (c *QuotesConfig) GetStaleTime() time.Duration {
	d, err := time.ParseDuration(c.StaleTime)
	if err != nil {
		return 60 * time.Second
	}
	return d
}

// StreamConfig holds the live price feed configuration
type StreamConfig struct {
	URL     string `toml:"url"`
	Enabled bool   `toml:"enabled"`
}

// NotificationsConfig holds push-notification (OneSignal) configuration
type NotificationsConfig struct {
	AppID      string `toml:"app_id"`
	RESTAPIKey string `toml:"rest_api_key"`
	BaseURL    string `toml:"base_url"`
	Timeout    string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *NotificationsConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 10 * time.Second
	}
	return d
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level    string `toml:"level"`
	Format   string `toml:"format"`
	FilePath string `toml:"file_path"`
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Currency:    "TRY",
		API: APIConfig{
			BaseURL:   "http://localhost:5000",
			RateLimit: 10,
			Timeout:   "30s",
		},
		Quotes: QuotesConfig{
			StaleTime:     "60s",
			MaxConcurrent: 8,
		},
		Stream: StreamConfig{
			URL: "ws://localhost:5001",
		},
		Notifications: NotificationsConfig{
			BaseURL: "https://api.onesignal.com",
			Timeout: "10s",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// LoadConfig loads configuration from files with environment overrides
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	// Load and merge each config file in order (later files override earlier)
	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue // Skip missing files
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	// .env is optional; values already in the environment win
	_ = godotenv.Load()

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("BORSA_ENV"); env != "" {
		config.Environment = env
	}

	if cur := os.Getenv("BORSA_CURRENCY"); cur != "" {
		config.Currency = strings.ToUpper(cur)
	}

	if v := os.Getenv("BORSA_API_URL"); v != "" {
		config.API.BaseURL = strings.TrimRight(v, "/")
	}
	if v := os.Getenv("BORSA_API_TOKEN"); v != "" {
		config.API.Token = v
	}
	if v := os.Getenv("BORSA_API_RATE_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.API.RateLimit = n
		}
	}

	if v := os.Getenv("BORSA_QUOTE_STALE_TIME"); v != "" {
		config.Quotes.StaleTime = v
	}

	if v := os.Getenv("BORSA_WS_URL"); v != "" {
		config.Stream.URL = v
	}
	if v := os.Getenv("BORSA_STREAM_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			config.Stream.Enabled = b
		}
	}

	if v := os.Getenv("BORSA_ONESIGNAL_APP_ID"); v != "" {
		config.Notifications.AppID = v
	}
	if v := os.Getenv("BORSA_ONESIGNAL_REST_API_KEY"); v != "" {
		config.Notifications.RESTAPIKey = v
	}

	if level := os.Getenv("BORSA_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}
