// Package config provides service configuration loaded from
// environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds the dispatch service configuration.
type Config struct {
	// HTTP
	HTTPAddr        string        `envconfig:"TOOLGATE_HTTP_ADDR" default:"0.0.0.0:8080"`
	RequestTimeout  time.Duration `envconfig:"TOOLGATE_REQUEST_TIMEOUT" default:"30s"`
	ShutdownTimeout time.Duration `envconfig:"TOOLGATE_SHUTDOWN_TIMEOUT" default:"10s"`

	// Credential store backend: memory, redis, postgres or sqlite.
	CredentialStore string `envconfig:"TOOLGATE_CREDENTIAL_STORE" default:"memory"`
	RedisAddr       string `envconfig:"TOOLGATE_REDIS_ADDR" default:"localhost:6379"`
	RedisPassword   string `envconfig:"TOOLGATE_REDIS_PASSWORD"`
	RedisDB         int    `envconfig:"TOOLGATE_REDIS_DB" default:"0"`
	DatabaseURL     string `envconfig:"TOOLGATE_DATABASE_URL"`
	SQLitePath      string `envconfig:"TOOLGATE_SQLITE_PATH" default:"toolgate.db"`

	// Per-service reconnect URLs shown in credential failures.
	SlackReconnectURL  string `envconfig:"TOOLGATE_SLACK_RECONNECT_URL"`
	LinearReconnectURL string `envconfig:"TOOLGATE_LINEAR_RECONNECT_URL"`
	BraveReconnectURL  string `envconfig:"TOOLGATE_BRAVE_RECONNECT_URL"`

	// Metrics
	MetricsEnabled bool `envconfig:"TOOLGATE_METRICS_ENABLED" default:"true"`

	// Logging
	LogLevel string `envconfig:"TOOLGATE_LOG_LEVEL" default:"info"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var c Config
	if err := envconfig.Process("", &c); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return &c, nil
}

// ValidateForServe checks required config when running the dispatch
// server.
func (c *Config) ValidateForServe() error {
	switch c.CredentialStore {
	case "memory", "sqlite":
	case "redis":
		if c.RedisAddr == "" {
			return fmt.Errorf("TOOLGATE_REDIS_ADDR is required for the redis credential store")
		}
	case "postgres":
		if c.DatabaseURL == "" {
			return fmt.Errorf("TOOLGATE_DATABASE_URL is required for the postgres credential store")
		}
	default:
		return fmt.Errorf("unknown credential store %q (memory, redis, postgres, sqlite)", c.CredentialStore)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("TOOLGATE_REQUEST_TIMEOUT must be positive")
	}
	return nil
}
