package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all configuration for the application.
type Config struct {
	Port string `envconfig:"PORT" default:"3000"`
	Env  string `envconfig:"ENV" default:"development"`

	// Persistence: the first non-empty backend wins (Mongo, Postgres, SQLite).
	MongoURI      string `envconfig:"MONGO_URI"`
	MongoDatabase string `envconfig:"MONGO_DATABASE" default:"jobsearch"`
	DatabaseURL   string `envconfig:"DATABASE_URL"`
	SQLitePath    string `envconfig:"SQLITE_PATH" default:"./data/jobsearch.db"`
	RedisURL      string `envconfig:"REDIS_URL"`

	// StoreTimeout bounds every persistence call made by the chat service.
	StoreTimeout time.Duration `envconfig:"STORE_TIMEOUT" default:"5s"`

	ClientURL string `envconfig:"CLIENT_URL" default:"http://localhost:3000"`

	// Websocket tuning
	WSSendBuffer   int           `envconfig:"WS_SEND_BUFFER" default:"64"`
	WSPingInterval time.Duration `envconfig:"WS_PING_INTERVAL" default:"25s"`
	WSMaxMessage   int64         `envconfig:"WS_MAX_MESSAGE_BYTES" default:"8192"`

	// Rate limiting
	RateLimitWhitelist []string `envconfig:"RATE_LIMIT_WHITELIST"` // IPs or CIDRs exempt from rate limiting
	AutoBlockEnabled   bool     `envconfig:"AUTO_BLOCK_ENABLED" default:"false"`
	SocketMessageLimit int      `envconfig:"SOCKET_MESSAGE_LIMIT" default:"60"` // sendMessage events per sender per minute
}

// Load reads configuration from environment variables.
// In development, it loads from .env file if present.
func Load() (*Config, error) {
	// Load .env file if it exists (for development)
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	cfg.RateLimitWhitelist = trimEntries(cfg.RateLimitWhitelist)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	// In production, require a networked database
	if c.Env == "production" && c.MongoURI == "" && c.DatabaseURL == "" {
		return fmt.Errorf("config: MONGO_URI or DATABASE_URL is required in production")
	}
	if c.StoreTimeout <= 0 {
		return fmt.Errorf("config: STORE_TIMEOUT must be positive")
	}
	if c.WSSendBuffer <= 0 {
		return fmt.Errorf("config: WS_SEND_BUFFER must be positive")
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func trimEntries(entries []string) []string {
	out := entries[:0]
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry != "" {
			out = append(out, entry)
		}
	}
	return out
}
