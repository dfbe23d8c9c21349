package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// DefaultSessionSecret is only suitable for local development.
const DefaultSessionSecret = "development key"

// Config holds the application configuration.
type Config struct {
	ServerPort     int           `toml:"port"`
	DatabasePath   string        `toml:"database_path"`
	SeedsPath      string        `toml:"seeds_path"`
	SessionSecret  string        `toml:"session_secret"`
	SessionTTL     time.Duration `toml:"-"`
	TodosPerPage   int           `toml:"todos_per_page"`
	Production     bool          `toml:"production"`
	LogLevel       string        `toml:"log_level"`
	AllowedOrigins []string      `toml:"allowed_origins"`
	EventRetention time.Duration `toml:"-"`
	PruneSchedule  string        `toml:"prune_schedule"`

	// Durations are written as strings in the file, e.g. "24h".
	SessionTTLRaw     string `toml:"session_ttl"`
	EventRetentionRaw string `toml:"event_retention"`
}

// Defaults returns the built-in configuration.
func Defaults() *Config {
	return &Config{
		ServerPort:     8080,
		DatabasePath:   "./todo.db",
		SeedsPath:      "resources/seeds.json",
		SessionSecret:  DefaultSessionSecret,
		SessionTTL:     24 * time.Hour,
		TodosPerPage:   10,
		LogLevel:       "info",
		AllowedOrigins: []string{"http://localhost:3000"},
		EventRetention: 30 * 24 * time.Hour,
		PruneSchedule:  "0 3 * * *",
	}
}

// Load builds the configuration from defaults, then the optional TOML file
// at path, then environment variables.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.resolveDurations(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if v, ok := os.LookupEnv("PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		cfg.ServerPort = port
	}
	if v, ok := os.LookupEnv("TODOS_PER_PAGE"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid TODOS_PER_PAGE %q: %w", v, err)
		}
		cfg.TodosPerPage = n
	}

	cfg.DatabasePath = getEnv("DATABASE_PATH", cfg.DatabasePath)
	cfg.SeedsPath = getEnv("SEEDS_PATH", cfg.SeedsPath)
	cfg.SessionSecret = getEnv("SESSION_SECRET", cfg.SessionSecret)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.PruneSchedule = getEnv("PRUNE_SCHEDULE", cfg.PruneSchedule)
	cfg.SessionTTLRaw = getEnv("SESSION_TTL", cfg.SessionTTLRaw)
	cfg.EventRetentionRaw = getEnv("EVENT_RETENTION", cfg.EventRetentionRaw)

	if v, ok := os.LookupEnv("APP_ENV"); ok {
		cfg.Production = v == "production"
	}
	if v, ok := os.LookupEnv("ALLOWED_ORIGINS"); ok {
		cfg.AllowedOrigins = splitList(v)
	}
	return nil
}

func (c *Config) resolveDurations() error {
	if c.SessionTTLRaw != "" {
		d, err := time.ParseDuration(c.SessionTTLRaw)
		if err != nil {
			return fmt.Errorf("invalid session ttl %q: %w", c.SessionTTLRaw, err)
		}
		c.SessionTTL = d
	}
	if c.EventRetentionRaw != "" {
		d, err := time.ParseDuration(c.EventRetentionRaw)
		if err != nil {
			return fmt.Errorf("invalid event retention %q: %w", c.EventRetentionRaw, err)
		}
		c.EventRetention = d
	}
	return nil
}

// Validate reports the first setting that cannot be used.
func (c *Config) Validate() error {
	switch {
	case c.ServerPort <= 0 || c.ServerPort > 65535:
		return fmt.Errorf("port out of range: %d", c.ServerPort)
	case c.DatabasePath == "":
		return errors.New("database path is required")
	case c.SessionSecret == "":
		return errors.New("session secret is required")
	case c.Production && c.SessionSecret == DefaultSessionSecret:
		return errors.New("session secret must be set in production")
	case c.SessionTTL <= 0:
		return fmt.Errorf("session ttl must be positive: %s", c.SessionTTL)
	case c.TodosPerPage <= 0:
		return fmt.Errorf("todos per page must be positive: %d", c.TodosPerPage)
	case c.EventRetention <= 0:
		return fmt.Errorf("event retention must be positive: %s", c.EventRetention)
	}
	return nil
}

// Helper to get an environment variable with a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
