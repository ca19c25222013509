/*
config.go - Process configuration

PURPOSE:
  Reads server settings from the environment (optionally seeded from a
  .env file), lets command-line flags override the common ones, and
  validates the result before anything is started.

ENVIRONMENT:
  PORT           HTTP port (default 8080)
  DB_PATH        SQLite file, ":memory:", or "memory" for the in-memory store
  TIMEZONE       IANA zone that decides where a day starts (default UTC)
  LOG_LEVEL      debug | info | warn | error (default info)
  LOG_FORMAT     text | json (default text)
  AMQP_URL       RabbitMQ URL; empty disables AMQP publishing
  AMQP_EXCHANGE  Topic exchange for events (default hydration)
  JWT_SECRET     HS256 secret; empty falls back to the X-Account-ID header
  CORS_ORIGINS   Comma-separated allowed origins (default *)
  ENABLE_ADMIN   true mounts POST /api/admin/reset (default false)
  SHUTDOWN_TIMEOUT  Graceful shutdown budget (default 30s)

FLAGS:
  -port, -db override PORT and DB_PATH.
*/
package config

import (
	"flag"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"

	"github.com/warp/hydration-engine/logging"
)

// MemoryBackend as DB_PATH selects the in-memory store.
const MemoryBackend = "memory"

type Config struct {
	// HTTP Server
	Port        string
	CORSOrigins []string

	// Storage
	DBPath string

	// Day boundaries
	Timezone string

	// Logging
	LogLevel  string
	LogFormat string

	// AMQP
	AMQPURL      string
	AMQPExchange string

	// Identity
	JWTSecret string

	// Dev only
	EnableAdmin bool

	ShutdownTimeout time.Duration
}

// Load reads .env (if present) and the environment.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:        getEnv("PORT", "8080"),
		CORSOrigins: splitList(getEnv("CORS_ORIGINS", "*")),

		DBPath:   getEnv("DB_PATH", "hydration.db"),
		Timezone: getEnv("TIMEZONE", "UTC"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "hydration"),

		JWTSecret:   getEnv("JWT_SECRET", ""),
		EnableAdmin: getEnvBool("ENABLE_ADMIN", false),

		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
	}
}

// ParseFlags lets -port and -db override the loaded values.
func (c *Config) ParseFlags(fs *flag.FlagSet, args []string) error {
	fs.StringVar(&c.Port, "port", c.Port, "HTTP server port")
	fs.StringVar(&c.DBPath, "db", c.DBPath, `SQLite database path (":memory:" for in-memory SQLite, "memory" for the in-memory store)`)
	return fs.Parse(args)
}

// UseMemoryStore reports whether the in-memory store was requested.
func (c *Config) UseMemoryStore() bool {
	return c.DBPath == MemoryBackend
}

// Location returns the configured time zone. Call Validate first.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Logging returns the logger configuration. Call Validate first.
func (c *Config) Logging() logging.Config {
	cfg := logging.DefaultConfig()
	if level, err := logging.ParseLevel(c.LogLevel); err == nil {
		cfg.Level = level
	}
	cfg.Format = c.LogFormat
	cfg.Component = "server"
	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.DBPath == "" {
		errors = append(errors, "database path cannot be empty")
	} else if !c.UseMemoryStore() && c.DBPath != ":memory:" {
		dir := filepath.Dir(c.DBPath)
		if dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create database directory '%s': %v", dir, err))
				}
			}
		}
	}

	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errors = append(errors, fmt.Sprintf("invalid timezone '%s': %v", c.Timezone, err))
	}

	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be debug, info, warn or error", c.LogLevel))
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be text or json", c.LogFormat))
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
	}

	if c.ShutdownTimeout < time.Second {
		errors = append(errors, fmt.Sprintf("invalid shutdown timeout %v: must be at least 1 second", c.ShutdownTimeout))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
