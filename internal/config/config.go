// Package config loads server settings from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"
)

// DevJWTSecret signs tokens when JWT_SECRET is unset in development.
const DevJWTSecret = "dev-secret-change-me"

type Config struct {
	// HTTP server
	Port        string
	FrontendURL string
	Env         string

	// Database
	DBPath string

	// Auth
	JWTSecret string
	JWTTTL    time.Duration

	// Logging
	LogLevel string

	// Rate limiting
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// AMQP; events are disabled when AMQPURL is empty
	AMQPURL      string
	AMQPExchange string
}

// Load reads an optional .env file from the working directory, then the
// environment. Variables already set in the environment take precedence.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	return FromEnv(), nil
}

// FromEnv builds the configuration from environment variables alone.
func FromEnv() *Config {
	cfg := &Config{
		Port:        getEnv("PORT", "5000"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:5173"),
		Env:         strings.ToLower(getEnv("APP_ENV", EnvDevelopment)),

		DBPath: getEnv("DB_PATH", "./data/findash.db"),

		JWTSecret: getEnv("JWT_SECRET", ""),
		JWTTTL:    getEnvDuration("JWT_TTL", 7*24*time.Hour),

		LogLevel: getEnv("LOG_LEVEL", "info"),

		RateLimitRequests: getEnvInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow:   getEnvDuration("RATE_LIMIT_WINDOW", 15*time.Minute),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "findash.events"),
	}

	if cfg.JWTSecret == "" && cfg.IsDevelopment() {
		cfg.JWTSecret = DevJWTSecret
	}

	return cfg
}

// IsDevelopment reports whether detailed errors may be shown to clients.
func (c *Config) IsDevelopment() bool {
	return c.Env == EnvDevelopment
}

// Addr is the listen address.
func (c *Config) Addr() string {
	return ":" + c.Port
}

// Validate validates the configuration and returns every problem at once.
func (c *Config) Validate() error {
	var errs []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errs = append(errs, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	switch c.Env {
	case EnvDevelopment, EnvProduction, EnvTest:
	default:
		errs = append(errs, fmt.Sprintf("invalid environment '%s': must be one of development, production, test", c.Env))
	}

	if c.DBPath == "" {
		errs = append(errs, "database path cannot be empty")
	}

	if c.JWTSecret == "" {
		errs = append(errs, "JWT_SECRET is required outside development")
	} else if !c.IsDevelopment() && c.JWTSecret == DevJWTSecret {
		errs = append(errs, "JWT_SECRET must not use the development default")
	}
	if c.JWTTTL < time.Minute {
		errs = append(errs, fmt.Sprintf("invalid JWT TTL %v: must be at least 1 minute", c.JWTTTL))
	}

	if c.FrontendURL != "" {
		if u, err := url.Parse(c.FrontendURL); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Sprintf("invalid frontend URL '%s': must be an absolute URL", c.FrontendURL))
		}
	}

	if c.RateLimitRequests < 1 {
		errs = append(errs, fmt.Sprintf("invalid rate limit %d: must be at least 1", c.RateLimitRequests))
	}
	if c.RateLimitWindow < time.Second {
		errs = append(errs, fmt.Sprintf("invalid rate limit window %v: must be at least 1 second", c.RateLimitWindow))
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errs = append(errs, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
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
