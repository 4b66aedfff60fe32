// Package config loads the ledger configuration from the environment.
//
// Responsibilities:
//   - Load environment variables (optionally from a `.env` file).
//   - Map env vars into a structured Go config (structs).
//   - Validate required values so the app fails fast on bad/missing config.
//   - Provide defaults for optional blocks (observability, ledger, rate limit).
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	// Side-effect import: loads a `.env` file into the process environment
	// before any variable is read.
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

/*
	Env vars are read with the LEDGER_ prefix. The prefix is removed, the key
	lowercased, and a double underscore separates nesting levels:

	  LEDGER_DATABASE__HOST        -> database.host        -> Config.Database.Host
	  LEDGER_SERVER__READ_TIMEOUT  -> server.read_timeout  -> Config.Server.ReadTimeout
*/

// EnvPrefix is the prefix of every environment variable the ledger reads.
const EnvPrefix = "LEDGER_"

// Config is the root configuration object.
type Config struct {
	Primary       Primary              `koanf:"primary" validate:"required"`
	Server        ServerConfig         `koanf:"server" validate:"required"`
	Database      DatabaseConfig       `koanf:"database" validate:"required"`
	Redis         RedisConfig          `koanf:"redis"`
	Ledger        LedgerConfig         `koanf:"ledger"`
	Notifications NotificationsConfig  `koanf:"notifications"`
	RateLimit     RateLimitConfig      `koanf:"rate_limit"`
	Observability *ObservabilityConfig `koanf:"observability"`
}

// Primary holds top-level information about the runtime environment.
type Primary struct {
	Env string `koanf:"env" validate:"required"`
}

// ServerConfig groups settings for the HTTP server. Timeouts are seconds.
type ServerConfig struct {
	Port               string   `koanf:"port" validate:"required"`
	ReadTimeout        int      `koanf:"read_timeout" validate:"required"`
	WriteTimeout       int      `koanf:"write_timeout" validate:"required"`
	IdleTimeout        int      `koanf:"idle_timeout" validate:"required"`
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins" validate:"required"`
}

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// DatabaseConfig selects the backend and carries its connection parameters.
//
// The postgres fields are required only when Driver is "postgres"; Path is
// required only for "sqlite" (the embedded file database).
type DatabaseConfig struct {
	Driver          string `koanf:"driver" validate:"required,oneof=postgres sqlite"`
	Host            string `koanf:"host" validate:"required_if=Driver postgres"`
	Port            int    `koanf:"port" validate:"required_if=Driver postgres"`
	User            string `koanf:"user" validate:"required_if=Driver postgres"`
	Password        string `koanf:"password" validate:"required_if=Driver postgres"`
	Name            string `koanf:"name" validate:"required_if=Driver postgres"`
	SSLMode         string `koanf:"ssl_mode" validate:"required_if=Driver postgres"`
	Path            string `koanf:"path" validate:"required_if=Driver sqlite"`
	MaxOpenConns    int    `koanf:"max_open_conns"`
	MaxIdleConns    int    `koanf:"max_idle_conns"`
	ConnMaxLifetime int    `koanf:"conn_max_lifetime"`
	ConnMaxIdleTime int    `koanf:"conn_max_idle_time"`
}

// RedisConfig contains the Redis address ("host:port"). Redis backs the
// notification jobs and is optional when notifications are disabled.
type RedisConfig struct {
	Address string `koanf:"address"`
}

// LedgerConfig tunes the maintenance ledger itself.
type LedgerConfig struct {
	// ConfirmTTL is how long a pending delete confirmation stays armed.
	ConfirmTTL time.Duration `koanf:"confirm_ttl"`
}

// NotificationsConfig controls maintenance reminders and machine-down alerts.
type NotificationsConfig struct {
	Enabled      bool   `koanf:"enabled"`
	ResendAPIKey string `koanf:"resend_api_key" validate:"required_if=Enabled true"`
	From         string `koanf:"from" validate:"required_if=Enabled true"`
	Recipient    string `koanf:"recipient" validate:"omitempty,email"`
}

// RateLimitConfig bounds API requests per client IP. Zero disables the limiter.
type RateLimitConfig struct {
	RequestsPerSecond float64 `koanf:"requests_per_second" validate:"gte=0"`
	Burst             int     `koanf:"burst" validate:"gte=0"`
}

func (n NotificationsConfig) validate(redis RedisConfig) error {
	if !n.Enabled {
		return nil
	}
	if n.Recipient == "" {
		return fmt.Errorf("notifications.recipient is required when notifications are enabled")
	}
	if redis.Address == "" {
		return fmt.Errorf("redis.address is required when notifications are enabled")
	}
	return nil
}

// LoadConfig loads configuration from environment variables, applies defaults
// and validates the result.
func LoadConfig() (*Config, error) {
	k := koanf.New(".")

	err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("could not load env variables: %w", err)
	}

	mainConfig := &Config{}
	if err := k.Unmarshal("", mainConfig); err != nil {
		return nil, fmt.Errorf("could not unmarshal main config: %w", err)
	}

	mainConfig.applyDefaults()

	if err := validator.New().Struct(mainConfig); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	if err := mainConfig.Notifications.validate(mainConfig.Redis); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	if mainConfig.Observability == nil {
		mainConfig.Observability = DefaultObservabilityConfig()
	}

	// Service name and environment are not configurable.
	mainConfig.Observability.ServiceName = ServiceName
	mainConfig.Observability.Environment = mainConfig.Primary.Env

	if err := mainConfig.Observability.Validate(); err != nil {
		return nil, fmt.Errorf("invalid observability config: %w", err)
	}

	return mainConfig, nil
}

func (c *Config) applyDefaults() {
	if c.Database.Driver == DriverPostgres {
		if c.Database.MaxOpenConns == 0 {
			c.Database.MaxOpenConns = 10
		}
		if c.Database.MaxIdleConns == 0 {
			c.Database.MaxIdleConns = 2
		}
	}
	if c.Ledger.ConfirmTTL == 0 {
		c.Ledger.ConfirmTTL = 5 * time.Minute
	}
}

// IsLocal reports whether the app runs on a developer machine.
func (c *Config) IsLocal() bool {
	return c.Primary.Env == "local"
}
