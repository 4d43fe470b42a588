package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/caarlos0/env/v11"
	"golang.org/x/text/language"
)

// Storage drivers
const (
	DriverSurrealDB = "surrealdb"
	DriverPostgres  = "postgres"
	DriverSQLite    = "sqlite"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Storage   StorageConfig
	JWT       JWTConfig
	Board     BoardConfig
	Telemetry TelemetryConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port           string        `env:"SERVER_PORT" envDefault:"8080"`
	Env            string        `env:"SERVER_ENV" envDefault:"development"`
	ReadTimeout    time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout   time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"15s"`
	AllowedOrigins []string      `env:"CORS_ALLOWED_ORIGINS" envDefault:"http://localhost:3000" envSeparator:","`
	LogLevel       string        `env:"LOG_LEVEL" envDefault:"info"`
}

// StorageConfig selects and configures the persistence backend
type StorageConfig struct {
	Driver    string `env:"STORAGE_DRIVER" envDefault:"sqlite"`
	SurrealDB SurrealDBConfig
	Postgres  PostgresConfig
	SQLite    SQLiteConfig
}

// SurrealDBConfig holds SurrealDB connection settings
type SurrealDBConfig struct {
	Host      string `env:"DB_HOST" envDefault:"localhost"`
	Port      string `env:"DB_PORT" envDefault:"8000"`
	Namespace string `env:"DB_NAMESPACE" envDefault:"lfg"`
	Database  string `env:"DB_DATABASE" envDefault:"main"`
	User      string `env:"DB_USER" envDefault:"root"`
	Password  string `env:"DB_PASSWORD" envDefault:"root"`
}

// PostgresConfig holds the Postgres DSN
type PostgresConfig struct {
	DSN string `env:"POSTGRES_DSN"`
}

// SQLiteConfig holds the embedded database path
type SQLiteConfig struct {
	Path string `env:"SQLITE_PATH" envDefault:"./data/lfg.db"`
}

// JWTConfig holds token signing settings
type JWTConfig struct {
	PrivateKeyPath string `env:"JWT_PRIVATE_KEY_PATH" envDefault:"./keys/private.pem"`
	PublicKeyPath  string `env:"JWT_PUBLIC_KEY_PATH" envDefault:"./keys/public.pem"`
	ExpirationMins int    `env:"JWT_EXPIRATION_MINS" envDefault:"10080"`
	Issuer         string `env:"JWT_ISSUER" envDefault:"lfg.forgo.software"`
}

// BoardConfig holds presentation and dispatch settings
type BoardConfig struct {
	Timezone            string        `env:"DISPLAY_TIMEZONE" envDefault:"Europe/Helsinki"`
	Locale              string        `env:"DISPLAY_LOCALE" envDefault:"fi"`
	DispatchTimeout     time.Duration `env:"DISPATCH_TIMEOUT" envDefault:"30s"`
	DispatchConcurrency int           `env:"DISPATCH_CONCURRENCY" envDefault:"16"`
}

// TelemetryConfig holds OpenTelemetry export settings
type TelemetryConfig struct {
	Enabled     bool   `env:"OTEL_ENABLED" envDefault:"true"`
	Endpoint    string `env:"OTEL_ENDPOINT"`
	ServiceName string `env:"OTEL_SERVICE_NAME" envDefault:"lfg"`
}

// Load reads configuration from environment variables with sensible defaults
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.Storage.Driver = strings.ToLower(strings.TrimSpace(cfg.Storage.Driver))
	return cfg, nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// Location resolves DISPLAY_TIMEZONE. Validate guarantees it loads.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Board.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// LogLevel maps LOG_LEVEL onto a slog level, defaulting to info.
func (c *Config) LogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Server.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// Validate checks that all required configuration values are present and valid.
// It returns an error describing all validation failures, or nil if valid.
func (c *Config) Validate() error {
	var errs []error

	// Server validation
	if c.Server.Port == "" {
		errs = append(errs, errors.New("SERVER_PORT is required"))
	}
	if c.Server.Env != "development" && c.Server.Env != "production" && c.Server.Env != "test" {
		errs = append(errs, fmt.Errorf("SERVER_ENV must be 'development', 'production', or 'test', got '%s'", c.Server.Env))
	}
	if len(c.Server.AllowedOrigins) == 0 {
		errs = append(errs, errors.New("CORS_ALLOWED_ORIGINS must have at least one origin"))
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Server.LogLevel)); err != nil {
		errs = append(errs, fmt.Errorf("LOG_LEVEL must be debug, info, warn, or error, got '%s'", c.Server.LogLevel))
	}

	// Storage validation
	switch c.Storage.Driver {
	case DriverSurrealDB:
		if c.Storage.SurrealDB.Host == "" {
			errs = append(errs, errors.New("DB_HOST is required"))
		}
		if c.Storage.SurrealDB.Port == "" {
			errs = append(errs, errors.New("DB_PORT is required"))
		}
		if c.Storage.SurrealDB.Namespace == "" {
			errs = append(errs, errors.New("DB_NAMESPACE is required"))
		}
		if c.Storage.SurrealDB.Database == "" {
			errs = append(errs, errors.New("DB_DATABASE is required"))
		}
	case DriverPostgres:
		if c.Storage.Postgres.DSN == "" {
			errs = append(errs, errors.New("POSTGRES_DSN is required when STORAGE_DRIVER is postgres"))
		}
	case DriverSQLite:
		if c.Storage.SQLite.Path == "" {
			errs = append(errs, errors.New("SQLITE_PATH is required when STORAGE_DRIVER is sqlite"))
		}
	default:
		errs = append(errs, fmt.Errorf("STORAGE_DRIVER must be 'surrealdb', 'postgres', or 'sqlite', got '%s'", c.Storage.Driver))
	}

	// JWT validation
	if c.JWT.PublicKeyPath == "" && c.JWT.PrivateKeyPath == "" {
		errs = append(errs, errors.New("JWT_PUBLIC_KEY_PATH or JWT_PRIVATE_KEY_PATH is required"))
	}
	if c.JWT.ExpirationMins <= 0 {
		errs = append(errs, errors.New("JWT_EXPIRATION_MINS must be positive"))
	}
	if c.JWT.Issuer == "" {
		errs = append(errs, errors.New("JWT_ISSUER is required"))
	}

	// Board validation
	if _, err := time.LoadLocation(c.Board.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("DISPLAY_TIMEZONE is not a known zone: %w", err))
	}
	if _, err := language.Parse(c.Board.Locale); err != nil {
		errs = append(errs, fmt.Errorf("DISPLAY_LOCALE is not a BCP 47 tag: %w", err))
	}
	if c.Board.DispatchTimeout < 0 {
		errs = append(errs, errors.New("DISPATCH_TIMEOUT cannot be negative"))
	}
	if c.Board.DispatchConcurrency <= 0 {
		errs = append(errs, errors.New("DISPATCH_CONCURRENCY must be positive"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
