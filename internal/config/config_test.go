package config

import (
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"
)

func validBaseConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           "8080",
			Env:            "development",
			AllowedOrigins: []string{"http://localhost:3000"},
			LogLevel:       "info",
		},
		Storage: StorageConfig{
			Driver: DriverSQLite,
			SQLite: SQLiteConfig{Path: "./data/lfg.db"},
		},
		JWT: JWTConfig{
			PrivateKeyPath: "./keys/private.pem",
			PublicKeyPath:  "./keys/public.pem",
			ExpirationMins: 60,
			Issuer:         "lfg.forgo.software",
		},
		Board: BoardConfig{
			Timezone:            "Europe/Helsinki",
			Locale:              "fi",
			DispatchTimeout:     30 * time.Second,
			DispatchConcurrency: 4,
		},
	}
}

func assertMentions(t *testing.T, err error, key string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error mentioning %s", key)
	}
	if !strings.Contains(err.Error(), key) {
		t.Errorf("expected error to mention %s, got: %v", key, err)
	}
}

// ============================================================================
// Validate Tests
// ============================================================================

func TestConfig_Validate_ValidConfig(t *testing.T) {
	if err := validBaseConfig().Validate(); err != nil {
		t.Errorf("expected valid config, got error: %v", err)
	}
}

func TestConfig_Validate_InvalidServerEnv(t *testing.T) {
	cfg := validBaseConfig()
	cfg.Server.Env = "staging"

	assertMentions(t, cfg.Validate(), "SERVER_ENV")
}

func TestConfig_Validate_EmptyAllowedOrigins(t *testing.T) {
	cfg := validBaseConfig()
	cfg.Server.AllowedOrigins = nil

	assertMentions(t, cfg.Validate(), "CORS_ALLOWED_ORIGINS")
}

func TestConfig_Validate_UnknownDriver(t *testing.T) {
	cfg := validBaseConfig()
	cfg.Storage.Driver = "mongodb"

	assertMentions(t, cfg.Validate(), "STORAGE_DRIVER")
}

func TestConfig_Validate_PostgresNeedsDSN(t *testing.T) {
	cfg := validBaseConfig()
	cfg.Storage.Driver = DriverPostgres

	assertMentions(t, cfg.Validate(), "POSTGRES_DSN")
}

func TestConfig_Validate_SurrealNeedsHost(t *testing.T) {
	cfg := validBaseConfig()
	cfg.Storage.Driver = DriverSurrealDB
	cfg.Storage.SurrealDB = SurrealDBConfig{Port: "8000", Namespace: "lfg", Database: "main"}

	assertMentions(t, cfg.Validate(), "DB_HOST")
}

func TestConfig_Validate_BadTimezone(t *testing.T) {
	cfg := validBaseConfig()
	cfg.Board.Timezone = "Mars/Olympus_Mons"

	assertMentions(t, cfg.Validate(), "DISPLAY_TIMEZONE")
}

func TestConfig_Validate_BadLocale(t *testing.T) {
	cfg := validBaseConfig()
	cfg.Board.Locale = "not a tag!"

	assertMentions(t, cfg.Validate(), "DISPLAY_LOCALE")
}

func TestConfig_Validate_CollectsAllErrors(t *testing.T) {
	cfg := validBaseConfig()
	cfg.Server.Port = ""
	cfg.JWT.ExpirationMins = 0
	cfg.Board.DispatchConcurrency = 0

	err := cfg.Validate()
	for _, key := range []string{"SERVER_PORT", "JWT_EXPIRATION_MINS", "DISPATCH_CONCURRENCY"} {
		assertMentions(t, err, key)
	}
}

// ============================================================================
// Load Tests
// ============================================================================

// unsetEnv clears key for the duration of the test.
func unsetEnv(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	_ = os.Unsetenv(key)
}

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"STORAGE_DRIVER", "SERVER_PORT", "DISPATCH_TIMEOUT"} {
		unsetEnv(t, key)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != "8080" {
		t.Errorf("expected default port 8080, got %q", cfg.Server.Port)
	}
	if cfg.Storage.Driver != DriverSQLite {
		t.Errorf("expected sqlite driver by default, got %q", cfg.Storage.Driver)
	}
	if cfg.Board.DispatchTimeout != 30*time.Second {
		t.Errorf("expected 30s dispatch timeout, got %s", cfg.Board.DispatchTimeout)
	}
}

func TestLoad_ReadsEnvironment(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", " Postgres ")
	t.Setenv("POSTGRES_DSN", "postgres://lfg@localhost/lfg")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.test,http://b.test")
	t.Setenv("DISPATCH_CONCURRENCY", "2")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Storage.Driver != DriverPostgres {
		t.Errorf("expected normalized postgres driver, got %q", cfg.Storage.Driver)
	}
	if cfg.Storage.Postgres.DSN != "postgres://lfg@localhost/lfg" {
		t.Errorf("unexpected DSN %q", cfg.Storage.Postgres.DSN)
	}
	if len(cfg.Server.AllowedOrigins) != 2 {
		t.Errorf("expected 2 origins, got %v", cfg.Server.AllowedOrigins)
	}
	if cfg.Board.DispatchConcurrency != 2 {
		t.Errorf("expected concurrency 2, got %d", cfg.Board.DispatchConcurrency)
	}
}

func TestLoad_InvalidValue(t *testing.T) {
	t.Setenv("DISPATCH_CONCURRENCY", "many")

	_, err := Load()
	if err == nil || !strings.Contains(err.Error(), "parse env:") {
		t.Errorf("expected parse env error, got %v", err)
	}
}

func TestConfig_LogLevel(t *testing.T) {
	cfg := validBaseConfig()
	cfg.Server.LogLevel = "debug"
	if cfg.LogLevel() != slog.LevelDebug {
		t.Errorf("expected debug, got %s", cfg.LogLevel())
	}
	cfg.Server.LogLevel = "loud"
	if cfg.LogLevel() != slog.LevelInfo {
		t.Errorf("expected fallback to info, got %s", cfg.LogLevel())
	}
}
