// Package config manages application configuration for the LFG board.
//
// Configuration is read from environment variables into tagged structs and
// checked with Validate, which reports every problem at once:
//
//	cfg, err := config.Load()
//	if err != nil { ... }
//	if err := cfg.Validate(); err != nil { ... }
//
// # Configuration Groups
//
//   - ServerConfig: HTTP port, timeouts, CORS, log level
//   - StorageConfig: STORAGE_DRIVER plus SurrealDB, Postgres and SQLite settings
//   - JWTConfig: RSA key paths and issuer for bearer tokens
//   - BoardConfig: display timezone and locale, dispatcher limits
//   - TelemetryConfig: OTLP trace export
//
// # Environment Variables
//
//	SERVER_PORT          HTTP port (default: 8080)
//	STORAGE_DRIVER       surrealdb | postgres | sqlite (default: sqlite)
//	SQLITE_PATH          database file (default: ./data/lfg.db)
//	POSTGRES_DSN         connection string for postgres
//	DB_HOST, DB_PORT     SurrealDB endpoint
//	DISPLAY_TIMEZONE     zone used for weekday and time labels (default: Europe/Helsinki)
//	DISPLAY_LOCALE       fallback date locale (default: fi)
//	OTEL_ENDPOINT        OTLP/HTTP collector; tracing is off when empty
package config
