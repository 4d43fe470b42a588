package database

import (
	"context"
	"errors"
	"fmt"
)

// Standard errors for database operations.
// Repositories translate driver errors into these; check with errors.Is.
var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate indicates a unique constraint violation (e.g., a character already on a roster).
	ErrDuplicate = errors.New("duplicate record")

	// ErrConnection indicates a failure to connect to or communicate with the database.
	ErrConnection = errors.New("database connection error")

	// ErrQuery indicates a query execution failure (syntax error, invalid reference, etc.).
	ErrQuery = errors.New("query error")

	// ErrLimitExceeded indicates a capacity guard rejected the write (e.g., a full roster).
	ErrLimitExceeded = errors.New("limit exceeded")

	// ErrConflict indicates a concurrent transaction won; the write can be retried.
	ErrConflict = errors.New("transaction conflict")
)

// Database is the document-store abstraction used by the SurrealQL repositories.
type Database interface {
	Connect(ctx context.Context) error
	Close() error
	Ping(ctx context.Context) error

	// Query executes a query and returns one {status, result} entry per statement
	Query(ctx context.Context, query string, vars map[string]interface{}) ([]interface{}, error)

	// QueryOne executes a query and returns the first record of the first statement
	QueryOne(ctx context.Context, query string, vars map[string]interface{}) (interface{}, error)

	// Execute runs a query without returning results (for mutations)
	Execute(ctx context.Context, query string, vars map[string]interface{}) error
}

// Config holds SurrealDB connection settings
type Config struct {
	Host      string
	Port      string
	User      string
	Password  string
	Namespace string
	Database  string
}

// Endpoint returns the websocket RPC endpoint.
func (c Config) Endpoint() string {
	return fmt.Sprintf("ws://%s:%s", c.Host, c.Port)
}
