package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/surrealdb/surrealdb.go"
)

// SurrealDB implements Database over the SurrealDB websocket RPC client
type SurrealDB struct {
	db     *surrealdb.DB
	config Config
}

// NewSurrealDB creates an unconnected SurrealDB instance
func NewSurrealDB(cfg Config) *SurrealDB {
	return &SurrealDB{config: cfg}
}

// Connect dials the endpoint, signs in and selects namespace and database
func (s *SurrealDB) Connect(ctx context.Context) error {
	db, err := surrealdb.FromEndpointURLString(ctx, s.config.Endpoint())
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConnection, err)
	}

	if _, err := db.SignIn(ctx, &surrealdb.Auth{
		Username: s.config.User,
		Password: s.config.Password,
	}); err != nil {
		_ = db.Close(ctx)
		return fmt.Errorf("%w: signin failed: %v", ErrConnection, err)
	}

	if err := db.Use(ctx, s.config.Namespace, s.config.Database); err != nil {
		_ = db.Close(ctx)
		return fmt.Errorf("%w: use failed: %v", ErrConnection, err)
	}

	s.db = db
	return nil
}

// Close closes the connection
func (s *SurrealDB) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close(context.Background())
}

// Ping asks the server for its version
func (s *SurrealDB) Ping(ctx context.Context) error {
	if s.db == nil {
		return ErrConnection
	}
	if _, err := s.db.Version(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrConnection, err)
	}
	return nil
}

// Query runs every statement in query and wraps each statement's outcome as
// {"status": ..., "result": ...}. A failed statement fails the whole call;
// THROW messages from guard clauses are mapped onto the package sentinels.
func (s *SurrealDB) Query(ctx context.Context, query string, vars map[string]interface{}) ([]interface{}, error) {
	if s.db == nil {
		return nil, ErrConnection
	}

	results, err := surrealdb.Query[interface{}](ctx, s.db, query, vars)
	if err != nil {
		return nil, classifyError(err.Error())
	}
	if results == nil {
		return nil, nil
	}

	output := make([]interface{}, 0, len(*results))
	for _, r := range *results {
		if r.Status != "OK" {
			if r.Error != nil {
				return nil, classifyError(r.Error.Message)
			}
			return nil, ErrQuery
		}
		output = append(output, map[string]interface{}{
			"status": r.Status,
			"result": r.Result,
		})
	}
	return output, nil
}

// QueryOne returns the first record of the last statement's result
func (s *SurrealDB) QueryOne(ctx context.Context, query string, vars map[string]interface{}) (interface{}, error) {
	results, err := s.Query(ctx, query, vars)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, ErrNotFound
	}

	last, ok := results[len(results)-1].(map[string]interface{})
	if !ok {
		return results[len(results)-1], nil
	}
	switch data := last["result"].(type) {
	case []interface{}:
		if len(data) == 0 {
			return nil, ErrNotFound
		}
		return data[0], nil
	case nil:
		return nil, ErrNotFound
	default:
		return data, nil
	}
}

// Execute runs a mutation and discards its results
func (s *SurrealDB) Execute(ctx context.Context, query string, vars map[string]interface{}) error {
	_, err := s.Query(ctx, query, vars)
	return err
}

// Guard clauses in SurrealQL use THROW with these markers.
const (
	ThrowRosterFull = "roster_full"
	ThrowDuplicate  = "duplicate"
	ThrowNotFound   = "not_found"
)

func classifyError(msg string) error {
	switch {
	case strings.Contains(msg, ThrowRosterFull):
		return fmt.Errorf("%w: %s", ErrLimitExceeded, msg)
	case strings.Contains(msg, ThrowNotFound):
		return fmt.Errorf("%w: %s", ErrNotFound, msg)
	case strings.Contains(msg, "can be retried"):
		return fmt.Errorf("%w: %s", ErrConflict, msg)
	case strings.Contains(msg, ThrowDuplicate),
		strings.Contains(msg, "already exists"),
		strings.Contains(msg, "already contains"):
		return fmt.Errorf("%w: %s", ErrDuplicate, msg)
	}
	return fmt.Errorf("%w: %s", ErrQuery, msg)
}
