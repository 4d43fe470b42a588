// Package sqlstore implements board persistence on database/sql for the
// Postgres (pgx) and SQLite (modernc) drivers. Queries are written with ?
// placeholders and rebound per dialect. Timestamps are stored as Unix
// nanoseconds; gems and engravings as JSON text.
package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/forgo/lfg/internal/database"
)

// Store bundles the SQL repositories over one connection pool.
type Store struct {
	db      *sql.DB
	dialect database.Dialect

	Users      *UserRepository
	Characters *CharacterRepository
	Posts      *PostRepository
}

// New wires the repositories. The schema must already be migrated.
func New(db *sql.DB, dialect database.Dialect) *Store {
	base := conn{db: db, dialect: dialect}
	return &Store{
		db:         db,
		dialect:    dialect,
		Users:      &UserRepository{conn: base},
		Characters: &CharacterRepository{conn: base},
		Posts:      &PostRepository{conn: base},
	}
}

// DB returns the underlying pool.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Ping checks the connection
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", database.ErrConnection, err)
	}
	return nil
}

type conn struct {
	db      *sql.DB
	dialect database.Dialect
}

func (c conn) q(query string) string {
	return c.dialect.Rebind(query)
}

func toNanos(t time.Time) int64 {
	return t.UTC().UnixNano()
}

func fromNanos(v int64) time.Time {
	return time.Unix(0, v).UTC()
}

func encodeJSON(v interface{}) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	if string(data) == "null" {
		return "[]", nil
	}
	return string(data), nil
}

func decodeJSON(s string, out interface{}) error {
	if s == "" {
		return nil
	}
	return json.Unmarshal([]byte(s), out)
}
