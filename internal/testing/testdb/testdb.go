package testdb

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/forgo/lfg/internal/database"
)

var (
	// counterMu protects the namespace counter
	counterMu sync.Mutex
	counter   int64
)

func uniqueName(prefix string) string {
	counterMu.Lock()
	defer counterMu.Unlock()
	counter++
	return fmt.Sprintf("%s_%d_%d", prefix, time.Now().UnixNano(), counter)
}

// Ctx returns a context bounded to the test's lifetime.
func Ctx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// NewSQLite opens a migrated SQLite database private to the test.
func NewSQLite(t *testing.T) *sql.DB {
	t.Helper()

	ctx := Ctx(t)
	db, err := database.OpenSQLite(ctx, filepath.Join(t.TempDir(), "lfg.db"))
	if err != nil {
		t.Fatalf("testdb: open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := database.Migrate(ctx, db, database.DialectSQLite); err != nil {
		t.Fatalf("testdb: migrate sqlite: %v", err)
	}
	return db
}

// NewPostgres opens a migrated Postgres database in a schema private to
// the test. Skipped unless TEST_POSTGRES_DSN is set.
func NewPostgres(t *testing.T) *sql.DB {
	t.Helper()

	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("testdb: TEST_POSTGRES_DSN not set")
	}

	ctx := Ctx(t)
	admin, err := database.OpenPostgres(ctx, dsn)
	if err != nil {
		t.Fatalf("testdb: open postgres: %v", err)
	}
	schema := uniqueName("lfg_test")
	if _, err := admin.ExecContext(ctx, "CREATE SCHEMA "+schema); err != nil {
		_ = admin.Close()
		t.Fatalf("testdb: create schema: %v", err)
	}
	t.Cleanup(func() {
		_, _ = admin.ExecContext(context.Background(), "DROP SCHEMA "+schema+" CASCADE")
		_ = admin.Close()
	})

	db, err := database.OpenPostgres(ctx, withSearchPath(dsn, schema))
	if err != nil {
		t.Fatalf("testdb: open postgres schema: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := database.Migrate(ctx, db, database.DialectPostgres); err != nil {
		t.Fatalf("testdb: migrate postgres: %v", err)
	}
	return db
}

func withSearchPath(dsn, schema string) string {
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "search_path=" + schema
}

// TestDB is a SurrealDB connection scoped to a throwaway namespace.
type TestDB struct {
	DB        database.Database
	Namespace string
}

// New connects to SurrealDB under a unique namespace and removes it on
// cleanup. Skipped unless TEST_DB_HOST is set.
func New(t *testing.T) *TestDB {
	t.Helper()

	host := os.Getenv("TEST_DB_HOST")
	if host == "" {
		t.Skip("testdb: TEST_DB_HOST not set")
	}

	cfg := database.Config{
		Host:      host,
		Port:      envOr("TEST_DB_PORT", "8000"),
		User:      envOr("TEST_DB_USER", "root"),
		Password:  envOr("TEST_DB_PASSWORD", "root"),
		Namespace: uniqueName("test"),
		Database:  "test",
	}

	ctx := Ctx(t)
	db := database.NewSurrealDB(cfg)
	if err := db.Connect(ctx); err != nil {
		t.Fatalf("testdb: failed to connect: %v", err)
	}

	tdb := &TestDB{DB: db, Namespace: cfg.Namespace}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = db.Execute(ctx, fmt.Sprintf("REMOVE NAMESPACE %s", tdb.Namespace), nil)
		_ = db.Close()
	})
	return tdb
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
