package database

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestSQLite(t *testing.T) *sql.DB {
	t.Helper()
	db, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "lfg.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, Migrate(context.Background(), db, DialectSQLite))
	return db
}

func TestDialect_Rebind(t *testing.T) {
	q := "SELECT * FROM posts WHERE id = ? AND owner_id = ?"

	assert.Equal(t, "SELECT * FROM posts WHERE id = $1 AND owner_id = $2", DialectPostgres.Rebind(q))
	assert.Equal(t, q, DialectSQLite.Rebind(q))
}

func TestDialect_LockSuffix(t *testing.T) {
	assert.Equal(t, " FOR UPDATE", DialectPostgres.LockSuffix())
	assert.Empty(t, DialectSQLite.LockSuffix())
}

func TestOpenSQLite_RequiresPath(t *testing.T) {
	_, err := OpenSQLite(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrConnection)
}

func TestOpenPostgres_RequiresDSN(t *testing.T) {
	_, err := OpenPostgres(context.Background(), "")
	assert.ErrorIs(t, err, ErrConnection)
}

func TestMigrate_SQLiteCreatesBoardTables(t *testing.T) {
	db := openTestSQLite(t)

	for _, table := range []string{"users", "characters", "posts", "applicants"} {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		require.NoError(t, err, "table %s", table)
	}

	// Running again is a no-op.
	require.NoError(t, Migrate(context.Background(), db, DialectSQLite))
}

func TestMigrate_PropagatesGooseFailure(t *testing.T) {
	db := openTestSQLite(t)

	orig := gooseUp
	gooseUp = func(context.Context, *sql.DB, string) error { return errors.New("boom") }
	t.Cleanup(func() { gooseUp = orig })

	err := Migrate(context.Background(), db, DialectSQLite)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "migrate sqlite")
}

func TestWithTx_CommitAndRollback(t *testing.T) {
	db := openTestSQLite(t)
	ctx := context.Background()

	insert := `INSERT INTO users (id, display_name, role, created_on, updated_on) VALUES (?, ?, 'user', 0, 0)`

	err := WithTx(ctx, db, func(ctx context.Context, tx DBTX) error {
		_, err := tx.ExecContext(ctx, insert, "u1", "Aino")
		return err
	})
	require.NoError(t, err)

	sentinel := errors.New("abort")
	err = WithTx(ctx, db, func(ctx context.Context, tx DBTX) error {
		if _, err := tx.ExecContext(ctx, insert, "u2", "Bertta"); err != nil {
			return err
		}
		return sentinel
	})
	require.ErrorIs(t, err, sentinel)

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&n))
	assert.Equal(t, 1, n)
}

func TestIsUniqueViolation_SQLite(t *testing.T) {
	db := openTestSQLite(t)
	insert := `INSERT INTO users (id, display_name, role, created_on, updated_on) VALUES ('dup', '', 'user', 0, 0)`

	_, err := db.Exec(insert)
	require.NoError(t, err)
	_, err = db.Exec(insert)
	require.Error(t, err)

	assert.True(t, IsUniqueViolation(err))
	assert.False(t, IsUniqueViolation(errors.New("unique in name only")))
	assert.False(t, IsUniqueViolation(nil))
}
