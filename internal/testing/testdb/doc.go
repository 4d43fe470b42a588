// Package testdb provides real database environments for repository tests.
//
// SQLite always runs: each test gets a migrated file in t.TempDir().
//
//	func TestSomething(t *testing.T) {
//	    db := testdb.NewSQLite(t)
//	    store := sqlstore.New(db, database.DialectSQLite)
//	}
//
// # Server Backends
//
// Postgres and SurrealDB need a running server and are skipped otherwise:
//
//	TEST_POSTGRES_DSN   URL-form DSN; each test migrates a private schema
//	TEST_DB_HOST        SurrealDB host; each test gets a private namespace
//	TEST_DB_PORT, TEST_DB_USER, TEST_DB_PASSWORD
//
// Cleanup is registered with t.Cleanup, so callers never close anything.
package testdb
