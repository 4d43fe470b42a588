// Package database provides storage connectivity for the LFG board.
//
// Two families of backends are supported:
//
//   - SurrealDB through the Database interface (Query, QueryOne, Execute),
//     used by the SurrealQL repositories. AtomicBatch wraps several
//     statements in one transaction block.
//   - Postgres and SQLite through database/sql. OpenPostgres and OpenSQLite
//     return a ready *sql.DB and Migrate applies the embedded goose schema
//     for the chosen Dialect.
//
// # Error Types
//
// Repositories translate driver errors into these sentinels:
//
//   - ErrNotFound: record does not exist
//   - ErrDuplicate: unique constraint violation (character already on a roster)
//   - ErrLimitExceeded: roster is full
//   - ErrConnection: connect or ping failed
//   - ErrQuery: anything else the driver rejected
package database
