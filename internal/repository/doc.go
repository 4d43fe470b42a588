// Package repository implements board persistence on SurrealDB.
//
// Each repository wraps a database.Database and speaks SurrealQL:
//
//   - UserRepository: directory entries (display name and role)
//   - CharacterRepository: characters with gems, engravings and gear set
//   - PostRepository: posts and their applicant rosters
//
// Ids are bare uuids; records live at type::thing(table, id). GetByID
// methods return (nil, nil) when the record does not exist.
//
// Roster writes run inside a transaction block so the capacity and
// one-entry-per-character guards hold under concurrent joins. Guard
// failures surface as database.ErrLimitExceeded and database.ErrDuplicate.
//
// The SQL implementation of the same contracts lives in package sqlstore.
package repository
