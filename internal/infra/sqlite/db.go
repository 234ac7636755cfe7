// Package sqlite persists bake-off and scoring-run lifecycle state to a
// local SQLite file. Resending an identical run, candidate or current state
// succeeds as a no-op or overwrite, so a resumed orchestrator can resend a
// run it already recorded; the exception is a scoring run in the "scored"
// state, which rejects every further write.
package sqlite

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// DB wraps a *sql.DB already migrated to the current schema.
type DB struct {
	db *sql.DB
}

// Open opens (creating if necessary) the SQLite database at path and runs
// every pending migration. path may be ":memory:" for a throwaway store.
func Open(path string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %s: %w", path, err)
	}
	// SQLite serializes writers; a single connection avoids SQLITE_BUSY
	// under this package's simple upsert workload.
	sqlDB.SetMaxOpenConns(1)

	db := &DB{db: sqlDB}
	if err := db.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("sqlite: migrate: %w", err)
	}
	return db, nil
}

// Close releases the underlying connection.
func (db *DB) Close() error {
	return db.db.Close()
}

func (db *DB) migrate() error {
	for _, stmt := range runsMigrations() {
		if _, err := db.db.Exec(stmt); err != nil {
			return fmt.Errorf("exec migration %q: %w", stmt, err)
		}
	}
	return nil
}
