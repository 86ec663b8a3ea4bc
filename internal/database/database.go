package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// DB is an open SQLite run export.
type DB struct {
	conn *sql.DB
	path string
}

// Open creates or opens the export database at exportPath and brings its
// schema up to date. The export uses a rollback journal, so a closed export
// is a single file.
func Open(exportPath string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(exportPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating export directory: %w", err)
	}

	conn, err := sql.Open("sqlite", exportPath)
	if err != nil {
		return nil, fmt.Errorf("opening export %s: %w", exportPath, err)
	}
	// Pragmas are per connection.
	conn.SetMaxOpenConns(1)

	for _, pragma := range []string{"PRAGMA journal_mode=DELETE", "PRAGMA foreign_keys=ON"} {
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close()
			return nil, fmt.Errorf("configuring export (%s): %w", pragma, err)
		}
	}

	if err := migrate(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrating export %s: %w", exportPath, err)
	}

	return &DB{conn: conn, path: exportPath}, nil
}

// Close closes the export.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Path returns the export file path.
func (db *DB) Path() string {
	return db.path
}
