package db

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

type DB struct {
	*sql.DB
}

// Open opens (or creates) the embedded SQLite database at path.
// Foreign keys are enabled so poster/status/link rows follow their movie.
func Open(path string) (*DB, error) {
	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	// SQLite handles one writer at a time; a single connection avoids
	// SQLITE_BUSY churn under concurrent batch writes.
	db.SetMaxOpenConns(1)
	return &DB{db}, nil
}

// OpenMemory opens a throwaway in-memory database, used by tests.
func OpenMemory() (*DB, error) {
	return Open(":memory:")
}
