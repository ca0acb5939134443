package db

import (
	"fmt"
	"log"
)

// schema is applied statement-by-statement at startup. Everything is
// IF NOT EXISTS so re-running against an existing database is a no-op.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS file_records (
		file_name  TEXT PRIMARY KEY,
		title      TEXT NOT NULL,
		year       TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS movie_details (
		imdb_id     TEXT PRIMARY KEY,
		title       TEXT NOT NULL,
		year        TEXT NOT NULL DEFAULT '',
		rated       TEXT NOT NULL DEFAULT '',
		runtime     TEXT NOT NULL DEFAULT '',
		genre       TEXT NOT NULL DEFAULT '',
		plot        TEXT NOT NULL DEFAULT '',
		language    TEXT NOT NULL DEFAULT '',
		country     TEXT NOT NULL DEFAULT '',
		awards      TEXT NOT NULL DEFAULT '',
		poster_url  TEXT NOT NULL DEFAULT '',
		metascore   TEXT NOT NULL DEFAULT '',
		imdb_rating TEXT NOT NULL DEFAULT '',
		imdb_votes  TEXT NOT NULL DEFAULT '',
		type        TEXT NOT NULL DEFAULT '',
		created_at  TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS posters (
		imdb_id TEXT PRIMARY KEY REFERENCES movie_details(imdb_id) ON DELETE CASCADE,
		title   TEXT NOT NULL DEFAULT '',
		url     TEXT NOT NULL DEFAULT '',
		mime    TEXT NOT NULL DEFAULT '',
		image   BLOB
	)`,
	`CREATE TABLE IF NOT EXISTS user_statuses (
		imdb_id     TEXT PRIMARY KEY,
		is_favorite BOOLEAN NOT NULL DEFAULT 0,
		is_watched  BOOLEAN NOT NULL DEFAULT 0,
		updated_at  TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS categories (
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL,
		is_system  BOOLEAN NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_categories_name
		ON categories (name COLLATE NOCASE)`,
	`CREATE TABLE IF NOT EXISTS movie_categories (
		imdb_id     TEXT NOT NULL,
		category_id TEXT NOT NULL REFERENCES categories(id) ON DELETE CASCADE,
		UNIQUE (imdb_id, category_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_movie_categories_imdb
		ON movie_categories (imdb_id)`,
	`CREATE TABLE IF NOT EXISTS settings (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL DEFAULT ''
	)`,
}

// Migrate brings the database schema up to date.
func Migrate(db *DB) error {
	for i, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migration statement %d failed: %w", i, err)
		}
	}
	log.Printf("db: schema up to date (%d statements)", len(schema))
	return nil
}
