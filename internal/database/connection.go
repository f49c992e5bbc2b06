package database

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Supported database types
const (
	TypeSQLite   = "sqlite"
	TypePostgres = "postgres"
)

// Connect establishes a connection to the word bank database.
// For SQLite dsn is a file path, for PostgreSQL a connection string.
func Connect(dbType, dsn string) (*sqlx.DB, error) {
	switch dbType {
	case TypePostgres:
		return Open("postgres", dsn)
	case TypeSQLite, "":
		// Create data directory if it doesn't exist
		if dir := filepath.Dir(dsn); dir != "." && dsn != ":memory:" {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create data directory: %w", err)
			}
		}
		return Open("sqlite3", dsn)
	default:
		return nil, fmt.Errorf("unsupported database type %q", dbType)
	}
}

// Open connects with the given driver and initializes the schema
func Open(driver, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if driver == "sqlite3" {
		// A single connection also keeps :memory: databases and the pragma alive
		db.SetMaxOpenConns(1) // SQLite doesn't support multiple writers
		db.SetMaxIdleConns(1)

		// Enable foreign keys
		if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
		}
	}

	if err := initializeSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// initializeSchema creates necessary tables if they don't exist
func initializeSchema(db *sqlx.DB) error {
	idColumn := "id INTEGER PRIMARY KEY AUTOINCREMENT"
	if db.DriverName() == "postgres" {
		idColumn = "id BIGSERIAL PRIMARY KEY"
	}

	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS words (
			` + idColumn + `,
			word TEXT NOT NULL UNIQUE,
			definitions TEXT NOT NULL DEFAULT '[]',
			category TEXT NOT NULL DEFAULT '',
			saved_at BIGINT NOT NULL,
			url TEXT NOT NULL DEFAULT '',
			page_title TEXT NOT NULL DEFAULT '',
			personal_note TEXT NOT NULL DEFAULT '',
			is_favorite BOOLEAN NOT NULL DEFAULT FALSE,
			tags TEXT NOT NULL DEFAULT '[]',
			pronunciation TEXT NOT NULL DEFAULT ''
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create words table: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS word_progress (
			word_id BIGINT PRIMARY KEY,
			correct_count INTEGER NOT NULL DEFAULT 0,
			incorrect_count INTEGER NOT NULL DEFAULT 0,
			total_reviews INTEGER NOT NULL DEFAULT 0,
			last_reviewed BIGINT NOT NULL DEFAULT 0,
			next_review BIGINT NOT NULL,
			interval_days INTEGER NOT NULL DEFAULT 1,
			ease_factor DOUBLE PRECISION NOT NULL DEFAULT 2.5,
			stage TEXT NOT NULL DEFAULT 'learning',
			difficulty TEXT NOT NULL DEFAULT 'medium',
			mastery_level INTEGER NOT NULL DEFAULT 0,
			FOREIGN KEY (word_id) REFERENCES words(id) ON DELETE CASCADE
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create word_progress table: %w", err)
	}

	return nil
}
