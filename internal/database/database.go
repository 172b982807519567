// Package database keeps a local SQLite snapshot of the cached collections,
// the notification feed and user settings so the CLI starts with the last
// known state before the backend answers.
package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// FileName is the database file inside the config directory.
const FileName = "careerflow.db"

// Open opens (creating if needed) the database at path and migrates it.
func Open(path string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000&_journal_mode=WAL", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// sqlite allows one writer; a single connection avoids SQLITE_BUSY between
	// our own goroutines
	db.SetMaxOpenConns(1)

	if err := RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return db, nil
}

// RunMigrations creates all necessary tables.
func RunMigrations(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS cached_applications (
		id TEXT PRIMARY KEY,
		position INTEGER NOT NULL,
		document TEXT NOT NULL,
		cached_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS cached_jds (
		id TEXT PRIMARY KEY,
		position INTEGER NOT NULL,
		document TEXT NOT NULL,
		cached_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS notifications (
		id TEXT PRIMARY KEY,
		position INTEGER NOT NULL,
		title TEXT NOT NULL,
		message TEXT,
		created_at DATETIME NOT NULL,
		is_read BOOLEAN DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_cached_applications_position ON cached_applications(position);
	CREATE INDEX IF NOT EXISTS idx_cached_jds_position ON cached_jds(position);
	CREATE INDEX IF NOT EXISTS idx_notifications_position ON notifications(position);
	`

	_, err := db.Exec(schema)
	return err
}
