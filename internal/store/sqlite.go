// ABOUTME: SQLite-backed store for droneport using modernc.org/sqlite
// ABOUTME: Opens the database, applies pragmas, and creates the schema

package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists users, tokens, and drone registry entities in SQLite
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore creates a new SQLite store at the given path.
// The schema is automatically created if it doesn't exist.
// Parent directories are created if needed.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	logger := slog.Default().With("component", "store")

	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable WAL mode for better concurrent performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &SQLiteStore{
		db:     db,
		logger: logger,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("SQLite store initialized", "path", path)
	return s, nil
}

// createSchema creates the database tables if they don't exist
func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS users (
			id            TEXT PRIMARY KEY,
			email         TEXT NOT NULL UNIQUE,
			username      TEXT NOT NULL UNIQUE,
			first_name    TEXT,
			last_name     TEXT,
			bio           TEXT,
			password_hash TEXT NOT NULL,
			is_active     INTEGER NOT NULL DEFAULT 1,
			is_staff      INTEGER NOT NULL DEFAULT 0,
			is_superuser  INTEGER NOT NULL DEFAULT 0,
			is_verified   INTEGER NOT NULL DEFAULT 0,
			created_at    TEXT NOT NULL,
			updated_at    TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_users_email ON users(email);

		CREATE TABLE IF NOT EXISTS refresh_tokens (
			jti        TEXT PRIMARY KEY,
			user_id    TEXT NOT NULL,
			expires_at TEXT NOT NULL,
			created_at TEXT NOT NULL,
			revoked_at TEXT,

			FOREIGN KEY (user_id) REFERENCES users(id)
		);

		CREATE INDEX IF NOT EXISTS idx_refresh_tokens_user ON refresh_tokens(user_id);

		CREATE TABLE IF NOT EXISTS drone_categories (
			id         TEXT PRIMARY KEY,
			name       TEXT NOT NULL UNIQUE,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS drones (
			id                 TEXT PRIMARY KEY,
			name               TEXT NOT NULL UNIQUE,
			category_id        TEXT NOT NULL,
			has_competed       INTEGER NOT NULL DEFAULT 0,
			owner_id           TEXT NOT NULL,
			manufacturing_date TEXT NOT NULL,
			created_at         TEXT NOT NULL,
			updated_at         TEXT NOT NULL,

			FOREIGN KEY (category_id) REFERENCES drone_categories(id) ON DELETE CASCADE,
			FOREIGN KEY (owner_id) REFERENCES users(id) ON DELETE CASCADE
		);

		CREATE INDEX IF NOT EXISTS idx_drones_category ON drones(category_id);
		CREATE INDEX IF NOT EXISTS idx_drones_owner ON drones(owner_id);

		CREATE TABLE IF NOT EXISTS pilots (
			id          TEXT PRIMARY KEY,
			name        TEXT NOT NULL UNIQUE,
			gender      TEXT NOT NULL DEFAULT 'M',
			races_count INTEGER NOT NULL DEFAULT 0,
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL,

			CHECK (gender IN ('M', 'F'))
		);

		CREATE TABLE IF NOT EXISTS competitions (
			id                        TEXT PRIMARY KEY,
			pilot_id                  TEXT NOT NULL,
			drone_id                  TEXT NOT NULL,
			distance_in_feet          INTEGER NOT NULL,
			distance_achievement_date TEXT NOT NULL,
			created_at                TEXT NOT NULL,
			updated_at                TEXT NOT NULL,

			FOREIGN KEY (pilot_id) REFERENCES pilots(id) ON DELETE CASCADE,
			FOREIGN KEY (drone_id) REFERENCES drones(id) ON DELETE CASCADE
		);

		CREATE INDEX IF NOT EXISTS idx_competitions_pilot ON competitions(pilot_id);
		CREATE INDEX IF NOT EXISTS idx_competitions_drone ON competitions(drone_id);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("executing schema: %w", err)
	}

	return nil
}

// Close releases the underlying database handle
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// isUniqueConstraintError checks if an error is a unique constraint violation.
func isUniqueConstraintError(err error, column string) bool {
	if err == nil {
		return false
	}
	// SQLite reports "UNIQUE constraint failed: table.column"
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") && strings.Contains(msg, column)
}
