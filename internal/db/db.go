package db

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

var (
	ErrNotFound = errors.New("not found")
	// ErrDuplicateName is returned when a saved search name is taken.
	ErrDuplicateName = errors.New("name already exists")
)

// DB is the SQLite implementation of Store, used by the CLI and by the
// server when no PostgreSQL URL is configured.
type DB struct {
	db *sql.DB
}

var _ Store = (*DB)(nil)

// Open opens (or creates) the SQLite database at the given path.
func Open(path string) (*DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Set PRAGMAs explicitly (modernc driver doesn't support DSN query params)
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := sqlDB.Exec(pragma); err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("failed to execute %s: %w", pragma, err)
		}
	}

	d := &DB{db: sqlDB}
	if err := d.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return d, nil
}

func (d *DB) Close() error {
	return d.db.Close()
}

func (d *DB) QueryRow(query string, args ...interface{}) *sql.Row {
	return d.db.QueryRow(query, args...)
}

func (d *DB) getSchemaVersion() int {
	var version int
	err := d.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&version)
	if err != nil {
		return 0
	}
	return version
}

func (d *DB) setSchemaVersion(tx *sql.Tx, version int) error {
	_, err := tx.Exec("INSERT INTO schema_version (version, applied_at) VALUES (?, ?)",
		version, time.Now().UTC().Format(time.RFC3339))
	return err
}

var migrations = []struct {
	version int
	sqls    []string
}{
	{1, []string{
		`CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY,
			applied_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS saved_searches (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			query TEXT NOT NULL,
			description TEXT,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_saved_searches_updated ON saved_searches(updated_at)`,
	}},
	{2, []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			query TEXT NOT NULL,
			focus_item_key TEXT,
			updated_at TEXT NOT NULL
		)`,
	}},
}

func (d *DB) migrate() error {
	// Ensure schema_version table exists first
	_, err := d.db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at TEXT NOT NULL
	)`)
	if err != nil {
		return fmt.Errorf("failed to create schema_version table: %w", err)
	}

	currentVersion := d.getSchemaVersion()

	for _, m := range migrations {
		if m.version > currentVersion {
			tx, err := d.db.Begin()
			if err != nil {
				return fmt.Errorf("failed to begin transaction for migration %d: %w", m.version, err)
			}

			for _, s := range m.sqls {
				if _, err := tx.Exec(s); err != nil {
					_ = tx.Rollback()
					return fmt.Errorf("migration %d failed: %w", m.version, err)
				}
			}

			if err := d.setSchemaVersion(tx, m.version); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("failed to set schema version %d: %w", m.version, err)
			}

			if err := tx.Commit(); err != nil {
				return fmt.Errorf("failed to commit migration %d: %w", m.version, err)
			}
		}
	}

	// Seed the default saved search if not exists
	now := time.Now().UTC().Format(time.RFC3339)
	_, err = d.db.Exec(`INSERT OR IGNORE INTO saved_searches (id, name, query, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		NewID(), DefaultSearchName, DefaultSearchQuery, DefaultSearchDescription, now, now)
	if err != nil {
		return fmt.Errorf("failed to create default saved search: %w", err)
	}

	return nil
}
