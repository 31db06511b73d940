package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hpungsan/nesta/internal/config"
	_ "modernc.org/sqlite"
)

// CurrentSchemaVersion is the latest schema version.
// Bump this when adding migrations.
const CurrentSchemaVersion = 2

// Init initializes the SQLite database at baseDir/nesta.db.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.nesta.
func Init(baseDir string) (*sql.DB, error) {
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}
	_ = os.Chmod(baseDir, 0700)

	// Pragmas in the connection string apply to every pooled connection
	dbPath := filepath.Join(baseDir, "nesta.db")
	dsn := dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := verifyWALMode(db); err != nil {
		db.Close()
		return nil, err
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	_ = os.Chmod(dbPath, 0600)

	return db, nil
}

// ConfigurePool applies connection pool settings from config.
// Only sets limits if explicitly configured (non-zero values).
func ConfigurePool(db *sql.DB, cfg *config.Config) {
	if cfg == nil {
		return
	}
	if cfg.DBMaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	}
	if cfg.DBMaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.DBMaxIdleConns)
	}
}

// migrate applies schema migrations based on user_version.
func migrate(db *sql.DB) error {
	version, err := GetUserVersion(db)
	if err != nil {
		return err
	}

	// Migration 0 -> 1: content records, metadata, options
	if version < 1 {
		schema := `
		CREATE TABLE IF NOT EXISTS records (
		  id          INTEGER PRIMARY KEY AUTOINCREMENT,
		  kind        TEXT NOT NULL,
		  status      TEXT NOT NULL,
		  slug        TEXT NOT NULL,
		  title       TEXT NOT NULL DEFAULT '',
		  content     TEXT NOT NULL DEFAULT '',
		  excerpt     TEXT NOT NULL DEFAULT '',
		  menu_order  INTEGER NOT NULL DEFAULT 0,
		  post_date   TEXT,
		  parent_id   INTEGER,
		  mime_type   TEXT,
		  guid        TEXT,
		  file_path   TEXT,
		  created_at  INTEGER NOT NULL,
		  updated_at  INTEGER NOT NULL
		);

		CREATE UNIQUE INDEX IF NOT EXISTS idx_records_kind_slug
		ON records(kind, slug);

		CREATE INDEX IF NOT EXISTS idx_records_kind_title
		ON records(kind, title);

		CREATE TABLE IF NOT EXISTS record_meta (
		  record_id  INTEGER NOT NULL REFERENCES records(id) ON DELETE CASCADE,
		  meta_key   TEXT NOT NULL,
		  meta_value TEXT NOT NULL,
		  PRIMARY KEY (record_id, meta_key)
		);

		CREATE TABLE IF NOT EXISTS options (
		  name       TEXT PRIMARY KEY,
		  value      TEXT NOT NULL,
		  updated_at INTEGER NOT NULL
		);
		`
		if _, err := db.Exec(schema); err != nil {
			return fmt.Errorf("migration 1 failed: %w", err)
		}
		if err := SetUserVersion(db, 1); err != nil {
			return err
		}
	}

	// Migration 1 -> 2: navigation menus
	if version < 2 {
		schema := `
		CREATE TABLE IF NOT EXISTS menus (
		  id       INTEGER PRIMARY KEY AUTOINCREMENT,
		  name     TEXT NOT NULL UNIQUE,
		  slug     TEXT NOT NULL,
		  location TEXT
		);

		CREATE TABLE IF NOT EXISTS menu_items (
		  id        INTEGER PRIMARY KEY AUTOINCREMENT,
		  menu_id   INTEGER NOT NULL REFERENCES menus(id) ON DELETE CASCADE,
		  parent_id INTEGER,
		  title     TEXT NOT NULL,
		  record_id INTEGER,
		  url       TEXT,
		  position  INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_menu_items_menu
		ON menu_items(menu_id, position);
		`
		if _, err := db.Exec(schema); err != nil {
			return fmt.Errorf("migration 2 failed: %w", err)
		}
		if err := SetUserVersion(db, 2); err != nil {
			return err
		}
	}

	return nil
}

// verifyWALMode checks that WAL mode is active (set via connection string).
func verifyWALMode(db *sql.DB) error {
	var journalMode string
	if err := db.QueryRow("PRAGMA journal_mode;").Scan(&journalMode); err != nil {
		return fmt.Errorf("failed to verify journal mode: %w", err)
	}
	if journalMode != "wal" {
		return fmt.Errorf("expected WAL mode, got %s", journalMode)
	}
	return nil
}

// GetUserVersion returns the current schema version (user_version pragma).
func GetUserVersion(db *sql.DB) (int, error) {
	var version int
	if err := db.QueryRow("PRAGMA user_version;").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get user_version: %w", err)
	}
	return version, nil
}

// SetUserVersion sets the schema version (user_version pragma).
func SetUserVersion(db *sql.DB, version int) error {
	_, err := db.Exec(fmt.Sprintf("PRAGMA user_version=%d", version))
	if err != nil {
		return fmt.Errorf("failed to set user_version: %w", err)
	}
	return nil
}
