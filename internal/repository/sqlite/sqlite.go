// Package sqlite implements the repository interfaces using SQLite as the
// storage backend.
//
// WHY SQLITE?
// SQLite is an embedded database — it lives inside the Go binary as a single
// file. No separate database server to install, configure, or manage. The
// catalog is a single-server app with modest write volume, which is exactly
// the workload SQLite is good at.
//
// WHY modernc.org/sqlite INSTEAD OF github.com/mattn/go-sqlite3?
// mattn/go-sqlite3 uses CGo, which means you need a C compiler installed and
// cross-compilation becomes painful. modernc.org/sqlite is a pure Go
// translation of the SQLite C code — works everywhere Go works.
//
// SCHEMA NOTES:
// The four tables form a small ownership tree: mods own screenshots and
// ratings (both cascade-delete with their mod); ratings also reference users.
// The UNIQUE(mod_id, user_id) constraint on ratings is what gives rating
// submission its upsert semantics — one row per user per mod, ever.
package sqlite

import (
	"database/sql"
	"fmt"

	// Blank import: the driver registers itself with database/sql under the
	// name "sqlite" in its init function.
	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool and provides repository methods.
//
// One struct implements all three repository interfaces (ModRepository,
// RatingRepository, UserRepository) — they share the connection pool and,
// where an operation spans tables, a transaction.
type DB struct {
	conn *sql.DB
}

// New opens (or creates) the SQLite database at dbPath and runs migrations.
//
// dbPath examples:
//   - "data/minemods.db" → file-based database (persistent)
//   - ":memory:"         → in-memory database (tests; lost on close)
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// sql.Open doesn't actually connect — Ping forces the first connection so
	// a bad path or permissions problem surfaces here, not on the first query.
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL allows concurrent reads while a write is in progress — important
	// for a web server where list requests overlap rating writes.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Foreign keys are OFF by default in SQLite. The cascade deletes
	// (mod → screenshots, mod → ratings) depend on this pragma being on,
	// so it is not optional here.
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection pool. Always defer this where New is
// called — it flushes the WAL and releases the file lock.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the schema. CREATE TABLE IF NOT EXISTS keeps it idempotent;
// for this project's scale that beats carrying a migration tool.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id         TEXT PRIMARY KEY,
			google_id  TEXT NOT NULL UNIQUE,
			email      TEXT NOT NULL UNIQUE,
			name       TEXT NOT NULL DEFAULT '',
			picture    TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS mods (
			id          TEXT PRIMARY KEY,
			title       TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			icon_url    TEXT NOT NULL DEFAULT '',
			size        TEXT NOT NULL DEFAULT '',
			rating      REAL NOT NULL DEFAULT 0,
			author_id   TEXT REFERENCES users(id) ON DELETE SET NULL,
			created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_mods_created_at ON mods(created_at);
	`)
	if err != nil {
		return fmt.Errorf("creating mods table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS screenshots (
			id       TEXT PRIMARY KEY,
			mod_id   TEXT NOT NULL REFERENCES mods(id) ON DELETE CASCADE,
			position INTEGER NOT NULL DEFAULT 0,
			url      TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_screenshots_mod_id ON screenshots(mod_id);
	`)
	if err != nil {
		return fmt.Errorf("creating screenshots table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS ratings (
			id      TEXT PRIMARY KEY,
			mod_id  TEXT NOT NULL REFERENCES mods(id) ON DELETE CASCADE,
			user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			score   INTEGER NOT NULL CHECK (score BETWEEN 1 AND 5),
			UNIQUE (mod_id, user_id)
		);
		CREATE INDEX IF NOT EXISTS idx_ratings_mod_id ON ratings(mod_id);
	`)
	if err != nil {
		return fmt.Errorf("creating ratings table: %w", err)
	}

	return nil
}
