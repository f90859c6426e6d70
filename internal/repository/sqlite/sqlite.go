// Package sqlite implements the repository interfaces using SQLite as the storage backend.
//
// WHY SQLITE?
// SQLite is an embedded database: it lives inside the Go binary as a single file.
// No separate database server to install or manage, and ":memory:" gives every
// test its own throwaway database.
//
// WHY modernc.org/sqlite INSTEAD OF github.com/mattn/go-sqlite3?
// mattn/go-sqlite3 uses CGo, which means you need a C compiler installed and
// cross-compilation becomes painful. modernc.org/sqlite is a pure Go translation
// of the SQLite C code.
//
// UNIQUENESS LIVES IN THE SCHEMA:
// "one daily puzzle per day" and "one guess per (player, puzzle, seq)" are
// UNIQUE constraints. Two concurrent writers can both pass the service-level
// checks, but only one INSERT can succeed.
package sqlite

import (
	"database/sql"
	"fmt"
	"strings"

	// The blank import registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool and provides repository methods.
// It implements every interface in the repository package.
type DB struct {
	conn *sql.DB
}

// New creates a new SQLite database connection and runs migrations.
//
// dbPath examples:
//   - "data/heardle.db"  → file-based database (persistent)
//   - ":memory:"         → in-memory database (great for tests, lost on close)
func New(dbPath string) (*DB, error) {
	// PRAGMAs are per connection, so the ones every connection needs go in the
	// DSN and modernc applies them when it opens each one.
	// Foreign keys are OFF by default in SQLite (for backwards compatibility),
	// and busy_timeout makes a competing writer wait instead of failing with SQLITE_BUSY.
	dsn := dbPath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// An in-memory database is private to the connection that created it.
	// Pin the pool to one connection so every query sees the same data.
	if dbPath == ":memory:" {
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL lets readers proceed while a guess is being written.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping checks the database is reachable. Used by the health endpoint.
func (db *DB) Ping() error {
	return db.conn.Ping()
}

// migrate runs all database migrations.
//
// CREATE TABLE IF NOT EXISTS is safe to run on every start; it won't error
// if the table exists.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS songs (
			id         TEXT PRIMARY KEY,
			name       TEXT NOT NULL UNIQUE,
			album      TEXT NOT NULL DEFAULT '',
			link       TEXT NOT NULL,
			cover      TEXT NOT NULL DEFAULT '',
			duration   INTEGER NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating songs table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id         TEXT PRIMARY KEY,
			discord_id TEXT NOT NULL UNIQUE,
			name       TEXT NOT NULL,
			avatar_url TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	// Daily and custom puzzles share one table. The partial unique index
	// allows at most one daily puzzle per day number.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS puzzles (
			id           TEXT PRIMARY KEY,
			kind         TEXT NOT NULL CHECK (kind IN ('daily', 'custom')),
			song_id      TEXT NOT NULL REFERENCES songs(id),
			start_offset INTEGER NOT NULL DEFAULT 0,
			day          INTEGER NOT NULL DEFAULT 0,
			creator_id   TEXT NOT NULL DEFAULT '',
			created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE UNIQUE INDEX IF NOT EXISTS idx_puzzles_daily_day ON puzzles(day) WHERE kind = 'daily';
		CREATE INDEX IF NOT EXISTS idx_puzzles_creator ON puzzles(creator_id, created_at);
	`)
	if err != nil {
		return fmt.Errorf("creating puzzles table: %w", err)
	}

	// The "current" daily puzzle is a single keyed row that only the
	// provisioning job moves.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS daily_pointer (
			key        TEXT PRIMARY KEY,
			puzzle_id  TEXT NOT NULL REFERENCES puzzles(id),
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating daily_pointer table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS guesses (
			id         TEXT PRIMARY KEY,
			puzzle_id  TEXT NOT NULL REFERENCES puzzles(id) ON DELETE CASCADE,
			player_id  TEXT NOT NULL,
			seq        INTEGER NOT NULL CHECK (seq BETWEEN 1 AND 6),
			song_id    TEXT NOT NULL,
			song_name  TEXT NOT NULL,
			album      TEXT NOT NULL DEFAULT '',
			cover      TEXT NOT NULL DEFAULT '',
			outcome    TEXT NOT NULL CHECK (outcome IN ('CORRECT', 'ALBUM', 'WRONG')),
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (player_id, puzzle_id, seq),
			UNIQUE (player_id, puzzle_id, song_name)
		);
	`)
	if err != nil {
		return fmt.Errorf("creating guesses table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS statistics (
			user_id        TEXT PRIMARY KEY,
			games_played   INTEGER NOT NULL DEFAULT 0,
			games_won      INTEGER NOT NULL DEFAULT 0,
			current_streak INTEGER NOT NULL DEFAULT 0,
			max_streak     INTEGER NOT NULL DEFAULT 0,
			updated_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating statistics table: %w", err)
	}

	return nil
}

// isUniqueViolation reports whether err came from a UNIQUE constraint.
// The driver reports it as SQLITE_CONSTRAINT_UNIQUE with this message.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
