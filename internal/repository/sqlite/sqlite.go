// Package sqlite implements the repository interfaces on an embedded SQLite
// database. It is the default store and the one the tests run against.
//
// DOCUMENTS IN A RELATIONAL TABLE:
// Profiles are documents written by several external jobs, and the dashboard
// reads them whole. So each row keeps the full profile as a JSON document and
// only lifts out the columns we look rows up by (user_id, user_email,
// analyzed). Filters that map onto plain equality are pushed into SQL through
// SQLite's json_extract; everything else is evaluated in Go by query.Filter.
//
// WHY modernc.org/sqlite?
// It is a pure Go translation of SQLite: no C compiler, no CGo, and the same
// binary runs everywhere. ":memory:" gives each test a throwaway database.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	// Registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"

	"github.com/sakif/profile-dashboard/internal/apperror"
	"github.com/sakif/profile-dashboard/internal/repository"
)

var _ repository.Store = (*DB)(nil)

// DB wraps a sql.DB connection pool and implements repository.Store.
type DB struct {
	conn *sql.DB
}

// New opens (creating if needed) the database at dbPath and runs migrations.
//
// dbPath examples:
//   - "data/profiles.db" → file-based database (persistent)
//   - ":memory:"         → in-memory database (tests)
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Every connection to ":memory:" is a separate, empty database. Pin the
	// pool to a single connection so all queries see the same one.
	if dbPath == ":memory:" {
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL lets the dashboard keep reading while the analysis job writes.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}
	// A concurrent writer waits instead of failing with SQLITE_BUSY.
	if _, err := conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting busy timeout: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping checks the database is reachable.
func (db *DB) Ping(ctx context.Context) error {
	if err := db.conn.PingContext(ctx); err != nil {
		return apperror.Upstream("sqlite ping", err)
	}
	return nil
}

// migrate creates the schema. Every statement is idempotent.
//
// seq is the insertion order. It never changes on update, which is what
// keeps list ordering stable across repeated queries.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS user_profiles (
			seq        INTEGER PRIMARY KEY AUTOINCREMENT,
			id         TEXT NOT NULL UNIQUE,
			user_id    TEXT NOT NULL UNIQUE,
			user_email TEXT NOT NULL DEFAULT '',
			analyzed   INTEGER NOT NULL DEFAULT 0,
			document   TEXT NOT NULL,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_user_profiles_email ON user_profiles(user_email);
		CREATE INDEX IF NOT EXISTS idx_user_profiles_analyzed ON user_profiles(analyzed);
	`)
	if err != nil {
		return fmt.Errorf("creating user_profiles table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS exclusions (
			seq            INTEGER PRIMARY KEY AUTOINCREMENT,
			email          TEXT NOT NULL UNIQUE,
			exclude_charts INTEGER NOT NULL DEFAULT 0,
			exclude_list   INTEGER NOT NULL DEFAULT 0,
			updated_at     TEXT NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("creating exclusions table: %w", err)
	}

	return nil
}
