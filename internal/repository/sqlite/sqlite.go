// Package sqlite implements the repository interfaces on SQLite.
//
// WHY SQLITE?
// The store is a single shared file accessed by one server process —
// exactly what an embedded database is for. No server to run, and tests
// get a fresh throwaway database from ":memory:".
//
// WHY modernc.org/sqlite INSTEAD OF mattn/go-sqlite3?
// mattn/go-sqlite3 needs CGo and a C compiler; modernc.org/sqlite is a
// pure Go translation of SQLite, so cross-compilation stays trivial.
package sqlite

import (
	"database/sql"
	"fmt"

	// Side-effect import: registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool and implements the repository
// interfaces. The server owns its lifecycle: New opens it, Close releases
// it on shutdown.
type DB struct {
	conn *sql.DB
}

// New opens (or creates) the database at dbPath and runs migrations.
// Use ":memory:" for a throwaway in-memory database in tests.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Every pooled connection to ":memory:" opens its OWN empty database,
	// so a second connection would not see the migrated tables. Pin the
	// pool to one connection for in-memory databases.
	if dbPath == ":memory:" {
		conn.SetMaxOpenConns(1)
	}

	// Ping forces a real connection now, so a bad path or permission
	// problem surfaces here instead of on the first query.
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL lets reads proceed while a write is in flight — without it,
	// SQLite locks the whole file for every write, which serializes all
	// HTTP requests behind each other.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}
	// Wait briefly for a competing writer instead of failing with
	// SQLITE_BUSY — the ownership-checked update/delete transactions can
	// contend with concurrent creates.
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

// UserStore is the user-table view of DB. Go does not allow one type to
// carry both Create(ctx, *model.User) and Create(ctx, *model.Post), so
// the user methods live on this view while the post methods stay on DB.
type UserStore DB

// Users returns the repository.UserRepository view of db. It shares the
// same connection pool; DB still owns the lifecycle.
func (db *DB) Users() *UserStore { return (*UserStore)(db) }

// Close closes the database connection pool. Always deferred next to New
// so the WAL is flushed and the file lock released on shutdown.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the tables. The column layout (users.displayName,
// blogs.date/edit) is kept byte-for-byte compatible with existing
// database files from earlier versions of this app, so an old
// database.db can be pointed at directly.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id          INTEGER PRIMARY KEY,
			username    TEXT NOT NULL UNIQUE,
			displayName TEXT NOT NULL DEFAULT '',
			password    TEXT NOT NULL DEFAULT ''
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS blogs (
			id      INTEGER PRIMARY KEY,
			author  TEXT NOT NULL,
			date    DATETIME NOT NULL,
			title   TEXT NOT NULL,
			content TEXT NOT NULL DEFAULT '',
			edit    DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_blogs_author ON blogs(author);
		CREATE INDEX IF NOT EXISTS idx_blogs_date ON blogs(date);
	`)
	if err != nil {
		return fmt.Errorf("creating blogs table: %w", err)
	}

	return nil
}
