// Package sqlite implements the repository interfaces using SQLite as the storage backend.
//
// WHY modernc.org/sqlite INSTEAD OF github.com/mattn/go-sqlite3?
// mattn/go-sqlite3 uses CGo, which means you need a C compiler installed and
// cross-compilation becomes painful. modernc.org/sqlite is a pure Go
// translation of the SQLite C code, so the server builds anywhere Go builds.
//
// LAYOUT:
// One DB owns the *sql.DB pool. Each collection gets a thin repository type
// (UserDB, OrganDB, RequestDB) sharing that pool, because the interfaces
// reuse method names like Create and GetByID.
package sqlite

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/sakif/organlink/internal/repository"

	// Side-effect import: registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"
)

var _ repository.Store = (*DB)(nil)

// DB wraps a sql.DB connection pool and hands out the per-collection repositories.
type DB struct {
	conn *sql.DB
}

// New opens the database at dbPath and runs migrations.
//
// dbPath examples:
//   - "data/organlink.db" → file-based database (persistent)
//   - ":memory:"          → in-memory database (tests)
//
// IN-MEMORY AND THE POOL:
// Every new connection to ":memory:" gets its OWN empty database. The pool is
// therefore capped at one connection so all queries see the same tables.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	if dbPath == ":memory:" {
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL lets readers proceed while a write is in flight.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Foreign keys are OFF by default in SQLite. Organs and requests point at
	// users (and requests at organs), so we want the database to enforce it.
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

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) Users() repository.UserRepository       { return &UserDB{conn: db.conn} }
func (db *DB) Organs() repository.OrganRepository     { return &OrganDB{conn: db.conn} }
func (db *DB) Requests() repository.RequestRepository { return &RequestDB{conn: db.conn} }

// migrate creates every table. CREATE TABLE IF NOT EXISTS keeps it idempotent.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id            TEXT PRIMARY KEY,
			name          TEXT NOT NULL,
			email         TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			phone         TEXT NOT NULL,
			address       TEXT NOT NULL,
			created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	// Chat history is an ordered child list of a user. seq (the rowid) keeps
	// insertion order even when two turns share a timestamp.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS chat_turns (
			seq        INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id    TEXT NOT NULL REFERENCES users(id),
			role       TEXT NOT NULL CHECK (role IN ('user', 'bot')),
			message    TEXT NOT NULL,
			created_at DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_chat_turns_user_id ON chat_turns(user_id);
	`)
	if err != nil {
		return fmt.Errorf("creating chat_turns table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS organs (
			id                  TEXT PRIMARY KEY,
			type                TEXT NOT NULL,
			blood_group         TEXT NOT NULL,
			donor_id            TEXT NOT NULL REFERENCES users(id),
			availability_status TEXT NOT NULL DEFAULT 'available',
			gender              TEXT NOT NULL,
			created_at          DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at          DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_organs_status ON organs(availability_status);
		CREATE INDEX IF NOT EXISTS idx_organs_donor_id ON organs(donor_id);
	`)
	if err != nil {
		return fmt.Errorf("creating organs table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS requests (
			id                    TEXT PRIMARY KEY,
			organ_id              TEXT REFERENCES organs(id),
			requested_type        TEXT NOT NULL DEFAULT '',
			requested_blood_group TEXT NOT NULL DEFAULT '',
			requester_id          TEXT NOT NULL REFERENCES users(id),
			status                TEXT NOT NULL DEFAULT 'pending',
			notes                 TEXT NOT NULL DEFAULT '',
			created_at            DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at            DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_requests_status ON requests(status);
		CREATE INDEX IF NOT EXISTS idx_requests_requester_id ON requests(requester_id);
	`)
	if err != nil {
		return fmt.Errorf("creating requests table: %w", err)
	}

	return nil
}

// isUniqueViolation reports whether err came from a UNIQUE constraint.
// The driver does not export a typed code for it, so we match the message.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// orderClause renders a SortOrder. id breaks ties: xids sort by creation time.
func orderClause(o repository.SortOrder) string {
	if o == repository.OldestFirst {
		return " ORDER BY created_at ASC, id ASC"
	}
	return " ORDER BY created_at DESC, id DESC"
}
