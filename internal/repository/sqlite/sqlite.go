// Package sqlite implements the repository interfaces using SQLite as the storage backend.
//
// WHY SQLITE?
// SQLite is an embedded database — it lives inside the binary as a single file.
// A message board with a handful of tables does not need a database server,
// and tests can use ":memory:" for a fresh, throwaway store.
//
// WHY modernc.org/sqlite INSTEAD OF github.com/mattn/go-sqlite3?
// mattn/go-sqlite3 uses CGo, which means you need a C compiler installed and
// cross-compilation becomes painful. modernc.org/sqlite is a pure Go
// translation of the SQLite C code.
//
// ONE CONNECTION:
// The pool is capped at a single connection. SQLite serialises writers anyway,
// per-connection PRAGMAs (foreign_keys) would otherwise only apply to whichever
// connection ran them, and every pooled ":memory:" connection would be a
// separate empty database. The catch: a *sql.Rows holds that one connection,
// so rows must be closed before the next query is issued.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	sqlitedrv "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/sakif/whispering-network/internal/apperror"
	"github.com/sakif/whispering-network/internal/metrics"
	"github.com/sakif/whispering-network/internal/repository"
)

const backend = "sqlite"

var _ repository.Store = (*DB)(nil)

// DB wraps a sql.DB connection pool and provides repository methods.
type DB struct {
	conn *sql.DB
}

// New opens the SQLite database at dbPath and runs migrations.
//
// dbPath examples:
//   - "data/whispering.db" → file-based database (persistent)
//   - ":memory:"           → in-memory database (tests)
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL lets readers proceed while a write is in progress.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Foreign keys are OFF by default in SQLite. replies.message_id relies on them.
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

// Ping reports whether the database is reachable. Used by the health check.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

type migration struct {
	name string
	sql  string
}

// migrations run in order on every start; each one is idempotent.
var migrations = []migration{
	{
		name: "create messages table",
		sql: `
			CREATE TABLE IF NOT EXISTS messages (
				id           INTEGER PRIMARY KEY AUTOINCREMENT,
				content      TEXT NOT NULL,
				category     TEXT NOT NULL,
				spotify_link TEXT,
				is_public    BOOLEAN NOT NULL DEFAULT 1,
				recipient    TEXT,
				sender_name  TEXT,
				created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
			);
			CREATE INDEX IF NOT EXISTS idx_messages_created_at ON messages(created_at);
			CREATE INDEX IF NOT EXISTS idx_messages_category ON messages(category);
			CREATE INDEX IF NOT EXISTS idx_messages_recipient ON messages(recipient);
		`,
	},
	{
		name: "create replies table",
		sql: `
			CREATE TABLE IF NOT EXISTS replies (
				id         INTEGER PRIMARY KEY AUTOINCREMENT,
				message_id INTEGER NOT NULL REFERENCES messages(id),
				content    TEXT NOT NULL,
				nickname   TEXT NOT NULL,
				created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
			);
			CREATE INDEX IF NOT EXISTS idx_replies_message_id ON replies(message_id, created_at);
		`,
	},
	{
		name: "create admins table",
		sql: `
			CREATE TABLE IF NOT EXISTS admins (
				id            INTEGER PRIMARY KEY AUTOINCREMENT,
				username      TEXT NOT NULL UNIQUE,
				password_hash TEXT NOT NULL,
				nickname      TEXT NOT NULL UNIQUE,
				role          TEXT NOT NULL DEFAULT 'admin',
				is_active     BOOLEAN NOT NULL DEFAULT 1,
				created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
			);
			CREATE INDEX IF NOT EXISTS idx_admins_created_at ON admins(created_at);
		`,
	},
}

func (db *DB) migrate() error {
	for _, m := range migrations {
		if _, err := db.conn.Exec(m.sql); err != nil {
			return fmt.Errorf("%s: %w", m.name, err)
		}
	}
	return nil
}

// observe records the duration and outcome of one store operation.
// Usage: defer observe("create_message", time.Now(), &err)
func observe(op string, start time.Time, errp *error) {
	metrics.ObserveStoreQuery(backend, op, start, *errp)
}

// classify translates SQLite constraint failures into domain errors.
// Any other error is returned unchanged and ends up as an opaque 500.
func classify(err error) error {
	var sqliteErr *sqlitedrv.Error
	if !errors.As(err, &sqliteErr) {
		return err
	}

	// Extended codes (SQLITE_CONSTRAINT_UNIQUE, ...) share the primary
	// code in their low byte.
	if sqliteErr.Code()&0xff != sqlite3.SQLITE_CONSTRAINT {
		return err
	}

	msg := sqliteErr.Error()
	switch {
	case sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY || strings.Contains(msg, "FOREIGN KEY"):
		return apperror.ValidationFailed("messageId", "messageId does not reference an existing message")
	case sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE || strings.Contains(msg, "UNIQUE"):
		field := "username"
		if strings.Contains(msg, "admins.nickname") {
			field = "nickname"
		}
		return apperror.Conflict("admin", field)
	}
	return err
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
