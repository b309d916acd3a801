package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

// SQLiteDB wraps the SQLite connection. It is the single-file backend used
// where running Postgres is overkill; both backends implement the same
// store interfaces.
type SQLiteDB struct {
	db *sql.DB
}

// sqliteSchema mirrors the Postgres migrations.
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS users (
	telegram_id TEXT PRIMARY KEY,
	telegram_username TEXT,
	wallet_address TEXT UNIQUE,
	permit2_approved INTEGER NOT NULL DEFAULT 0,
	created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS tips (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	sender_telegram_id TEXT NOT NULL,
	receiver_telegram_id TEXT NOT NULL,
	amount TEXT NOT NULL,
	message TEXT NOT NULL DEFAULT '',
	tx_hash TEXT,
	status TEXT NOT NULL DEFAULT 'pending',
	created_at TEXT NOT NULL,
	completed_at TEXT
);

CREATE INDEX IF NOT EXISTS idx_tips_sender ON tips(sender_telegram_id);
CREATE INDEX IF NOT EXISTS idx_tips_receiver ON tips(receiver_telegram_id);
CREATE INDEX IF NOT EXISTS idx_tips_status_created ON tips(status, created_at);

CREATE TABLE IF NOT EXISTS faucet_claims (
	id TEXT PRIMARY KEY,
	address TEXT NOT NULL UNIQUE,
	amount TEXT NOT NULL,
	amount_wei TEXT NOT NULL,
	tx_hash TEXT NOT NULL,
	claimed_at TEXT NOT NULL
);
`

// OpenSQLite opens (creating if needed) the SQLite database at path and
// applies the schema. Use ":memory:" for an in-memory database.
func OpenSQLite(path string) (*SQLiteDB, error) {
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	// The driver is in-process; a single writer connection avoids
	// SQLITE_BUSY under concurrent writes.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply sqlite schema: %w", err)
	}

	return &SQLiteDB{db: db}, nil
}

// Close closes the database
func (s *SQLiteDB) Close() error {
	return s.db.Close()
}

// DB returns the underlying sql.DB
func (s *SQLiteDB) DB() *sql.DB {
	return s.db
}

// Timestamps are stored as fixed-width RFC 3339 text so that string
// comparison in SQL matches chronological order.
const sqliteTimeFormat = "2006-01-02T15:04:05.000000000Z07:00"

func encodeTime(t time.Time) string {
	return t.UTC().Format(sqliteTimeFormat)
}

func decodeTime(s string) (time.Time, error) {
	t, err := time.Parse(sqliteTimeFormat, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse stored timestamp %q: %w", s, err)
	}
	return t, nil
}
