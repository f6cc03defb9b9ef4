// Package store implements the relational store (posts, stage_runs,
// cost_entries, audit_log) over a single SQLite file, plus a
// write-once artifact tree on disk addressed by post, stage and
// creation time, plus the PID
// lockfile that enforces a single writer per database.
package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS posts (
	post_id      TEXT PRIMARY KEY,
	source       TEXT NOT NULL,
	title        TEXT NOT NULL,
	body         TEXT NOT NULL,
	author       TEXT NOT NULL,
	url          TEXT NOT NULL,
	score        INTEGER NOT NULL,
	created_at   INTEGER NOT NULL,
	ingested_at  INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS stage_runs (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	post_id      TEXT NOT NULL REFERENCES posts(post_id),
	stage        TEXT NOT NULL,
	attempt      INTEGER NOT NULL,
	status       TEXT NOT NULL,
	started_at   INTEGER NOT NULL,
	finished_at  INTEGER NOT NULL,
	artifact_id  TEXT,
	error_class  TEXT,
	error_detail TEXT
);
CREATE INDEX IF NOT EXISTS idx_stage_runs_post ON stage_runs(post_id);

CREATE TABLE IF NOT EXISTS cost_entries (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	post_id      TEXT,
	stage        TEXT,
	model        TEXT,
	tokens_in    INTEGER NOT NULL,
	tokens_out   INTEGER NOT NULL,
	usd_cost     REAL NOT NULL,
	timestamp    INTEGER NOT NULL,
	allowed      INTEGER NOT NULL,
	abort_reason TEXT
);

CREATE TABLE IF NOT EXISTS audit_log (
	id                  INTEGER PRIMARY KEY AUTOINCREMENT,
	post_id             TEXT,
	action              TEXT NOT NULL,
	timestamp           INTEGER NOT NULL,
	detail              TEXT,
	cost_exhausted_flag INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_audit_post ON audit_log(post_id);

CREATE TABLE IF NOT EXISTS artifacts (
	id         TEXT PRIMARY KEY,
	post_id    TEXT NOT NULL,
	stage      TEXT NOT NULL,
	path       TEXT NOT NULL,
	ext        TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	size_bytes INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_artifacts_post ON artifacts(post_id);

CREATE TABLE IF NOT EXISTS uploaded_products (
	post_id     TEXT PRIMARY KEY REFERENCES posts(post_id),
	product_id  TEXT NOT NULL,
	uploaded_at INTEGER NOT NULL
);
`

// Store is the single point of access to the database file and the
// artifact tree rooted alongside it.
type Store struct {
	db            *sql.DB
	artifactsRoot string
}

// Open opens (creating if absent) the SQLite database at path in WAL
// mode with foreign keys enforced, applies the schema, and binds the
// artifact tree rooted at artifactsRoot.
func Open(path, artifactsRoot string) (*Store, error) {
	dsn := path + "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=ON"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db, artifactsRoot: artifactsRoot}, nil
}

// OpenReadOnly opens the database in read-only mode, for the dashboard,
// which must never become a second writer.
func OpenReadOnly(path string) (*Store, error) {
	dsn := path + "?mode=ro&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite read-only: %w", err)
	}
	return &Store{db: db}, nil
}

// DB exposes the underlying *sql.DB for components (BackupManager) that
// need raw access, e.g. to run PRAGMA statements.
func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) Close() error { return s.db.Close() }

func unixMilli(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func fromMilli(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}

func nowMilli() int64 {
	return time.Now().UnixMilli()
}
