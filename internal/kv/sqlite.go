package kv

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// DBFile is the database filename created inside the data directory.
const DBFile = "noisedetox.db"

// SQLite is a Medium backed by a single kv table in a SQLite database.
type SQLite struct {
	db    *sql.DB
	hooks sqliteHooks
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

type sqliteHooks struct {
	exec    func(db execer, query string, args ...any) (sql.Result, error)
	beginTx func(db *sql.DB) (*sql.Tx, error)
	commit  func(tx *sql.Tx) error
}

func (s *SQLite) execHook(db execer, query string, args ...any) (sql.Result, error) {
	if s.hooks.exec != nil {
		return s.hooks.exec(db, query, args...)
	}
	return db.Exec(query, args...)
}

func (s *SQLite) beginTxHook() (*sql.Tx, error) {
	if s.hooks.beginTx != nil {
		return s.hooks.beginTx(s.db)
	}
	return s.db.Begin()
}

func (s *SQLite) commitHook(tx *sql.Tx) error {
	if s.hooks.commit != nil {
		return s.hooks.commit(tx)
	}
	return tx.Commit()
}

// NewSQLite opens (or creates) the database under dir, enables WAL mode
// and runs migrations.
func NewSQLite(dir string) (*SQLite, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("kv: create data dir: %w", err)
	}

	dbPath := filepath.Join(dir, DBFile)
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("kv: open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("kv: pragma %q: %w", p, err)
		}
	}

	s := &SQLite{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("kv: migration: %w", err)
	}
	return s, nil
}

func (s *SQLite) migrate() error {
	_, err := s.execHook(s.db, `
		CREATE TABLE IF NOT EXISTS kv (
			key        TEXT PRIMARY KEY,
			value      TEXT NOT NULL,
			updated_at TEXT NOT NULL DEFAULT (datetime('now'))
		);
	`)
	return err
}

// Get implements Medium.
func (s *SQLite) Get(key string) (string, bool, error) {
	if err := checkKey(key); err != nil {
		return "", false, err
	}
	var value string
	err := s.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("kv: get %q: %w", key, err)
	}
	return value, true, nil
}

// Set implements Medium.
func (s *SQLite) Set(key, value string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	if _, err := s.execHook(s.db, upsertQuery, key, value, now()); err != nil {
		return fmt.Errorf("kv: set %q: %w", key, err)
	}
	return nil
}

const upsertQuery = `INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
	ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`

// SetMany implements Medium. All values are written in one transaction.
func (s *SQLite) SetMany(entries ...Entry) error {
	for _, e := range entries {
		if err := checkKey(e.Key); err != nil {
			return err
		}
	}

	tx, err := s.beginTxHook()
	if err != nil {
		return fmt.Errorf("kv: set many: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stamp := now()
	for _, e := range entries {
		if _, err := s.execHook(tx, upsertQuery, e.Key, e.Value, stamp); err != nil {
			return fmt.Errorf("kv: set %q: %w", e.Key, err)
		}
	}

	if err := s.commitHook(tx); err != nil {
		return fmt.Errorf("kv: set many: commit: %w", err)
	}
	return nil
}

// Remove implements Medium. All keys are removed in one transaction.
func (s *SQLite) Remove(keys ...string) error {
	tx, err := s.beginTxHook()
	if err != nil {
		return fmt.Errorf("kv: remove: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, key := range keys {
		if err := checkKey(key); err != nil {
			return err
		}
		if _, err := s.execHook(tx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
			return fmt.Errorf("kv: remove %q: %w", key, err)
		}
	}

	if err := s.commitHook(tx); err != nil {
		return fmt.Errorf("kv: remove: commit: %w", err)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

func now() string {
	return time.Now().UTC().Format("2006-01-02 15:04:05")
}
