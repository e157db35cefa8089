package kv

import (
	"database/sql"
	"errors"
)

// FailNextCommit makes the next transaction commit fail with err.
// This file only compiles during `go test`.
func (s *SQLite) FailNextCommit(err error) {
	s.hooks.commit = func(tx *sql.Tx) error {
		s.hooks.commit = nil
		_ = tx.Rollback()
		return err
	}
}

// FailBegin makes every transaction fail to start with err.
func (s *SQLite) FailBegin(err error) {
	s.hooks.beginTx = func(*sql.DB) (*sql.Tx, error) {
		return nil, err
	}
}

// FailExec makes every statement matching query fail.
func (s *SQLite) FailExec(query string) {
	s.hooks.exec = func(db execer, q string, args ...any) (sql.Result, error) {
		if q == query {
			return nil, errors.New("injected exec failure")
		}
		return db.Exec(q, args...)
	}
}

// DeleteQuery is the statement Remove issues per key.
const DeleteQuery = `DELETE FROM kv WHERE key = ?`

// UpsertQuery is the statement Set and SetMany issue per key.
const UpsertQuery = upsertQuery
