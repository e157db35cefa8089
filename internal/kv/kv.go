// Package kv provides the persistent key-value medium that the record
// store writes its collections to.
//
// A Medium holds opaque string values under fixed string keys, the same
// contract a browser's localStorage offers. Three implementations exist:
// SQLite (the default, one row per key), FileDir (one JSON file per key)
// and Memory (tests and ephemeral runs).
package kv

import (
	"errors"
	"fmt"
	"strings"
)

// Medium is a durable string-to-string store.
type Medium interface {
	// Get returns the value stored under key. ok is false when the key
	// holds no value; that is not an error.
	Get(key string) (value string, ok bool, err error)
	// Set overwrites the value stored under key.
	Set(key, value string) error
	// SetMany overwrites several keys at once. Either every value is
	// stored or, on error, none of them is changed.
	SetMany(entries ...Entry) error
	// Remove deletes the given keys. Keys that hold no value are skipped.
	Remove(keys ...string) error
	// Close releases the medium's resources.
	Close() error
}

// Entry is one key and the value to store under it.
type Entry struct {
	Key   string
	Value string
}

// Backend names accepted by Open.
const (
	BackendSQLite = "sqlite"
	BackendFile   = "file"
	BackendMemory = "memory"
)

// ErrEmptyKey is returned when a caller passes an empty key.
var ErrEmptyKey = errors.New("kv: empty key")

// Open creates the medium for the named backend rooted at dir.
func Open(backend, dir string) (Medium, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", BackendSQLite:
		return NewSQLite(dir)
	case BackendFile:
		return NewFileDir(dir)
	case BackendMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("kv: unknown backend %q (want sqlite, file or memory)", backend)
	}
}

func checkKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return ErrEmptyKey
	}
	return nil
}
