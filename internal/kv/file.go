package kv

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// FileDir is a Medium that keeps each key in its own <key>.json file.
// Values are written to a temp file first and renamed into place, so a
// crash never leaves a half-written collection behind.
type FileDir struct {
	mu  sync.Mutex
	dir string
}

// NewFileDir creates dir if needed and returns a medium rooted there.
func NewFileDir(dir string) (*FileDir, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("kv: create data dir: %w", err)
	}
	return &FileDir{dir: dir}, nil
}

func (f *FileDir) path(key string) (string, error) {
	if err := checkKey(key); err != nil {
		return "", err
	}
	if strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return "", fmt.Errorf("kv: invalid key %q", key)
	}
	return filepath.Join(f.dir, key+".json"), nil
}

// Get implements Medium.
func (f *FileDir) Get(key string) (string, bool, error) {
	p, err := f.path(key)
	if err != nil {
		return "", false, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("kv: read %q: %w", key, err)
	}
	return string(data), true, nil
}

// Set implements Medium.
func (f *FileDir) Set(key, value string) error {
	p, err := f.path(key)
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if err := atomicWriteFile(p, []byte(value)); err != nil {
		return fmt.Errorf("kv: write %q: %w", key, err)
	}
	return nil
}

// SetMany implements Medium. Every value is written to its temp file
// before any of them is renamed into place.
func (f *FileDir) SetMany(entries ...Entry) error {
	paths := make([]string, len(entries))
	for i, e := range entries {
		p, err := f.path(e.Key)
		if err != nil {
			return err
		}
		paths[i] = p
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	staged := make([]string, 0, len(entries))
	discard := func() {
		for _, tmp := range staged {
			os.Remove(tmp)
		}
	}
	for i, e := range entries {
		tmp := paths[i] + ".tmp"
		if err := writeSynced(tmp, []byte(e.Value)); err != nil {
			discard()
			return fmt.Errorf("kv: write %q: %w", e.Key, err)
		}
		staged = append(staged, tmp)
	}
	for i, tmp := range staged {
		if err := os.Rename(tmp, paths[i]); err != nil {
			discard()
			return fmt.Errorf("kv: write %q: %w", entries[i].Key, err)
		}
	}
	return nil
}

// Remove implements Medium.
func (f *FileDir) Remove(keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, key := range keys {
		p, err := f.path(key)
		if err != nil {
			return err
		}
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("kv: remove %q: %w", key, err)
		}
	}
	return nil
}

// Close implements Medium. FileDir holds no open handles.
func (f *FileDir) Close() error {
	return nil
}

func atomicWriteFile(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := writeSynced(tmp, data); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// writeSynced writes data to path and fsyncs it. On failure the file is
// removed.
func writeSynced(path string, data []byte) error {
	fh, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := fh.Write(data); err != nil {
		fh.Close()
		os.Remove(path)
		return err
	}
	if err := fh.Sync(); err != nil {
		fh.Close()
		os.Remove(path)
		return err
	}
	if err := fh.Close(); err != nil {
		os.Remove(path)
		return err
	}
	return nil
}
