package kv

import "sync"

// Memory is a map-backed Medium. Nothing survives Close.
type Memory struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemory returns an empty in-memory medium.
func NewMemory() *Memory {
	return &Memory{values: make(map[string]string)}
}

// Get implements Medium.
func (m *Memory) Get(key string) (string, bool, error) {
	if err := checkKey(key); err != nil {
		return "", false, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok, nil
}

// Set implements Medium.
func (m *Memory) Set(key, value string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

// SetMany implements Medium.
func (m *Memory) SetMany(entries ...Entry) error {
	for _, e := range entries {
		if err := checkKey(e.Key); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range entries {
		m.values[e.Key] = e.Value
	}
	return nil
}

// Remove implements Medium.
func (m *Memory) Remove(keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		if err := checkKey(key); err != nil {
			return err
		}
		delete(m.values, key)
	}
	return nil
}

// Close implements Medium.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values = make(map[string]string)
	return nil
}

// Compile-time assertions.
var (
	_ Medium = (*SQLite)(nil)
	_ Medium = (*FileDir)(nil)
	_ Medium = (*Memory)(nil)
)
