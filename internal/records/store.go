// Package records is the record store: diary entries, hearing tests and
// settings kept as whole JSON documents under three fixed keys of a
// kv.Medium.
//
// Every mutation reads the full collection, changes it in memory and
// writes the full collection back. The Store serialises those
// read-modify-write cycles so concurrent callers cannot lose updates.
package records

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/HendryAvila/noisedetox/internal/dates"
	"github.com/HendryAvila/noisedetox/internal/kv"
)

// Storage keys. They match the browser client so its exports import as is.
const (
	DiaryKey    = "noise_detox_diary"
	HearingKey  = "noise_detox_hearing"
	SettingsKey = "noise_detox_settings"
)

// Keys lists all keys the store owns.
var Keys = []string{DiaryKey, HearingKey, SettingsKey}

var errNilRecord = errors.New("records: nil record")

// Store reads and writes the three collections.
type Store struct {
	mu     sync.Mutex
	medium kv.Medium
}

// NewStore creates a Store on top of medium. The caller owns the medium
// and closes it.
func NewStore(medium kv.Medium) *Store {
	return &Store{medium: medium}
}

// ─── Diary ──────────────────────────────────────────────────────────────────

// DiaryEntries returns every diary entry in insertion order. An absent key
// yields an empty slice; an unparseable one a *CorruptError.
func (s *Store) DiaryEntries() ([]DiaryEntry, error) {
	return loadList[DiaryEntry](s.medium, DiaryKey)
}

// AddDiaryEntry stamps e with a fresh id and timestamp, appends it and
// persists the collection. e itself is modified and returned.
func (s *Store) AddDiaryEntry(e *DiaryEntry) (*DiaryEntry, error) {
	if e == nil {
		return nil, errNilRecord
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := loadList[DiaryEntry](s.medium, DiaryKey)
	if err != nil {
		return nil, err
	}

	e.ID, e.Timestamp = newIdentity()
	entries = append(entries, *e)

	if err := saveJSON(s.medium, DiaryKey, entries); err != nil {
		return nil, fmt.Errorf("records: add diary entry: %w", err)
	}
	return e, nil
}

// DeleteDiaryEntry removes every entry whose id equals id. A missing id is
// not an error; the collection is rewritten unchanged.
func (s *Store) DeleteDiaryEntry(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := loadList[DiaryEntry](s.medium, DiaryKey)
	if err != nil {
		return err
	}

	kept := entries[:0]
	for _, e := range entries {
		if e.ID != id {
			kept = append(kept, e)
		}
	}

	if err := saveJSON(s.medium, DiaryKey, kept); err != nil {
		return fmt.Errorf("records: delete diary entry %s: %w", id, err)
	}
	return nil
}

// DiaryEntriesBetween returns the entries with start <= timestamp <= end.
// Entries whose timestamp does not parse never match.
func (s *Store) DiaryEntriesBetween(start, end time.Time) ([]DiaryEntry, error) {
	entries, err := s.DiaryEntries()
	if err != nil {
		return nil, err
	}

	out := []DiaryEntry{}
	for _, e := range entries {
		t, ok := e.Time()
		if !ok {
			continue
		}
		if !t.Before(start) && !t.After(end) {
			out = append(out, e)
		}
	}
	return out, nil
}

// ─── Hearing tests ──────────────────────────────────────────────────────────

// HearingTests returns every stored hearing test in insertion order.
func (s *Store) HearingTests() ([]HearingTest, error) {
	return loadList[HearingTest](s.medium, HearingKey)
}

// AddHearingTest stamps h with a fresh id and timestamp and appends it.
// Hearing tests cannot be deleted individually.
func (s *Store) AddHearingTest(h *HearingTest) (*HearingTest, error) {
	if h == nil {
		return nil, errNilRecord
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tests, err := loadList[HearingTest](s.medium, HearingKey)
	if err != nil {
		return nil, err
	}

	h.ID, h.Timestamp = newIdentity()
	tests = append(tests, *h)

	if err := saveJSON(s.medium, HearingKey, tests); err != nil {
		return nil, fmt.Errorf("records: add hearing test: %w", err)
	}
	return h, nil
}

// ─── Settings ───────────────────────────────────────────────────────────────

// Settings returns the saved settings, or DefaultSettings when none exist.
func (s *Store) Settings() (Settings, error) {
	return loadSettings(s.medium)
}

func loadSettings(m kv.Medium) (Settings, error) {
	raw, ok, err := m.Get(SettingsKey)
	if err != nil {
		return Settings{}, fmt.Errorf("records: read %s: %w", SettingsKey, err)
	}
	if !ok || raw == "" {
		return DefaultSettings(), nil
	}

	var out Settings
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return Settings{}, &CorruptError{Key: SettingsKey, Err: err}
	}
	return out, nil
}

// SaveSettings overwrites the stored settings. No merge happens.
func (s *Store) SaveSettings(settings Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := saveJSON(s.medium, SettingsKey, settings); err != nil {
		return fmt.Errorf("records: save settings: %w", err)
	}
	return nil
}

// SettingsPatch names the settings members to change. Nil fields are left
// as stored.
type SettingsPatch struct {
	Notifications *bool
	Theme         *string
}

// UpdateSettings merges p into the stored settings and saves the result
// under the store lock, so concurrent updates cannot lose each other's
// changes. A patched member replaces any raw value kept for it in Extra.
func (s *Store) UpdateSettings(p SettingsPatch) (Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	settings, err := loadSettings(s.medium)
	if err != nil {
		return Settings{}, err
	}
	settings.Extra = cloneRaw(settings.Extra)
	if p.Notifications != nil {
		settings.Notifications = *p.Notifications
		delete(settings.Extra, "notifications")
	}
	if p.Theme != nil {
		settings.Theme = *p.Theme
		delete(settings.Extra, "theme")
	}

	if err := saveJSON(s.medium, SettingsKey, settings); err != nil {
		return Settings{}, fmt.Errorf("records: update settings: %w", err)
	}
	return settings, nil
}

func cloneRaw(m map[string]json.RawMessage) map[string]json.RawMessage {
	if m == nil {
		return nil
	}
	out := make(map[string]json.RawMessage, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// ─── Bulk ───────────────────────────────────────────────────────────────────

// Export snapshots all three collections plus the export instant.
func (s *Store) Export() (*ExportDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	diary, err := loadList[DiaryEntry](s.medium, DiaryKey)
	if err != nil {
		return nil, fmt.Errorf("records: export diary: %w", err)
	}
	hearing, err := loadList[HearingTest](s.medium, HearingKey)
	if err != nil {
		return nil, fmt.Errorf("records: export hearing: %w", err)
	}

	settings, err := loadSettings(s.medium)
	if err != nil {
		return nil, fmt.Errorf("records: export settings: %w", err)
	}

	return &ExportDocument{
		Diary:      diary,
		Hearing:    hearing,
		Settings:   settings,
		ExportDate: dates.ISO(timeNow()),
	}, nil
}

// Import overwrites each section present in doc with its raw JSON. Absent
// or falsy sections are skipped. Nothing is validated and ids are kept.
// The sections are written in one batch: if the medium fails, none of them
// changes.
func (s *Store) Import(doc *ImportDocument) (*ImportResult, error) {
	if doc == nil {
		return nil, errNilRecord
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	staged := &ImportResult{}
	sections := []struct {
		key  string
		raw  json.RawMessage
		done *bool
	}{
		{DiaryKey, doc.Diary, &staged.Diary},
		{HearingKey, doc.Hearing, &staged.Hearing},
		{SettingsKey, doc.Settings, &staged.Settings},
	}

	var batch []kv.Entry
	for _, sec := range sections {
		if !truthy(sec.raw) {
			continue
		}
		value, err := compact(sec.raw)
		if err != nil {
			return &ImportResult{}, fmt.Errorf("records: import %s: %w", sec.key, err)
		}
		batch = append(batch, kv.Entry{Key: sec.key, Value: value})
		*sec.done = true
	}
	if len(batch) == 0 {
		return staged, nil
	}

	if err := s.medium.SetMany(batch...); err != nil {
		return &ImportResult{}, fmt.Errorf("records: import: %w", err)
	}
	return staged, nil
}

// Clear removes all three keys.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.medium.Remove(Keys...); err != nil {
		return fmt.Errorf("records: clear: %w", err)
	}
	return nil
}

// ─── Helpers ────────────────────────────────────────────────────────────────

// newIdentity derives an id and an ISO timestamp from one clock reading.
// Two records created in the same millisecond share an id.
func newIdentity() (string, string) {
	now := timeNow()
	return strconv.FormatInt(now.UnixMilli(), 10), dates.ISO(now)
}

func loadList[T any](m kv.Medium, key string) ([]T, error) {
	raw, ok, err := m.Get(key)
	if err != nil {
		return nil, fmt.Errorf("records: read %s: %w", key, err)
	}
	out := []T{}
	if !ok || raw == "" {
		return out, nil
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, &CorruptError{Key: key, Err: err}
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}

func saveJSON(m kv.Medium, key string, v any) error {
	data, err := marshalRaw(v)
	if err != nil {
		return err
	}
	return m.Set(key, string(data))
}
