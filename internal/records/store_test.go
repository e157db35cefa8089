package records_test

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HendryAvila/noisedetox/internal/kv"
	"github.com/HendryAvila/noisedetox/internal/records"
)

var base = time.Date(2026, time.October, 19, 9, 0, 0, 0, time.UTC)

// stepClock advances one second per reading so ids never collide.
func stepClock(t *testing.T) {
	t.Helper()
	var mu sync.Mutex
	n := 0
	restore := records.SetNow(func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		n++
		return base.Add(time.Duration(n) * time.Second)
	})
	t.Cleanup(restore)
}

func newStore(t *testing.T) (*records.Store, *kv.Memory) {
	t.Helper()
	m := kv.NewMemory()
	return records.NewStore(m), m
}

func TestAddDiaryEntry_AssignsIdentityAndPersists(t *testing.T) {
	stepClock(t)
	s, m := newStore(t)

	got, err := s.AddDiaryEntry(&records.DiaryEntry{
		NoiseLevel: records.NoiseLoud,
		Wellbeing:  []records.WellbeingTag{records.WellbeingHeadache},
		Location:   "metro",
	})
	require.NoError(t, err)

	want := base.Add(time.Second)
	assert.Equal(t, "1792400401000", got.ID)
	assert.Equal(t, "2026-10-19T09:00:01.000Z", got.Timestamp)
	assert.Equal(t, want.UnixMilli(), mustParseInt(t, got.ID))

	entries, err := s.DiaryEntries()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	if diff := cmp.Diff(*got, entries[0]); diff != "" {
		t.Errorf("stored entry mismatch (-added +stored):\n%s", diff)
	}

	raw, ok, err := m.Get(records.DiaryKey)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Contains(t, raw, `"noiseLevel":"loud"`)
}

func TestAddDiaryEntry_AppendsInOrder(t *testing.T) {
	stepClock(t)
	s, _ := newStore(t)

	for _, lvl := range records.NoiseLevels {
		_, err := s.AddDiaryEntry(&records.DiaryEntry{NoiseLevel: lvl})
		require.NoError(t, err)
	}

	entries, err := s.DiaryEntries()
	require.NoError(t, err)
	require.Len(t, entries, 4)
	for i, lvl := range records.NoiseLevels {
		assert.Equal(t, lvl, entries[i].NoiseLevel)
	}
}

func TestAddDiaryEntry_Nil(t *testing.T) {
	s, _ := newStore(t)
	_, err := s.AddDiaryEntry(nil)
	assert.Error(t, err)
	_, err = s.AddHearingTest(nil)
	assert.Error(t, err)
}

func TestDiaryEntries_EmptyStore(t *testing.T) {
	s, _ := newStore(t)

	entries, err := s.DiaryEntries()
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)

	tests, err := s.HearingTests()
	require.NoError(t, err)
	assert.NotNil(t, tests)
	assert.Empty(t, tests)
}

func TestDeleteDiaryEntry(t *testing.T) {
	stepClock(t)
	s, _ := newStore(t)

	a, err := s.AddDiaryEntry(&records.DiaryEntry{NoiseLevel: records.NoiseQuiet})
	require.NoError(t, err)
	b, err := s.AddDiaryEntry(&records.DiaryEntry{NoiseLevel: records.NoiseLoud})
	require.NoError(t, err)

	require.NoError(t, s.DeleteDiaryEntry(a.ID))
	entries, err := s.DiaryEntries()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, b.ID, entries[0].ID)

	// Unknown id leaves the collection unchanged.
	require.NoError(t, s.DeleteDiaryEntry("nope"))
	entries, err = s.DiaryEntries()
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestDeleteDiaryEntry_RemovesDuplicateIDs(t *testing.T) {
	s, m := newStore(t)
	require.NoError(t, m.Set(records.DiaryKey,
		`[{"id":"1","timestamp":"2026-10-19T09:00:00.000Z"},{"id":"1","timestamp":"2026-10-19T09:00:00.000Z"},{"id":"2","timestamp":"2026-10-19T09:00:00.000Z"}]`))

	require.NoError(t, s.DeleteDiaryEntry("1"))
	entries, err := s.DiaryEntries()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "2", entries[0].ID)
}

func TestDiaryEntriesBetween_Inclusive(t *testing.T) {
	s, m := newStore(t)
	require.NoError(t, m.Set(records.DiaryKey, `[
		{"id":"a","timestamp":"2026-10-01T00:00:00.000Z"},
		{"id":"b","timestamp":"2026-10-05T12:00:00.000Z"},
		{"id":"c","timestamp":"2026-10-10T00:00:00.000Z"},
		{"id":"d","timestamp":"not a date"},
		{"id":"e","timestamp":"2026-10-11T00:00:00.000Z"}
	]`))

	start := time.Date(2026, time.October, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, time.October, 10, 0, 0, 0, 0, time.UTC)
	got, err := s.DiaryEntriesBetween(start, end)
	require.NoError(t, err)

	var ids []string
	for _, e := range got {
		ids = append(ids, e.ID)
	}
	assert.Equal(t, []string{"a", "b", "c"}, ids)
}

func TestHearingTests(t *testing.T) {
	stepClock(t)
	s, _ := newStore(t)

	score := 87.5
	h, err := s.AddHearingTest(&records.HearingTest{Score: &score, Notes: "after concert"})
	require.NoError(t, err)
	assert.NotEmpty(t, h.ID)

	tests, err := s.HearingTests()
	require.NoError(t, err)
	require.Len(t, tests, 1)
	require.NotNil(t, tests[0].Score)
	assert.InDelta(t, 87.5, *tests[0].Score, 1e-9)
	assert.Nil(t, tests[0].LeftEar)
}

func TestSettings_DefaultsAndOverwrite(t *testing.T) {
	s, _ := newStore(t)

	got, err := s.Settings()
	require.NoError(t, err)
	assert.Equal(t, records.DefaultSettings(), got)

	require.NoError(t, s.SaveSettings(records.Settings{Notifications: false, Theme: "dark"}))
	got, err = s.Settings()
	require.NoError(t, err)
	assert.False(t, got.Notifications)
	assert.Equal(t, "dark", got.Theme)
}

func TestCorruptValue(t *testing.T) {
	s, m := newStore(t)
	require.NoError(t, m.Set(records.DiaryKey, "{not json"))
	require.NoError(t, m.Set(records.SettingsKey, "[1,2"))

	_, err := s.DiaryEntries()
	require.Error(t, err)
	assert.True(t, errors.Is(err, records.ErrCorrupt))

	var ce *records.CorruptError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, records.DiaryKey, ce.Key)

	_, err = s.AddDiaryEntry(&records.DiaryEntry{})
	assert.ErrorIs(t, err, records.ErrCorrupt)

	// Corrupt value is left in place.
	raw, _, _ := m.Get(records.DiaryKey)
	assert.Equal(t, "{not json", raw)

	_, err = s.Settings()
	assert.ErrorIs(t, err, records.ErrCorrupt)
}

func TestUnknownFieldsSurviveRewrite(t *testing.T) {
	stepClock(t)
	s, m := newStore(t)
	require.NoError(t, m.Set(records.DiaryKey,
		`[{"id":"1","timestamp":"2026-10-19T09:00:00.000Z","noiseLevel":"quiet","mood":{"score":3}}]`))

	_, err := s.AddDiaryEntry(&records.DiaryEntry{NoiseLevel: records.NoiseLoud})
	require.NoError(t, err)

	entries, err := s.DiaryEntries()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.JSONEq(t, `{"score":3}`, string(entries[0].Extra["mood"]))
}

func TestExport(t *testing.T) {
	stepClock(t)
	s, _ := newStore(t)

	_, err := s.AddDiaryEntry(&records.DiaryEntry{NoiseLevel: records.NoiseModerate})
	require.NoError(t, err)

	doc, err := s.Export()
	require.NoError(t, err)
	assert.Len(t, doc.Diary, 1)
	assert.NotNil(t, doc.Hearing)
	assert.Empty(t, doc.Hearing)
	assert.Equal(t, records.DefaultSettings(), doc.Settings)
	assert.Equal(t, "2026-10-19T09:00:02.000Z", doc.ExportDate)

	data, err := json.Marshal(doc)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"hearing":[]`)
}

func TestImport_ExportRoundTrip(t *testing.T) {
	stepClock(t)
	src, srcMedium := newStore(t)

	_, err := src.AddDiaryEntry(&records.DiaryEntry{NoiseLevel: records.NoiseVeryLoud, Notes: "drill"})
	require.NoError(t, err)
	score := 70.0
	_, err = src.AddHearingTest(&records.HearingTest{Score: &score})
	require.NoError(t, err)
	require.NoError(t, src.SaveSettings(records.Settings{Theme: "dark"}))

	exported, err := src.Export()
	require.NoError(t, err)
	data, err := json.Marshal(exported)
	require.NoError(t, err)

	var doc records.ImportDocument
	require.NoError(t, json.Unmarshal(data, &doc))

	dst, dstMedium := newStore(t)
	res, err := dst.Import(&doc)
	require.NoError(t, err)
	assert.Equal(t, []string{"diary", "hearing", "settings"}, res.Sections())

	for _, k := range records.Keys {
		want, _, _ := srcMedium.Get(k)
		got, _, _ := dstMedium.Get(k)
		assert.JSONEq(t, want, got, "stored %s", k)
	}

	reexported, err := dst.Export()
	require.NoError(t, err)
	again, err := json.Marshal(reexported)
	require.NoError(t, err)

	var a, b map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &a))
	require.NoError(t, json.Unmarshal(again, &b))
	for _, section := range []string{"diary", "hearing", "settings"} {
		assert.JSONEq(t, string(a[section]), string(b[section]), "section %s", section)
	}
}

func TestRoundTrip_KeepsEmptyAndNullMembers(t *testing.T) {
	stepClock(t)
	s, m := newStore(t)

	diary := `[{"id":"1","timestamp":"2026-10-19T08:00:00.000Z","noiseLevel":"","wellbeing":[],"notes":""}]`
	hearing := `[{"id":"2","timestamp":"2026-10-19T08:00:00.000Z","score":null,"leftEar":85.0}]`
	settings := `{"notifications":true,"theme":"","font":"large"}`
	_, err := s.Import(&records.ImportDocument{
		Diary:    json.RawMessage(diary),
		Hearing:  json.RawMessage(hearing),
		Settings: json.RawMessage(settings),
	})
	require.NoError(t, err)

	doc, err := s.Export()
	require.NoError(t, err)
	gotDiary, _ := json.Marshal(doc.Diary)
	gotHearing, _ := json.Marshal(doc.Hearing)
	gotSettings, _ := json.Marshal(doc.Settings)
	assert.JSONEq(t, diary, string(gotDiary))
	assert.JSONEq(t, hearing, string(gotHearing))
	assert.JSONEq(t, settings, string(gotSettings))
	assert.Contains(t, string(gotHearing), `"leftEar":85.0`)

	// Rewriting the collection keeps the imported entry as it was.
	_, err = s.AddDiaryEntry(&records.DiaryEntry{NoiseLevel: records.NoiseQuiet})
	require.NoError(t, err)
	raw, _, _ := m.Get(records.DiaryKey)
	var stored []json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(raw), &stored))
	require.Len(t, stored, 2)
	assert.JSONEq(t, `{"id":"1","timestamp":"2026-10-19T08:00:00.000Z","noiseLevel":"","wellbeing":[],"notes":""}`,
		string(stored[0]))
}

func TestMismatchedMemberTypesAreKeptRaw(t *testing.T) {
	stepClock(t)
	s, m := newStore(t)
	require.NoError(t, m.Set(records.HearingKey,
		`[{"id":"1","timestamp":"2026-10-19T08:00:00.000Z","score":"85%","notes":7}]`))
	require.NoError(t, m.Set(records.DiaryKey,
		`[{"id":"2","timestamp":"2026-10-19T08:00:00.000Z","noiseLevel":"loud","duration":30,"wellbeing":["good",5]}]`))

	tests, err := s.HearingTests()
	require.NoError(t, err)
	require.Len(t, tests, 1)
	assert.Nil(t, tests[0].Score)
	assert.Empty(t, tests[0].Notes)
	assert.JSONEq(t, `"85%"`, string(tests[0].Extra["score"]))
	assert.JSONEq(t, `7`, string(tests[0].Extra["notes"]))

	entries, err := s.DiaryEntries()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, records.NoiseLoud, entries[0].NoiseLevel)
	assert.Empty(t, entries[0].Duration)
	assert.Nil(t, entries[0].Wellbeing)
	assert.JSONEq(t, `30`, string(entries[0].Extra["duration"]))

	_, err = s.AddHearingTest(&records.HearingTest{})
	require.NoError(t, err)
	doc, err := s.Export()
	require.NoError(t, err)
	require.Len(t, doc.Hearing, 2)
	first, _ := json.Marshal(doc.Hearing[0])
	assert.JSONEq(t, `{"id":"1","timestamp":"2026-10-19T08:00:00.000Z","score":"85%","notes":7}`, string(first))
	entry, _ := json.Marshal(doc.Diary[0])
	assert.JSONEq(t,
		`{"id":"2","timestamp":"2026-10-19T08:00:00.000Z","noiseLevel":"loud","duration":30,"wellbeing":["good",5]}`,
		string(entry))
}

func TestStoredTextIsNotHTMLEscaped(t *testing.T) {
	stepClock(t)
	s, m := newStore(t)

	_, err := s.AddDiaryEntry(&records.DiaryEntry{Notes: "<drill> & hammer"})
	require.NoError(t, err)

	raw, _, _ := m.Get(records.DiaryKey)
	assert.Contains(t, raw, `"notes":"<drill> & hammer"`)

	entries, err := s.DiaryEntries()
	require.NoError(t, err)
	assert.Nil(t, entries[0].Extra)
}

// failingBatch is a medium whose batch writes always fail.
type failingBatch struct {
	*kv.Memory
}

func (failingBatch) SetMany(...kv.Entry) error { return errors.New("disk full") }

func TestImport_FailedWriteChangesNothing(t *testing.T) {
	m := failingBatch{kv.NewMemory()}
	s := records.NewStore(m)
	require.NoError(t, m.Set(records.DiaryKey, `[{"id":"old"}]`))

	res, err := s.Import(&records.ImportDocument{
		Diary:   json.RawMessage(`[{"id":"new"}]`),
		Hearing: json.RawMessage(`[{"id":"h"}]`),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "records: import")
	assert.Empty(t, res.Sections())

	raw, _, _ := m.Get(records.DiaryKey)
	assert.Equal(t, `[{"id":"old"}]`, raw)
	_, ok, _ := m.Get(records.HearingKey)
	assert.False(t, ok)
}

func TestUpdateSettings(t *testing.T) {
	s, m := newStore(t)
	require.NoError(t, m.Set(records.SettingsKey, `{"notifications":"yes","theme":"dark","font":"large"}`))

	off := false
	got, err := s.UpdateSettings(records.SettingsPatch{Notifications: &off})
	require.NoError(t, err)
	assert.False(t, got.Notifications)
	assert.Equal(t, "dark", got.Theme)

	raw, _, _ := m.Get(records.SettingsKey)
	assert.JSONEq(t, `{"notifications":false,"theme":"dark","font":"large"}`, raw)

	light := "light"
	got, err = s.UpdateSettings(records.SettingsPatch{Theme: &light})
	require.NoError(t, err)
	assert.Equal(t, records.Settings{Notifications: false, Theme: "light",
		Extra: map[string]json.RawMessage{"font": json.RawMessage(`"large"`)}}, got)
}

func TestUpdateSettings_ConcurrentPatchesMerge(t *testing.T) {
	s, _ := newStore(t)
	off, dark := false, "dark"

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, err := s.UpdateSettings(records.SettingsPatch{Notifications: &off})
		assert.NoError(t, err)
	}()
	go func() {
		defer wg.Done()
		_, err := s.UpdateSettings(records.SettingsPatch{Theme: &dark})
		assert.NoError(t, err)
	}()
	wg.Wait()

	got, err := s.Settings()
	require.NoError(t, err)
	assert.False(t, got.Notifications)
	assert.Equal(t, "dark", got.Theme)
}

func TestExport_CorruptSectionIsWrapped(t *testing.T) {
	s, m := newStore(t)
	require.NoError(t, m.Set(records.HearingKey, "nope"))

	_, err := s.Export()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "records: export hearing")
	assert.True(t, records.IsCorrupt(err))
}

func TestImport_PartialAndFalsySections(t *testing.T) {
	s, m := newStore(t)
	require.NoError(t, m.Set(records.HearingKey, `[{"id":"keep"}]`))
	require.NoError(t, m.Set(records.SettingsKey, `{"notifications":true,"theme":"light"}`))

	res, err := s.Import(&records.ImportDocument{
		Diary:    json.RawMessage(`[ {"id":"x", "noiseLevel":"loud"} ]`),
		Hearing:  json.RawMessage(`null`),
		Settings: json.RawMessage(`false`),
	})
	require.NoError(t, err)
	assert.Equal(t, records.ImportResult{Diary: true}, *res)

	raw, _, _ := m.Get(records.DiaryKey)
	assert.Equal(t, `[{"id":"x","noiseLevel":"loud"}]`, raw)

	raw, _, _ = m.Get(records.HearingKey)
	assert.Equal(t, `[{"id":"keep"}]`, raw)
}

func TestImport_WritesUnvalidatedShapes(t *testing.T) {
	s, m := newStore(t)

	res, err := s.Import(&records.ImportDocument{Diary: json.RawMessage(`{"oops":1}`)})
	require.NoError(t, err)
	assert.True(t, res.Diary)

	raw, _, _ := m.Get(records.DiaryKey)
	assert.Equal(t, `{"oops":1}`, raw)

	_, err = s.DiaryEntries()
	assert.ErrorIs(t, err, records.ErrCorrupt)
}

func TestClear(t *testing.T) {
	stepClock(t)
	s, m := newStore(t)
	require.NoError(t, m.Set("unrelated", "1"))

	_, err := s.AddDiaryEntry(&records.DiaryEntry{})
	require.NoError(t, err)
	require.NoError(t, s.SaveSettings(records.Settings{Theme: "dark"}))

	require.NoError(t, s.Clear())

	for _, k := range records.Keys {
		_, ok, err := m.Get(k)
		require.NoError(t, err)
		assert.False(t, ok, "key %s still present", k)
	}
	_, ok, _ := m.Get("unrelated")
	assert.True(t, ok)

	got, err := s.Settings()
	require.NoError(t, err)
	assert.Equal(t, records.DefaultSettings(), got)
}

func TestConcurrentAddsAreNotLost(t *testing.T) {
	stepClock(t)
	s, _ := newStore(t)

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.AddDiaryEntry(&records.DiaryEntry{NoiseLevel: records.NoiseQuiet})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	entries, err := s.DiaryEntries()
	require.NoError(t, err)
	assert.Len(t, entries, n)
}

func TestTruthy(t *testing.T) {
	tests := map[string]bool{
		``:       false,
		`null`:   false,
		`false`:  false,
		`0`:      false,
		`0.0`:    false,
		`""`:     false,
		`[]`:     true,
		`{}`:     true,
		`"x"`:    true,
		`true`:   true,
		`-1`:     true,
		` null `: false,
	}
	for in, want := range tests {
		assert.Equal(t, want, records.Truthy(json.RawMessage(in)), "truthy(%q)", in)
	}
}

func mustParseInt(t *testing.T, s string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, json.Unmarshal([]byte(s), &n))
	return n
}
