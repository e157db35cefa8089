package records

import (
	"encoding/json"
	"time"

	"github.com/HendryAvila/noisedetox/internal/dates"
)

// ─── Categorical values ─────────────────────────────────────────────────────

// NoiseLevel is the perceived loudness recorded with a diary entry.
type NoiseLevel string

const (
	NoiseQuiet    NoiseLevel = "quiet"
	NoiseModerate NoiseLevel = "moderate"
	NoiseLoud     NoiseLevel = "loud"
	NoiseVeryLoud NoiseLevel = "veryLoud"
)

// NoiseLevels lists every known level from quietest to loudest.
var NoiseLevels = []NoiseLevel{NoiseQuiet, NoiseModerate, NoiseLoud, NoiseVeryLoud}

// Known reports whether l is one of the four recognised levels.
func (l NoiseLevel) Known() bool {
	switch l {
	case NoiseQuiet, NoiseModerate, NoiseLoud, NoiseVeryLoud:
		return true
	}
	return false
}

// WellbeingTag is one self-reported wellbeing marker.
type WellbeingTag string

const (
	WellbeingGood      WellbeingTag = "good"
	WellbeingTired     WellbeingTag = "tired"
	WellbeingHeadache  WellbeingTag = "headache"
	WellbeingIrritated WellbeingTag = "irritated"
	WellbeingSleepy    WellbeingTag = "sleepy"
	WellbeingTinnitus  WellbeingTag = "tinnitus"
)

// WellbeingTags lists every known tag.
var WellbeingTags = []WellbeingTag{
	WellbeingGood, WellbeingTired, WellbeingHeadache,
	WellbeingIrritated, WellbeingSleepy, WellbeingTinnitus,
}

// Known reports whether w is one of the six recognised tags.
func (w WellbeingTag) Known() bool {
	for _, t := range WellbeingTags {
		if t == w {
			return true
		}
	}
	return false
}

// Negative reports whether w counts as a bad outcome in the
// noise/wellbeing correlation.
func (w WellbeingTag) Negative() bool {
	return w == WellbeingHeadache || w == WellbeingIrritated || w == WellbeingTinnitus
}

// ─── Records ────────────────────────────────────────────────────────────────

// DiaryEntry is one noise-exposure diary record.
//
// ID and Timestamp are assigned by the Store on insert. Members the client
// sent that are not modelled here survive in Extra and are written back
// unchanged. So does a modelled member whose value does not fit its field
// (a number where a string is expected, an explicit null or ""); the typed
// field is then left empty.
type DiaryEntry struct {
	ID         string         `json:"id"`
	Timestamp  string         `json:"timestamp"`
	NoiseLevel NoiseLevel     `json:"noiseLevel,omitempty"`
	Wellbeing  []WellbeingTag `json:"wellbeing,omitempty"`
	Location   string         `json:"location,omitempty"`
	Duration   string         `json:"duration,omitempty"`
	Notes      string         `json:"notes,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

// Time parses the entry's timestamp. ok is false when it is missing or
// malformed.
func (e DiaryEntry) Time() (time.Time, bool) {
	return dates.ParseISO(e.Timestamp)
}

// HasTag reports whether the entry's wellbeing set contains tag.
func (e DiaryEntry) HasTag(tag WellbeingTag) bool {
	for _, w := range e.Wellbeing {
		if w == tag {
			return true
		}
	}
	return false
}

// HearingTest is the stored result of one hearing self-test.
type HearingTest struct {
	ID        string   `json:"id"`
	Timestamp string   `json:"timestamp"`
	Score     *float64 `json:"score,omitempty"`
	LeftEar   *float64 `json:"leftEar,omitempty"`
	RightEar  *float64 `json:"rightEar,omitempty"`
	Notes     string   `json:"notes,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

// Time parses the test's timestamp.
func (h HearingTest) Time() (time.Time, bool) {
	return dates.ParseISO(h.Timestamp)
}

// Settings holds user preferences. It is a single object, not a collection.
type Settings struct {
	Notifications bool   `json:"notifications"`
	Theme         string `json:"theme"`

	Extra map[string]json.RawMessage `json:"-"`
}

// DefaultSettings is returned when nothing has been saved yet.
func DefaultSettings() Settings {
	return Settings{Notifications: true, Theme: "light"}
}

// ─── Export / Import ────────────────────────────────────────────────────────

// ExportDocument is the full snapshot produced by Store.Export.
type ExportDocument struct {
	Diary      []DiaryEntry  `json:"diary"`
	Hearing    []HearingTest `json:"hearing"`
	Settings   Settings      `json:"settings"`
	ExportDate string        `json:"exportDate"`
}

// ImportDocument carries the raw JSON of each section of an import file.
// A nil or JSON-falsy section is treated as absent and left untouched.
type ImportDocument struct {
	Diary    json.RawMessage `json:"diary,omitempty"`
	Hearing  json.RawMessage `json:"hearing,omitempty"`
	Settings json.RawMessage `json:"settings,omitempty"`
}

// ImportResult reports which sections an import overwrote.
type ImportResult struct {
	Diary    bool `json:"diary"`
	Hearing  bool `json:"hearing"`
	Settings bool `json:"settings"`
}

// Sections returns the names of the overwritten sections in document order.
func (r ImportResult) Sections() []string {
	var out []string
	if r.Diary {
		out = append(out, "diary")
	}
	if r.Hearing {
		out = append(out, "hearing")
	}
	if r.Settings {
		out = append(out, "settings")
	}
	return out
}
