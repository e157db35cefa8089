// Package analysis aggregates diary entries and hearing tests into the
// tables and series shown to the user. Nothing here performs I/O; the
// only ambient input is the clock that anchors the daily window.
package analysis

import (
	"time"

	"github.com/HendryAvila/noisedetox/internal/dates"
	"github.com/HendryAvila/noisedetox/internal/records"
)

// timeNow is a package-level variable for testability.
var timeNow = time.Now

// DefaultDays is the window DailyNoiseData and Summarize use when asked
// for zero or fewer days.
const DefaultDays = 7

// MaxDays caps the daily window.
const MaxDays = 366

// WindowDays normalises a requested window length: days <= 0 means
// DefaultDays and anything above MaxDays is cut to MaxDays.
func WindowDays(days int) int {
	switch {
	case days <= 0:
		return DefaultDays
	case days > MaxDays:
		return MaxDays
	}
	return days
}

// Correlation counts entries at one noise level that reported a good
// outcome and entries that reported a bad one. An entry can count in both.
type Correlation struct {
	Good int `json:"good"`
	Bad  int `json:"bad"`
}

// DailyNoise is one point of the per-day noise series.
type DailyNoise struct {
	Date     string  `json:"date"`
	AvgNoise float64 `json:"avgNoise"`
	Count    int     `json:"count"`
}

// Average returns the arithmetic mean of values, or 0 when there are none.
func Average(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// Severity maps a noise level to 1..4, quietest first. Anything else is 0.
func Severity(level records.NoiseLevel) int {
	switch level {
	case records.NoiseQuiet:
		return 1
	case records.NoiseModerate:
		return 2
	case records.NoiseLoud:
		return 3
	case records.NoiseVeryLoud:
		return 4
	}
	return 0
}

// NoiseStats tallies noise levels. The result always holds all four levels.
// Entries with an absent or unrecognised level are skipped.
func NoiseStats(entries []records.DiaryEntry) map[records.NoiseLevel]int {
	out := make(map[records.NoiseLevel]int, len(records.NoiseLevels))
	for _, l := range records.NoiseLevels {
		out[l] = 0
	}
	for _, e := range entries {
		if e.NoiseLevel.Known() {
			out[e.NoiseLevel]++
		}
	}
	return out
}

// WellbeingStats tallies wellbeing tags across all entries. The result
// always holds all six tags; unknown tags are ignored. A tag repeated
// within one entry is counted each time.
func WellbeingStats(entries []records.DiaryEntry) map[records.WellbeingTag]int {
	out := make(map[records.WellbeingTag]int, len(records.WellbeingTags))
	for _, t := range records.WellbeingTags {
		out[t] = 0
	}
	for _, e := range entries {
		for _, tag := range e.Wellbeing {
			if tag.Known() {
				out[tag]++
			}
		}
	}
	return out
}

// NoiseWellbeingCorrelation cross-tabulates noise level against outcome.
// Only entries with a recognised level and a wellbeing list take part.
func NoiseWellbeingCorrelation(entries []records.DiaryEntry) map[records.NoiseLevel]Correlation {
	out := make(map[records.NoiseLevel]Correlation, len(records.NoiseLevels))
	for _, l := range records.NoiseLevels {
		out[l] = Correlation{}
	}
	for _, e := range entries {
		if !e.NoiseLevel.Known() || e.Wellbeing == nil {
			continue
		}
		c := out[e.NoiseLevel]
		if e.HasTag(records.WellbeingGood) {
			c.Good++
		}
		if hasNegative(e) {
			c.Bad++
		}
		out[e.NoiseLevel] = c
	}
	return out
}

func hasNegative(e records.DiaryEntry) bool {
	for _, tag := range e.Wellbeing {
		if tag.Negative() {
			return true
		}
	}
	return false
}

// DailyNoiseData returns one point per calendar day for the trailing days
// ending today, oldest first. The window length goes through WindowDays.
func DailyNoiseData(entries []records.DiaryEntry, days int) []DailyNoise {
	return DailyNoiseDataAt(entries, days, timeNow())
}

// DailyNoiseDataAt is DailyNoiseData with the window ending on ref's day.
func DailyNoiseDataAt(entries []records.DiaryEntry, days int, ref time.Time) []DailyNoise {
	window := dates.LastNDaysFrom(ref, WindowDays(days))

	// Bucket severities by calendar day; entries without a parseable
	// timestamp never match a day.
	byDay := make(map[string][]float64, len(window))
	for _, day := range window {
		byDay[dayKey(day)] = nil
	}
	for _, e := range entries {
		t, ok := e.Time()
		if !ok {
			continue
		}
		k := dayKey(t)
		if sev, in := byDay[k]; in {
			byDay[k] = append(sev, float64(Severity(e.NoiseLevel)))
		}
	}

	out := make([]DailyNoise, 0, len(window))
	for _, day := range window {
		severities := byDay[dayKey(day)]
		out = append(out, DailyNoise{
			Date:     dates.FormatDate(day),
			AvgNoise: Average(severities),
			Count:    len(severities),
		})
	}
	return out
}

// dayKey names t's calendar day in the display zone. Two instants share a
// key exactly when dates.SameDay reports them equal.
func dayKey(t time.Time) string {
	return t.In(dates.Location()).Format("2006-01-02")
}
