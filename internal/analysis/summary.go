package analysis

import (
	"time"

	"github.com/HendryAvila/noisedetox/internal/records"
)

// Summary bundles every aggregate for one window. It is what the stats
// tools, the summary resource and the stats command render.
type Summary struct {
	Days              int                                `json:"days"`
	TotalEntries      int                                `json:"totalEntries"`
	WindowEntries     int                                `json:"windowEntries"`
	UnrecognizedNoise int                                `json:"unrecognizedNoise"`
	DominantNoise     records.NoiseLevel                 `json:"dominantNoise,omitempty"`
	Noise             map[records.NoiseLevel]int         `json:"noise"`
	Wellbeing         map[records.WellbeingTag]int       `json:"wellbeing"`
	Correlation       map[records.NoiseLevel]Correlation `json:"correlation"`
	Daily             []DailyNoise                       `json:"daily"`
	Hearing           HearingSummary                     `json:"hearing"`
}

// HearingSummary describes the stored hearing tests.
type HearingSummary struct {
	Count        int      `json:"count"`
	Scored       int      `json:"scored"`
	AverageScore float64  `json:"averageScore"`
	LastScore    *float64 `json:"lastScore,omitempty"`
	LastTaken    string   `json:"lastTaken,omitempty"`
}

// Summarize computes the full summary with the daily window ending today.
func Summarize(entries []records.DiaryEntry, tests []records.HearingTest, days int) Summary {
	return SummarizeAt(entries, tests, days, timeNow())
}

// SummarizeAt is Summarize with the daily window ending on ref's day.
func SummarizeAt(entries []records.DiaryEntry, tests []records.HearingTest, days int, ref time.Time) Summary {
	days = WindowDays(days)

	s := Summary{
		Days:         days,
		TotalEntries: len(entries),
		Noise:        NoiseStats(entries),
		Wellbeing:    WellbeingStats(entries),
		Correlation:  NoiseWellbeingCorrelation(entries),
		Daily:        DailyNoiseDataAt(entries, days, ref),
		Hearing:      summarizeHearing(tests),
	}

	for _, e := range entries {
		if e.NoiseLevel != "" && !e.NoiseLevel.Known() {
			s.UnrecognizedNoise++
		}
	}
	for _, d := range s.Daily {
		s.WindowEntries += d.Count
	}

	best := 0
	for _, l := range records.NoiseLevels {
		if n := s.Noise[l]; n > best {
			best, s.DominantNoise = n, l
		}
	}
	return s
}

func summarizeHearing(tests []records.HearingTest) HearingSummary {
	h := HearingSummary{Count: len(tests)}

	var scores []float64
	for _, t := range tests {
		if t.Score != nil {
			scores = append(scores, *t.Score)
		}
	}
	h.Scored = len(scores)
	h.AverageScore = Average(scores)

	if len(tests) > 0 {
		last := tests[len(tests)-1]
		h.LastScore = last.Score
		h.LastTaken = last.Timestamp
	}
	return h
}
