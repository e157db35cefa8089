package analysis

import (
	"fmt"
	"strings"

	"github.com/HendryAvila/noisedetox/internal/records"
)

// Markdown renders s as the report shown by the stats tool and command.
func Markdown(s Summary) string {
	var sb strings.Builder
	sb.WriteString("## Noise Detox Summary\n\n")
	sb.WriteString(fmt.Sprintf("- **Diary entries**: %d (%d in the last %d days)\n", s.TotalEntries, s.WindowEntries, s.Days))
	if s.DominantNoise != "" {
		sb.WriteString(fmt.Sprintf("- **Most common noise level**: %s\n", s.DominantNoise))
	}
	if s.UnrecognizedNoise > 0 {
		sb.WriteString(fmt.Sprintf("- **Entries with unrecognised noise level**: %d\n", s.UnrecognizedNoise))
	}
	sb.WriteString(fmt.Sprintf("- **Hearing tests**: %d", s.Hearing.Count))
	if s.Hearing.Scored > 0 {
		sb.WriteString(fmt.Sprintf(" (average score %.1f)", s.Hearing.AverageScore))
	}
	sb.WriteString("\n\n")

	sb.WriteString(NoiseTable(s.Noise))
	sb.WriteString("\n")
	sb.WriteString(WellbeingTable(s.Wellbeing))
	sb.WriteString("\n")
	sb.WriteString(CorrelationTable(s.Correlation))
	sb.WriteString("\n")
	sb.WriteString(DailyTable(s.Daily))
	return sb.String()
}

// NoiseTable renders noise counts, quietest first.
func NoiseTable(stats map[records.NoiseLevel]int) string {
	var sb strings.Builder
	sb.WriteString("### Noise levels\n\n| Level | Entries |\n|---|---|\n")
	for _, l := range records.NoiseLevels {
		sb.WriteString(fmt.Sprintf("| %s | %d |\n", l, stats[l]))
	}
	return sb.String()
}

// WellbeingTable renders wellbeing tag counts.
func WellbeingTable(stats map[records.WellbeingTag]int) string {
	var sb strings.Builder
	sb.WriteString("### Wellbeing\n\n| Tag | Entries |\n|---|---|\n")
	for _, t := range records.WellbeingTags {
		sb.WriteString(fmt.Sprintf("| %s | %d |\n", t, stats[t]))
	}
	return sb.String()
}

// CorrelationTable renders good and bad outcome counts per noise level.
func CorrelationTable(c map[records.NoiseLevel]Correlation) string {
	var sb strings.Builder
	sb.WriteString("### Noise vs wellbeing\n\n| Level | Good | Bad |\n|---|---|---|\n")
	for _, l := range records.NoiseLevels {
		sb.WriteString(fmt.Sprintf("| %s | %d | %d |\n", l, c[l].Good, c[l].Bad))
	}
	return sb.String()
}

// DailyTable renders the per-day series.
func DailyTable(days []DailyNoise) string {
	var sb strings.Builder
	sb.WriteString("### By day\n\n| Date | Avg noise | Entries |\n|---|---|---|\n")
	for _, d := range days {
		sb.WriteString(fmt.Sprintf("| %s | %.2f | %d |\n", d.Date, d.AvgNoise, d.Count))
	}
	return sb.String()
}
