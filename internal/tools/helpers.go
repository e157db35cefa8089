// Package tools implements the MCP tool handlers for the noise detox
// tracker.
//
// Each tool is a struct holding its dependencies (injected via the
// constructor), a Definition() returning the mcp.Tool schema and a Handle()
// processing the call. Failures are reported as tool errors, never as Go
// errors, so the host can show them to the user.
package tools

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/noisedetox/internal/analysis"
	"github.com/HendryAvila/noisedetox/internal/dates"
	"github.com/HendryAvila/noisedetox/internal/records"
)

// intArg extracts an integer argument from a tool request, returning
// defaultVal if the key is missing or not a number (JSON numbers are float64).
func intArg(req mcp.CallToolRequest, key string, defaultVal int) int {
	v, ok := req.GetArguments()[key].(float64)
	if !ok || math.IsNaN(v) {
		return defaultVal
	}
	// Out-of-range float to int conversions are implementation defined.
	switch {
	case v > math.MaxInt32:
		return math.MaxInt32
	case v < math.MinInt32:
		return math.MinInt32
	}
	return int(v)
}

// daysArg reads the optional days window. Zero or less means the default;
// more than analysis.MaxDays is refused with a tool error.
func daysArg(req mcp.CallToolRequest) (int, *mcp.CallToolResult) {
	days := intArg(req, "days", analysis.DefaultDays)
	if days > analysis.MaxDays {
		return 0, mcp.NewToolResultError(
			fmt.Sprintf("days must be at most %d, got %d", analysis.MaxDays, days))
	}
	return analysis.WindowDays(days), nil
}

// boolArg extracts a boolean argument from a tool request.
func boolArg(req mcp.CallToolRequest, key string, defaultVal bool) bool {
	v, ok := req.GetArguments()[key].(bool)
	if !ok {
		return defaultVal
	}
	return v
}

// floatArg extracts an optional number. nil means the key was not sent.
func floatArg(req mcp.CallToolRequest, key string) *float64 {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return nil
	}
	return &v
}

// stringsArg extracts a list of strings. Hosts that cannot send arrays may
// send a comma-separated string instead.
func stringsArg(req mcp.CallToolRequest, key string) []string {
	var out []string
	switch v := req.GetArguments()[key].(type) {
	case []interface{}:
		for _, item := range v {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
	case []string:
		for _, s := range v {
			if strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
	case string:
		for _, s := range strings.Split(v, ",") {
			if strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
	}
	return out
}

// parseBound reads a range bound. A bare YYYY-MM-DD date is taken in the
// display zone: its start for the lower bound, its last millisecond for the
// upper bound.
func parseBound(s string, upper bool) (time.Time, error) {
	s = strings.TrimSpace(s)
	if d, err := time.ParseInLocation("2006-01-02", s, dates.Location()); err == nil {
		if upper {
			return d.AddDate(0, 0, 1).Add(-time.Millisecond), nil
		}
		return d, nil
	}
	if t, ok := dates.ParseISO(s); ok {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("cannot parse %q as a date (want YYYY-MM-DD or RFC 3339)", s)
}

// jsonResult returns v as indented JSON text.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// storeError turns a store failure into a tool error. Corrupt data gets a
// hint because the user can fix it with an import or a clear.
func storeError(action string, err error) *mcp.CallToolResult {
	msg := fmt.Sprintf("failed to %s: %v", action, err)
	if records.IsCorrupt(err) {
		msg += "\nStored data is damaged. Re-import a backup with data_import or reset with data_clear."
	}
	return mcp.NewToolResultError(msg)
}

// describeEntry renders one diary entry as a markdown list item.
func describeEntry(e records.DiaryEntry) string {
	var sb strings.Builder
	when := e.Timestamp
	if t, ok := e.Time(); ok {
		when = dates.FormatDateTime(t)
	}
	level := string(e.NoiseLevel)
	if level == "" {
		level = "unspecified"
	}
	sb.WriteString(fmt.Sprintf("- **%s** · %s", when, level))
	if len(e.Wellbeing) > 0 {
		tags := make([]string, len(e.Wellbeing))
		for i, w := range e.Wellbeing {
			tags[i] = string(w)
		}
		sb.WriteString(" · " + strings.Join(tags, ", "))
	}
	if e.Location != "" {
		sb.WriteString(" · @" + e.Location)
	}
	if e.Duration != "" {
		sb.WriteString(" · " + e.Duration)
	}
	sb.WriteString(fmt.Sprintf(" (ID: %s)\n", e.ID))
	if e.Notes != "" {
		sb.WriteString("  " + e.Notes + "\n")
	}
	return sb.String()
}

func noiseLevelValues() []string {
	out := make([]string, len(records.NoiseLevels))
	for i, l := range records.NoiseLevels {
		out[i] = string(l)
	}
	return out
}

func wellbeingValues() []string {
	out := make([]string, len(records.WellbeingTags))
	for i, w := range records.WellbeingTags {
		out[i] = string(w)
	}
	return out
}
