// Package dates holds the date formatting and range helpers used by the
// analyzer and the tool layer. Output follows Russian conventions:
// day.month.year and a 24-hour clock.
package dates

import (
	"sync"
	"time"
)

// timeNow is a package-level variable for testability.
var timeNow = time.Now

var (
	locMu    sync.RWMutex
	location = time.Local
)

// SetLocation changes the zone used for formatting and calendar-day
// comparisons. A nil loc restores time.Local.
func SetLocation(loc *time.Location) {
	if loc == nil {
		loc = time.Local
	}
	locMu.Lock()
	location = loc
	locMu.Unlock()
}

// Location returns the zone used for formatting.
func Location() *time.Location {
	locMu.RLock()
	defer locMu.RUnlock()
	return location
}

// FormatDate renders t as DD.MM.YYYY.
func FormatDate(t time.Time) string {
	return t.In(Location()).Format("02.01.2006")
}

// FormatDateTime renders t as "DD.MM.YYYY, HH:MM".
func FormatDateTime(t time.Time) string {
	return t.In(Location()).Format("02.01.2006, 15:04")
}

// FormatTime renders t as HH:MM.
func FormatTime(t time.Time) string {
	return t.In(Location()).Format("15:04")
}

// DaysAgo returns the current instant moved back n calendar days. The time
// of day is kept; it is not normalised to midnight.
func DaysAgo(n int) time.Time {
	return timeNow().In(Location()).AddDate(0, 0, -n)
}

// LastNDays returns n instants, one per calendar day, oldest first and
// today last. n <= 0 yields nil.
func LastNDays(n int) []time.Time {
	return LastNDaysFrom(timeNow(), n)
}

// LastNDaysFrom is LastNDays anchored at ref instead of the current time.
func LastNDaysFrom(ref time.Time, n int) []time.Time {
	if n <= 0 {
		return nil
	}
	ref = ref.In(Location())
	out := make([]time.Time, 0, n)
	for i := n - 1; i >= 0; i-- {
		out = append(out, ref.AddDate(0, 0, -i))
	}
	return out
}

// WeekDates returns the trailing seven days, six days ago first.
func WeekDates() []time.Time {
	return LastNDays(7)
}

// SameDay reports whether a and b fall on the same calendar day in the
// formatting zone.
func SameDay(a, b time.Time) bool {
	loc := Location()
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	return ay == by && am == bm && ad == bd
}

// isoLayout matches the millisecond UTC form browsers emit for instants.
const isoLayout = "2006-01-02T15:04:05.000Z"

// ISO renders t as a UTC ISO-8601 instant with millisecond precision.
func ISO(t time.Time) string {
	return t.UTC().Format(isoLayout)
}

// ParseISO parses a stored timestamp. It accepts RFC 3339 with or without
// fractional seconds, zone-less date-times (read in the formatting zone)
// and bare YYYY-MM-DD dates (read as UTC midnight).
func ParseISO(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, true
	}
	if t, err := time.ParseInLocation("2006-01-02T15:04:05", s, Location()); err == nil {
		return t, true
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// ExportStamp returns the UTC calendar date of t as YYYY-MM-DD.
func ExportStamp(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
