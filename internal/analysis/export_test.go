package analysis

import "time"

// FreezeNow pins the clock behind DailyNoiseData and Summarize.
// This file only compiles during `go test`.
func FreezeNow(t time.Time) (restore func()) {
	prev := timeNow
	timeNow = func() time.Time { return t }
	return func() { timeNow = prev }
}
