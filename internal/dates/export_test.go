package dates

import "time"

// FreezeNow pins the package clock to t until the returned func is called.
// This file only compiles during `go test`.
func FreezeNow(t time.Time) (restore func()) {
	prev := timeNow
	timeNow = func() time.Time { return t }
	return func() { timeNow = prev }
}
