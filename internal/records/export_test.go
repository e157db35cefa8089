package records

import "time"

// SetNow pins the clock used for ids and timestamps.
// This file only compiles during `go test`.
func SetNow(fn func() time.Time) (restore func()) {
	prev := timeNow
	timeNow = fn
	return func() { timeNow = prev }
}

// Truthy exposes truthy for tests.
var Truthy = truthy
