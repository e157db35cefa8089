package records

import "time"

// timeNow is a package-level variable for testability.
// Tests can replace this to control generated ids and timestamps.
var timeNow = time.Now
