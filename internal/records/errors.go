package records

import (
	"errors"
	"fmt"
)

// ErrCorrupt matches any CorruptError via errors.Is.
var ErrCorrupt = errors.New("records: corrupt stored value")

// CorruptError reports that a key holds a value that does not parse as
// the collection it should contain. The stored value is left as is so the
// caller can decide whether to clear, re-import or surface it.
type CorruptError struct {
	Key string
	Err error
}

func (e *CorruptError) Error() string {
	return fmt.Sprintf("records: corrupt value under %q: %v", e.Key, e.Err)
}

func (e *CorruptError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrCorrupt) match.
func (e *CorruptError) Is(target error) bool {
	return target == ErrCorrupt
}

// IsCorrupt reports whether err stems from an unparseable stored value.
func IsCorrupt(err error) bool {
	return errors.Is(err, ErrCorrupt)
}
