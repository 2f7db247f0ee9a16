package appearance

import (
	"errors"
	"fmt"
)

// ErrInvalidThemeSource is returned when a caller supplies a theme source
// outside the enumerated set. It is rejected before any side effect.
var ErrInvalidThemeSource = errors.New("invalid theme source")

// PersistError reports that the preference store could not be read or
// written. The in-memory state and the broadcast still proceed; only the
// durability of the preference is affected.
type PersistError struct {
	Op  string // "read" or "write"
	Err error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("appearance: persist %s: %v", e.Op, e.Err)
}

func (e *PersistError) Unwrap() error {
	return e.Err
}

// IsPersistError reports whether err is (or wraps) a PersistError.
func IsPersistError(err error) bool {
	var pe *PersistError
	return errors.As(err, &pe)
}
