package screener

import (
	"errors"
	"fmt"
)

// ErrScreenNotFound is returned when a screen key or name does not match
// any predefined or stored screen. There is no fallback matching.
var ErrScreenNotFound = errors.New("screen not found")

// ValidationError reports a malformed screen or criterion. It is raised
// before any matching begins so a bad definition never produces partial
// results.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

func validationErrorf(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}
