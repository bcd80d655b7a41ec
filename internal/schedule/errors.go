package schedule

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation is matched by every *ValidationError.
	ErrValidation = errors.New("schedule: invalid subject")
	// ErrNotFound is matched by every *NotFoundError.
	ErrNotFound = errors.New("schedule: subject not found")
)

// ValidationError reports a subject that cannot be scheduled.
type ValidationError struct {
	Index    int
	Name     string
	Duration int
	Reason   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("schedule: subject %d (%q): %s", e.Index, e.Name, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NotFoundError reports a pin that addresses no subject. Index is -1 when the
// lookup was by name.
type NotFoundError struct {
	Name  string
	Index int
}

func (e *NotFoundError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("schedule: no subject at index %d", e.Index)
	}
	return fmt.Sprintf("schedule: no subject named %q", e.Name)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }
