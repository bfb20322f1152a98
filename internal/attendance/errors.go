package attendance

import (
	"errors"
	"fmt"
)

var (
	// ErrNotReady is returned by mutations issued before a successful load.
	ErrNotReady = errors.New("repository not loaded")
	// ErrMissingID is returned when an entity without an id is written.
	ErrMissingID = errors.New("entity id required")
	// ErrDuplicate is returned when an insert would break id or
	// (course, date) uniqueness.
	ErrDuplicate = errors.New("duplicate entity")
	// ErrUnknownCourse is returned when attendance is marked for a course
	// that does not exist.
	ErrUnknownCourse = errors.New("unknown course")
)

// LoadError reports a failed read or parse of a stored collection.
type LoadError struct {
	Key string
	Err error
}

func (e *LoadError) Error() string { return fmt.Sprintf("load %s: %v", e.Key, e.Err) }
func (e *LoadError) Unwrap() error { return e.Err }

// WriteError reports a failed write of a collection. The in-memory state is
// left as it was before the mutation.
type WriteError struct {
	Key string
	Err error
}

func (e *WriteError) Error() string { return fmt.Sprintf("write %s: %v", e.Key, e.Err) }
func (e *WriteError) Unwrap() error { return e.Err }

// ValidationError is a caller-side input problem.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string { return e.Msg }
