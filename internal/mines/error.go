package mines

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidCoordinate = errors.New("invalid cell coordinates")
	ErrNoSnapshot        = errors.New("no snapshot stored")
	ErrPersistence       = errors.New("persistence failure")
	ErrMalformedSnapshot = errors.New("malformed snapshot")
)

// PersistenceError reports that a snapshot could not be read or written.
// The in-memory board is already up to date when it is returned.
type PersistenceError struct {
	Op  string
	Err error
}

// [PersistenceError] implements [error]
func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s snapshot: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

func (e *PersistenceError) Is(target error) bool {
	return target == ErrPersistence
}

type MalformedSnapshotError struct {
	Reason string
}

// [MalformedSnapshotError] implements [error]
func (e *MalformedSnapshotError) Error() string {
	return "malformed snapshot: " + e.Reason
}

func (e *MalformedSnapshotError) Is(target error) bool {
	return target == ErrMalformedSnapshot
}

func malformed(format string, args ...any) error {
	return &MalformedSnapshotError{Reason: fmt.Sprintf(format, args...)}
}
