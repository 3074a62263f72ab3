package session

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidState is matched by every InvalidStateError.
	ErrInvalidState = errors.New("invalid session state")
	// ErrEmailRequired is returned when a user without e-mail would be stored.
	ErrEmailRequired = errors.New("user email is required")
	// ErrNotOwner is returned when a caller edits a session signed in as
	// someone else.
	ErrNotOwner = errors.New("session belongs to another user")
)

// InvalidStateError rejects an operation that needs a signed-in user.
type InvalidStateError struct {
	Op string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("%s: not authenticated", e.Op)
}

func (e *InvalidStateError) Is(target error) bool { return target == ErrInvalidState }

// StorageCorruptionError describes a durable record that could not be
// adopted. It is logged, never returned to callers.
type StorageCorruptionError struct {
	Reason string
	Err    error
}

func (e *StorageCorruptionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("corrupt session record: %s: %v", e.Reason, e.Err)
	}
	return "corrupt session record: " + e.Reason
}

func (e *StorageCorruptionError) Unwrap() error { return e.Err }
