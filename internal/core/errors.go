package core

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound covers ids that do not resolve. Read paths treat it as
	// "0 results", write paths surface it.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists signals a unique-pair insert hitting an existing row.
	ErrAlreadyExists = errors.New("already exists")

	// ErrStoreUnavailable wraps transport and timeout failures of the data
	// store. Never escapes the core on read paths; write paths retry once
	// and then surface it.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// ValidationError rejects bad input before any write. The message is safe to
// show to the end user.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s", e.Reason)
}

// Invalid builds a ValidationError.
func Invalid(reason string) *ValidationError {
	return &ValidationError{Reason: reason}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
