// Package errs holds the error taxonomy shared by the store, the services and the HTTP layer.
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound covers both a missing record and a record owned by someone else.
	ErrNotFound          = errors.New("not found")
	ErrDuplicateUsername = errors.New("username already exists")
	ErrDuplicateEmail    = errors.New("email already exists")
	// ErrAuthFailure never says whether the username or the password was wrong.
	ErrAuthFailure        = errors.New("invalid username or password")
	ErrNoFileProvided     = errors.New("no file provided")
	ErrUpload             = errors.New("failed to process uploaded image")
	ErrCorruptProjectData = errors.New("stored project data is corrupt")
)

// ValidationError is a user-correctable problem with a request payload.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// Validation returns a *ValidationError carrying reason.
func Validation(reason string) error {
	return &ValidationError{Reason: reason}
}

// PersistenceError wraps an underlying store failure after its transaction was rolled back.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// Persistence wraps err as a *PersistenceError unless it already belongs to the taxonomy.
func Persistence(op string, err error) error {
	if err == nil || IsDomain(err) {
		return err
	}
	return &PersistenceError{Op: op, Err: err}
}

// IsDomain reports whether err is one of the caller-facing errors above.
func IsDomain(err error) bool {
	var ve *ValidationError
	var pe *PersistenceError
	switch {
	case errors.As(err, &ve), errors.As(err, &pe):
		return true
	case errors.Is(err, ErrNotFound),
		errors.Is(err, ErrDuplicateUsername),
		errors.Is(err, ErrDuplicateEmail),
		errors.Is(err, ErrAuthFailure),
		errors.Is(err, ErrNoFileProvided),
		errors.Is(err, ErrUpload),
		errors.Is(err, ErrCorruptProjectData):
		return true
	}
	return false
}
