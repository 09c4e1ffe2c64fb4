// Package common provides shared utilities and types used across the application.
package common

import "errors"

// Sentinel errors shared by the ledger packages. Wrap them with %w and test with errors.Is.
var (
	ErrNotFound          = errors.New("not found")
	ErrDatabaseCorrupted = errors.New("database corrupted")
	ErrRateSourceFailed  = errors.New("rate source failed")
	ErrValidation        = errors.New("validation failed")
	ErrMissingConfig     = errors.New("missing configuration")
	ErrInvalidConfig     = errors.New("invalid configuration")
)

// UserError is an input mistake reported to the user as Message, keeping the cause for errors.Is.
type UserError struct {
	Err     error
	Message string
}

func (e *UserError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError wraps err with a message meant for the user.
func NewUserError(message string, err error) error {
	return &UserError{Message: message, Err: err}
}
