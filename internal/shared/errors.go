package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrValidation indicates a rejected input.
	ErrValidation = errors.New("validation failed")
	// ErrConflict indicates the operation conflicts with current state.
	ErrConflict = errors.New("conflict")
	// ErrUnauthorized indicates missing or invalid credentials.
	ErrUnauthorized = errors.New("unauthorized")
)
