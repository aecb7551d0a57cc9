package models

import "errors"

var (
	// ErrValidation is returned when a required field is missing or has an invalid value.
	ErrValidation = errors.New("validation failed")
	// ErrForbidden is returned when the current actor's role does not permit the operation.
	ErrForbidden = errors.New("operation is not permitted for this role")
	// ErrUnauthenticated is returned when an operation requires a session and none is present.
	ErrUnauthenticated = errors.New("authentication required")
	// ErrNotFound is returned when the referenced record does not exist (stale or deleted id).
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when a record with the same unique key already exists.
	ErrConflict = errors.New("record already exists")
)
