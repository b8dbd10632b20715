package domain

import "errors"

var (
	// ErrUnauthorized is returned when the caller has no valid session or
	// lacks permission for the requested operation.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotFound is returned when the addressed record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a record with the same identity already exists.
	ErrConflict = errors.New("already exists")
	// ErrInvalidCredentials is returned when email or password do not match.
	ErrInvalidCredentials = errors.New("invalid credentials")
)
