package storage

import "errors"

// Sentinel errors for activity store operations.
var (
	// ErrNotFound is returned when an activity record does not exist.
	ErrNotFound = errors.New("activity not found")

	// ErrConflict is returned when a record with the given ID already exists.
	ErrConflict = errors.New("activity already exists")
)
