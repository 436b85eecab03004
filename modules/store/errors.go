package store

import "errors"

// Sentinel errors for store operations.
var (
	// ErrNotFound is returned when a key has no stored value.
	ErrNotFound = errors.New("key not found")

	// ErrStorageRead is returned when the stored collection cannot be read or decoded.
	ErrStorageRead = errors.New("storage read failure")

	// ErrStorageWrite is returned when the collection cannot be written.
	ErrStorageWrite = errors.New("storage write failure")

	// ErrNotStarted is returned when the database is not open.
	ErrNotStarted = errors.New("store not started")
)
