package task

import "errors"

// Sentinel errors for task operations.
var (
	// ErrNotLoaded is returned when a request arrives before the startup load finished.
	ErrNotLoaded = errors.New("tasks not loaded yet")

	// ErrAlreadyLoaded is returned when Load is called a second time.
	ErrAlreadyLoaded = errors.New("tasks already loaded")

	// ErrInvalidTimezone is returned when a request names an unknown time zone.
	ErrInvalidTimezone = errors.New("invalid timezone")
)
