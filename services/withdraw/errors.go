package withdraw

import "errors"

var (
	// ErrNotFound means no withdraw exists with the given id.
	ErrNotFound = errors.New("withdraw not found")

	// ErrAlreadyResolved means the withdraw already reached SUCCESS or
	// REJECTED.
	ErrAlreadyResolved = errors.New("withdraw already resolved")

	// ErrInvalidResolution rejects a resolution other than SUCCESS or
	// REJECTED.
	ErrInvalidResolution = errors.New("resolution must be SUCCESS or REJECTED")

	// ErrMissingFields rejects incomplete input.
	ErrMissingFields = errors.New("missing required fields")
)
