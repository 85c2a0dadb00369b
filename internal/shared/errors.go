package shared

import "errors"

var (
	// ErrNotFound indicates the lookup key resolved to no rows.
	ErrNotFound = errors.New("not found")
	// ErrInvalidArgument indicates a malformed or out-of-range input value.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrInsufficientStock indicates the requested change would drive quantity negative.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrConflict indicates a unique-constraint violation, e.g. a duplicate code.
	ErrConflict = errors.New("conflict")
	// ErrStorageFailure indicates a connection, lock-timeout or commit failure.
	ErrStorageFailure = errors.New("storage failure")
)
