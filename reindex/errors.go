package reindex

import "errors"

var (
	// ErrInvalidMaxAttempts is returned when maxAttempts is <= 0
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")

	// ErrIncomplete is returned when some records could not be reindexed.
	ErrIncomplete = errors.New("reindex incomplete")
)
