package repository

import "errors"

var (
	// ErrNotFound is returned when a board or player is unknown.
	ErrNotFound = errors.New("not found")
	// ErrInvalidLimit is returned for a non-positive TopN limit.
	ErrInvalidLimit = errors.New("invalid limit")
	// ErrStaleGeneration is returned when a board older than the stored one is written.
	ErrStaleGeneration = errors.New("stale board generation")
)
