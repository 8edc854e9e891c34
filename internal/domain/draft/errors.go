package draft

import "errors"

var (
	// ErrUnknownPlayer is returned when a player id does not resolve in the directory.
	ErrUnknownPlayer = errors.New("unknown player")
	// ErrAlreadyDrafted is returned when drafting a player already on the list.
	ErrAlreadyDrafted = errors.New("player already drafted")
	// ErrNotDrafted is returned when removing a player that is not on the list.
	ErrNotDrafted = errors.New("player not drafted")
	// ErrStaleFetch is returned by a fetch superseded by a newer one before it completed.
	ErrStaleFetch = errors.New("stale fetch discarded")
	// ErrNoStore is returned when the session has no pick store to load from.
	ErrNoStore = errors.New("no pick store configured")
)
