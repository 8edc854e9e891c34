package backend

import (
	"errors"
	"fmt"
)

var (
	// ErrUpstream marks a non-2xx answer from the backend.
	ErrUpstream = errors.New("backend request failed")
	// ErrCircuitOpen is returned while the breaker rejects calls.
	ErrCircuitOpen = errors.New("backend circuit open")
)

// StatusError carries the status and body of a failed backend call.
type StatusError struct {
	Endpoint string
	Code     int
	Body     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %s returned %d: %s", ErrUpstream, e.Endpoint, e.Code, e.Body)
}

func (e *StatusError) Unwrap() error { return ErrUpstream }
