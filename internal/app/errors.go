package service

import "errors"

var (
	// ErrNotStarted is returned by operations that need Start to have run.
	ErrNotStarted = errors.New("service not started")
	// ErrNotConfigured is returned when an optional collaborator was not provided.
	ErrNotConfigured = errors.New("not configured")
	// ErrInvalidArgument marks caller input errors.
	ErrInvalidArgument = errors.New("invalid argument")
)
