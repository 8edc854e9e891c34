package config

import "errors"

var (
	// ErrInvalidConfig wraps every Validate failure.
	ErrInvalidConfig = errors.New("invalid config")
	// ErrLoadConfig wraps failures reading .env, the YAML file or DRAFTBOARD_* variables.
	ErrLoadConfig = errors.New("load config failed")
)
