package config

import "errors"

// Sentinel error kinds. Validation failures wrap ErrInvalidConfig; a bad
// driver name additionally wraps ErrUnknownDriver.
var (
	ErrInvalidConfig = errors.New("invalid config")
	ErrLoadConfig    = errors.New("load config failed")
	ErrUnknownDriver = errors.New("unknown database_driver")
)
