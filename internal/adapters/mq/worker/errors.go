package worker

import "errors"

// Sentinel kinds for worker errors.
var (
	ErrRecompute       = errors.New("recompute failed")
	ErrShutdownTimeout = errors.New("worker shutdown timed out")
)
