package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrNotStarted = errors.New("service not started")
	ErrSlugSpace  = errors.New("could not allocate a free slug")
)
