package repository

import "errors"

// Sentinel kinds for storage errors.
var (
	ErrNotFound           = errors.New("event not found")
	ErrDuplicateSlug      = errors.New("event slug already exists")
	ErrUnknownParticipant = errors.New("participant does not belong to event")
	ErrUnsupportedDriver  = errors.New("unsupported database driver")
)
