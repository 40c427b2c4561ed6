package notify

import "errors"

// Sentinel kinds for notification errors.
var (
	ErrClosed = errors.New("notification hub closed")
)
