package slots

import "errors"

// Sentinel kinds for slot formatting errors.
var (
	ErrInvalidClock = errors.New("invalid clock label")
	ErrInvalidStep  = errors.New("invalid slot length")
)
