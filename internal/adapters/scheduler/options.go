package scheduler

import "time"

// Option applies a configuration option to the Sweeper.
type Option func(*Sweeper)

// WithClock overrides the clock used to decide expiry.
func WithClock(now func() time.Time) Option {
	return func(s *Sweeper) {
		if now != nil {
			s.now = now
		}
	}
}
