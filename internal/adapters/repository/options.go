package repository

import "time"

type settings struct {
	now          func() time.Time
	maxOpenConns int
}

func defaultSettings() settings {
	return settings{
		now:          time.Now,
		maxOpenConns: 10,
	}
}

// Option applies a configuration option to a store.
type Option func(*settings)

// WithClock overrides the clock used for creation timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *settings) {
		if now != nil {
			s.now = now
		}
	}
}

// WithMaxOpenConns caps the connection pool of a SQLStore. sqlite always
// uses a single connection.
func WithMaxOpenConns(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.maxOpenConns = n
		}
	}
}
