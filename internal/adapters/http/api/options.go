package api

import "time"

const (
	defaultMaxTopN   = 100
	defaultHeartbeat = 30 * time.Second
	maxBodyBytes     = 1 << 20
)

type settings struct {
	now       func() time.Time
	maxTopN   int
	heartbeat time.Duration
}

func defaultSettings() settings {
	return settings{
		now:       time.Now,
		maxTopN:   defaultMaxTopN,
		heartbeat: defaultHeartbeat,
	}
}

// Option applies a configuration option to the Server.
type Option func(*settings)

// WithMaxTopN caps the top query parameter of best-times requests.
func WithMaxTopN(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.maxTopN = n
		}
	}
}

// WithHeartbeat sets the keep-alive interval of change streams.
func WithHeartbeat(d time.Duration) Option {
	return func(s *settings) {
		if d > 0 {
			s.heartbeat = d
		}
	}
}

// WithClock overrides the clock used to validate expiry times.
func WithClock(now func() time.Time) Option {
	return func(s *settings) {
		if now != nil {
			s.now = now
		}
	}
}
