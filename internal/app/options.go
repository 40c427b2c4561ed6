package service

import (
	"time"

	repository "github.com/okian/huddle/internal/adapters/repository"
	"github.com/okian/huddle/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the backing store. The service closes it on Stop.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithWorkerCount sets the number of recompute workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the change-notice queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize caps the number of pending recompute keys.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithRankingDefaults sets the top-N and minimum block length used when a
// caller does not ask for specific values.
func WithRankingDefaults(topN, minDuration int) Option {
	return func(s *Service) {
		if topN > 0 {
			s.defaultTopN = topN
		}
		if minDuration > 0 {
			s.defaultMinDuration = minDuration
		}
	}
}

// WithStreamBuffer sets how many messages a stream subscriber may lag.
func WithStreamBuffer(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.streamBuffer = n
		}
	}
}

// WithExpirySchedule sets the cron spec of the expiry sweeper.
func WithExpirySchedule(spec string) Option {
	return func(s *Service) {
		if spec != "" {
			s.expirySchedule = spec
		}
	}
}

// WithClock overrides the clock used for timestamps and expiry checks.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
