// Package scheduler runs periodic housekeeping jobs on a cron schedule.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/okian/huddle/pkg/logger"
	"github.com/okian/huddle/pkg/metrics"
)

// DefaultSpec runs the sweep once a minute.
const DefaultSpec = "@every 1m"

// Expirer deletes events whose expiry has passed and returns their slugs.
type Expirer interface {
	DeleteExpired(ctx context.Context, now time.Time) ([]string, error)
}

// OnExpired is told about every swept event slug.
type OnExpired func(ctx context.Context, slug string)

// Sweeper removes expired events on a cron schedule.
type Sweeper struct {
	mu      sync.Mutex
	cron    *cron.Cron
	entryID cron.EntryID
	store   Expirer
	notify  OnExpired
	now     func() time.Time
	ctx     context.Context
	cancel  context.CancelFunc
	logger  logger.Logger
}

// NewSweeper schedules sweeps of store using spec (standard five-field cron
// or a descriptor such as "@every 30s"). An empty spec uses DefaultSpec.
func NewSweeper(spec string, store Expirer, notify OnExpired, opts ...Option) (*Sweeper, error) {
	if store == nil {
		return nil, errors.New("sweeper needs a store")
	}
	if spec == "" {
		spec = DefaultSpec
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Sweeper{
		cron:   cron.New(cron.WithLocation(time.UTC)),
		store:  store,
		notify: notify,
		now:    time.Now,
		ctx:    ctx,
		cancel: cancel,
		logger: logger.Get().Named("sweeper"),
	}
	for _, opt := range opts {
		opt(s)
	}

	id, err := s.cron.AddFunc(spec, func() { s.Sweep(s.ctx) })
	if err != nil {
		cancel()
		return nil, fmt.Errorf("add cron %q: %w", spec, err)
	}
	s.entryID = id
	return s, nil
}

// Start begins cron execution.
func (s *Sweeper) Start() {
	s.cron.Start()
}

// Stop halts the schedule and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	s.cancel()
	<-s.cron.Stop().Done()
}

// Next returns the time of the next scheduled sweep.
func (s *Sweeper) Next() time.Time {
	return s.cron.Entry(s.entryID).Next
}

// Sweep deletes expired events once and returns how many were removed.
func (s *Sweeper) Sweep(ctx context.Context) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	slugs, err := s.store.DeleteExpired(ctx, s.now())
	if err != nil {
		metrics.RecordErrorByComponent("sweeper", "delete_expired")
		s.logger.Error(ctx, "expiry sweep failed", logger.Error(err))
		return 0
	}
	if len(slugs) == 0 {
		return 0
	}

	metrics.RecordEventsExpired(len(slugs))
	for _, slug := range slugs {
		if s.notify != nil {
			s.notify(ctx, slug)
		}
	}
	s.logger.Info(ctx, "expired events removed", logger.Int("count", len(slugs)))
	return len(slugs)
}
