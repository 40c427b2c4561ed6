// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	eventqueue "github.com/okian/huddle/internal/adapters/mq/queue"
	workerpool "github.com/okian/huddle/internal/adapters/mq/worker"
	"github.com/okian/huddle/internal/adapters/notify"
	repository "github.com/okian/huddle/internal/adapters/repository"
	"github.com/okian/huddle/internal/adapters/scheduler"
	"github.com/okian/huddle/internal/domain/dedupe"
	"github.com/okian/huddle/internal/domain/model"
	"github.com/okian/huddle/internal/domain/ranking"
	"github.com/okian/huddle/internal/domain/scoring"
	"github.com/okian/huddle/internal/domain/slots"
	"github.com/okian/huddle/pkg/logger"
	"github.com/okian/huddle/pkg/metrics"
)

const maxSlugAttempts = 5

// Submission is one participant's full availability for an event.
type Submission struct {
	ParticipantName string
	Timezone        string
	Slots           []model.SlotSelection
}

// SubmitResult acknowledges a stored submission.
type SubmitResult struct {
	Participant     model.Participant
	SlotCount       int
	RecomputeQueued bool
}

// ParticipantSummary is a roster entry with its stored slot count.
type ParticipantSummary struct {
	Participant model.Participant
	SlotCount   int
}

// EventView is everything needed to render an event's grid.
type EventView struct {
	Event        model.Event
	Participants []ParticipantSummary
	Heatmap      *scoring.Heatmap
	TimeSlots    []string
}

// BestTimesQuery narrows a ranking request. Zero fields use the service
// defaults.
type BestTimesQuery struct {
	TopN        int
	MinDuration int
}

// availabilityPayload is streamed with availability_updated messages.
type availabilityPayload struct {
	ParticipantID   string `json:"participant_id"`
	ParticipantName string `json:"participant_name"`
	SlotCount       int    `json:"slot_count"`
}

// Service implements the API dependencies for scheduling events.
type Service struct {
	mu sync.RWMutex

	// Core components
	store   repository.Store
	deduper dedupe.Deduper
	queue   eventqueue.Queue
	hub     *notify.Hub
	pool    *workerpool.Pool
	sweeper *scheduler.Sweeper

	// Configuration
	workerCount        int
	queueSize          int
	dedupeSize         int
	streamBuffer       int
	defaultTopN        int
	defaultMinDuration int
	expirySchedule     string
	now                func() time.Time

	// State
	started  bool
	stopping bool
	cancel   context.CancelFunc // ends the workers once they drained

	// Logging
	logger logger.Logger
}

var (
	_ workerpool.Recomputer = (*Service)(nil)
	_ workerpool.Publisher  = (*Service)(nil)
)

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:        runtime.NumCPU(),
		queueSize:          1024,
		dedupeSize:         10_000,
		streamBuffer:       16,
		defaultTopN:        ranking.DefaultTopN,
		defaultMinDuration: ranking.DefaultMinDurationSlots,
		expirySchedule:     scheduler.DefaultSpec,
		now:                time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.logger.Info(ctx, "starting huddle service...")

	if s.store == nil {
		s.store = repository.NewMemoryStore(repository.WithClock(s.now))
		s.logger.Info(ctx, "using memory store")
	}
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.queue = eventqueue.NewInMemoryQueue(eventqueue.WithCapacity(s.queueSize))
	s.hub = notify.NewHub(notify.WithBufferSize(s.streamBuffer))

	sweeper, err := scheduler.NewSweeper(s.expirySchedule, s.store, s.onExpired, scheduler.WithClock(s.now))
	if err != nil {
		s.hub.Close()
		_ = s.queue.Close()
		return fmt.Errorf("start sweeper: %w", err)
	}
	s.sweeper = sweeper

	// Workers outlive the caller's context so Stop can drain the queue.
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	s.pool = workerpool.NewPool(s.workerCount, s.queue, s, s, s.deduper)
	s.pool.Start(runCtx)
	s.sweeper.Start()

	metrics.UpdateEventsTotal(s.store.Count(ctx))

	s.started = true
	s.logger.Info(ctx, "huddle service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.String("expirySchedule", s.expirySchedule),
	)

	return nil
}

// Stop drains pending recomputes, closes every stream and the store.
// Workers keep reading the store while they drain, so the service stays
// marked as started until the pool is done. Notices still queued when ctx
// expires are dropped.
func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	if !s.started || s.stopping {
		s.mu.Unlock()
		return
	}
	s.stopping = true
	s.mu.Unlock()

	s.logger.Info(ctx, "stopping huddle service...")

	s.sweeper.Stop()
	if err := s.pool.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "worker pool shutdown", logger.Error(err))
	}
	s.cancel()
	s.hub.Close()

	s.mu.Lock()
	s.started = false
	s.stopping = false
	s.mu.Unlock()

	if err := s.store.Close(); err != nil {
		s.logger.Error(ctx, "closing store", logger.Error(err))
	}
	s.logger.Info(ctx, "huddle service stopped")
}

// CloseStreams ends every open change stream and refuses new ones. The HTTP
// server calls it on shutdown since it does not cancel streaming requests.
func (s *Service) CloseStreams() {
	s.mu.RLock()
	hub := s.hub
	s.mu.RUnlock()
	if hub != nil {
		hub.Close()
	}
}

func (s *Service) running() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return ErrNotStarted
	}
	return nil
}

// CreateEvent stores ev under a fresh share slug. ID, Slug and CreatedAt
// are assigned here.
func (s *Service) CreateEvent(ctx context.Context, ev model.Event) (model.Event, error) {
	if err := s.running(); err != nil {
		return model.Event{}, err
	}

	ev.ID = uuid.NewString()
	ev.CreatedAt = s.now().UTC()
	for attempt := 0; attempt < maxSlugAttempts; attempt++ {
		ev.Slug = slots.NewSlug()
		err := s.store.CreateEvent(ctx, ev)
		if errors.Is(err, repository.ErrDuplicateSlug) {
			s.logger.Debug(ctx, "slug collision, retrying", logger.String("slug", ev.Slug))
			continue
		}
		if err != nil {
			return model.Event{}, fmt.Errorf("create event: %w", err)
		}

		metrics.RecordEventCreated()
		metrics.UpdateEventsTotal(s.store.Count(ctx))
		s.logger.Info(ctx, "event created",
			logger.String("slug", ev.Slug),
			logger.Int("dates", len(ev.Dates)),
			logger.Int("slotMinutes", ev.SlotMinutes),
		)
		return ev, nil
	}
	return model.Event{}, ErrSlugSpace
}

// GetEvent returns the event with its roster, slot counts and heatmap.
func (s *Service) GetEvent(ctx context.Context, slug string) (EventView, error) {
	snap, err := s.snapshot(ctx, slug)
	if err != nil {
		return EventView{}, err
	}

	counts := make(map[string]int, len(snap.Participants))
	for _, r := range snap.Records {
		counts[r.ParticipantID]++
	}
	summaries := make([]ParticipantSummary, len(snap.Participants))
	for i, p := range snap.Participants {
		summaries[i] = ParticipantSummary{Participant: p, SlotCount: counts[p.ID]}
	}

	timeSlots := snap.Event.Slots()
	return EventView{
		Event:        snap.Event,
		Participants: summaries,
		Heatmap:      scoring.BuildHeatmap(snap.Records, snap.Event.Dates, timeSlots, snap.RosterNames()),
		TimeSlots:    timeSlots,
	}, nil
}

// BestTimes ranks the candidate meeting windows of an event.
func (s *Service) BestTimes(ctx context.Context, slug string, q BestTimesQuery) ([]model.RankedTimeBlock, error) {
	snap, err := s.snapshot(ctx, slug)
	if err != nil {
		return nil, err
	}

	topN, minDuration := q.TopN, q.MinDuration
	if topN <= 0 {
		topN = s.defaultTopN
	}
	if minDuration <= 0 {
		minDuration = s.defaultMinDuration
	}

	return ranking.FindBestTimes(snap.Records, snap.RosterNames(), snap.Event.Slots(),
		ranking.WithTopN(topN),
		ranking.WithMinDurationSlots(minDuration),
	), nil
}

// SubmitAvailability upserts the participant, replaces their selections,
// tells stream subscribers and schedules a recompute. A full queue does not
// fail the submission.
func (s *Service) SubmitAvailability(ctx context.Context, slug string, sub Submission) (SubmitResult, error) {
	if _, err := s.event(ctx, slug); err != nil {
		return SubmitResult{}, err
	}

	p, err := s.store.UpsertParticipant(ctx, slug, model.Participant{
		Name:     sub.ParticipantName,
		Timezone: sub.Timezone,
	})
	if err != nil {
		return SubmitResult{}, fmt.Errorf("upsert participant: %w", err)
	}
	n, err := s.store.ReplaceAvailability(ctx, slug, p.ID, sub.Slots)
	if err != nil {
		return SubmitResult{}, fmt.Errorf("replace availability: %w", err)
	}
	metrics.RecordSubmission(n)

	s.hub.Broadcast(ctx, slug, notify.Message{
		Type: notify.TypeAvailabilityUpdated,
		Payload: availabilityPayload{
			ParticipantID:   p.ID,
			ParticipantName: p.Name,
			SlotCount:       n,
		},
	})

	queued := s.scheduleRecompute(ctx, model.ChangeNotice{
		EventSlug:       slug,
		Kind:            model.NoticeAvailabilityUpdated,
		ParticipantID:   p.ID,
		ParticipantName: p.Name,
		SlotCount:       n,
		TS:              s.now().UTC(),
	})

	s.logger.Debug(ctx, "availability submitted",
		logger.String("slug", slug),
		logger.String("participant", p.Name),
		logger.Int("slots", n),
		logger.Bool("recomputeQueued", queued),
	)
	return SubmitResult{Participant: p, SlotCount: n, RecomputeQueued: queued}, nil
}

// scheduleRecompute enqueues a notice unless one for the same event is
// already pending.
func (s *Service) scheduleRecompute(ctx context.Context, n model.ChangeNotice) bool {
	if s.deduper.SeenAndRecord(ctx, n.EventSlug) {
		metrics.RecordNoticeCoalesced()
		return true
	}
	if !s.queue.Enqueue(ctx, n) {
		s.deduper.Unrecord(ctx, n.EventSlug)
		s.logger.Warn(ctx, "recompute queue full, skipping",
			logger.String("slug", n.EventSlug),
		)
		return false
	}
	return true
}

// ListAvailability returns every stored record of an event.
func (s *Service) ListAvailability(ctx context.Context, slug string) ([]model.AvailabilityRecord, error) {
	if _, err := s.event(ctx, slug); err != nil {
		return nil, err
	}
	return s.store.ListAvailability(ctx, slug)
}

// Subscribe opens a change stream for an existing event.
func (s *Service) Subscribe(ctx context.Context, slug string) (*notify.Subscription, error) {
	if _, err := s.event(ctx, slug); err != nil {
		return nil, err
	}
	return s.hub.Subscribe(slug)
}

// Unsubscribe closes a change stream.
func (s *Service) Unsubscribe(sub *notify.Subscription) {
	if s.hub != nil {
		s.hub.Unsubscribe(sub)
	}
}

// Recompute ranks an event with the service defaults. Workers call it.
func (s *Service) Recompute(ctx context.Context, slug string) ([]model.RankedTimeBlock, error) {
	return s.BestTimes(ctx, slug, BestTimesQuery{})
}

// PublishBestTimes streams a fresh ranking to the event's subscribers.
func (s *Service) PublishBestTimes(ctx context.Context, slug string, blocks []model.RankedTimeBlock) {
	s.hub.Broadcast(ctx, slug, notify.Message{
		Type:    notify.TypeBestTimesUpdated,
		Payload: blocks,
	})
}

func (s *Service) onExpired(ctx context.Context, slug string) {
	s.hub.Broadcast(ctx, slug, notify.Message{Type: notify.TypeEventExpired})
	metrics.UpdateEventsTotal(s.store.Count(ctx))
}

// SweepExpired removes expired events now instead of waiting for the
// schedule.
func (s *Service) SweepExpired(ctx context.Context) (int, error) {
	if err := s.running(); err != nil {
		return 0, err
	}
	return s.sweeper.Sweep(ctx), nil
}

// event loads an event and hides it once expired, even before the sweeper
// removes it.
func (s *Service) event(ctx context.Context, slug string) (model.Event, error) {
	if err := s.running(); err != nil {
		return model.Event{}, err
	}
	ev, err := s.store.GetEvent(ctx, slug)
	if err != nil {
		return model.Event{}, err
	}
	if ev.Expired(s.now()) {
		return model.Event{}, fmt.Errorf("event %s expired: %w", slug, repository.ErrNotFound)
	}
	return ev, nil
}

func (s *Service) snapshot(ctx context.Context, slug string) (model.Snapshot, error) {
	if err := s.running(); err != nil {
		return model.Snapshot{}, err
	}
	snap, err := s.store.Snapshot(ctx, slug)
	if err != nil {
		return model.Snapshot{}, err
	}
	if snap.Event.Expired(s.now()) {
		return model.Snapshot{}, fmt.Errorf("event %s expired: %w", slug, repository.ErrNotFound)
	}
	return snap, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"dedupeSize":  s.dedupeSize,
	}

	if s.started {
		queueLen := s.queue.Len(ctx)
		events := s.store.Count(ctx)

		stats["queueLength"] = queueLen
		stats["pendingRecomputes"] = s.deduper.Size()
		stats["recomputed"] = s.pool.Processed()
		stats["events"] = events
		stats["subscribers"] = s.hub.Total()
		stats["nextSweep"] = s.sweeper.Next().UTC().Format(time.RFC3339)

		metrics.UpdateQueueSize(queueLen)
		metrics.UpdateEventsTotal(events)
		metrics.UpdateWorkerCount(s.workerCount)
	}

	return stats
}
