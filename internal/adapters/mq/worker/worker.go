// Package worker drains change notices and recomputes best times.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/huddle/internal/domain/model"
	"github.com/okian/huddle/pkg/logger"
	"github.com/okian/huddle/pkg/metrics"
)

const poolShutdownTimeout = 30 * time.Second

// Notice is what workers read off the queue.
type Notice = model.ChangeNotice

// Queue defines how workers receive notices.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Notice
}

// Recomputer loads an event snapshot and ranks it.
type Recomputer interface {
	Recompute(ctx context.Context, slug string) ([]model.RankedTimeBlock, error)
}

// Publisher hands fresh rankings to whoever is listening.
type Publisher interface {
	PublishBestTimes(ctx context.Context, slug string, blocks []model.RankedTimeBlock)
}

// Pending releases a coalesced recompute key.
type Pending interface {
	Unrecord(ctx context.Context, key string)
}

type noPending struct{}

func (noPending) Unrecord(context.Context, string) {}

// InMemoryWorker recomputes rankings for dequeued notices.
type InMemoryWorker struct {
	queue      Queue
	recomputer Recomputer
	publisher  Publisher
	pending    Pending
	name       string
	processed  *atomic.Int64

	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, r Recomputer, p Publisher, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:      q,
		recomputer: r,
		publisher:  p,
		pending:    noPending{},
		name:       "worker",
		processed:  &atomic.Int64{},
		shutdown:   make(chan struct{}),
		done:       make(chan struct{}),
		logger:     logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	notices := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case n, ok := <-notices:
			if !ok {
				return
			}
			if err := w.process(ctx, n); err != nil {
				w.logger.Error(ctx, "error processing notice", logger.Error(err))
			}
		}
	}
}

// Shutdown stops the worker after its current notice. It is safe to call
// more than once.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.shutdownOnce.Do(func() { close(w.shutdown) })
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Processed returns how many notices this worker has recomputed.
func (w *InMemoryWorker) Processed() int64 {
	return w.processed.Load()
}

// process recomputes one event. The pending key is released first so that a
// change landing during the recompute schedules another pass.
func (w *InMemoryWorker) process(ctx context.Context, n Notice) error { //nolint:gocritic // hugeParam: passed by value for channel semantics
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	w.pending.Unrecord(ctx, n.EventSlug)

	blocks, err := w.recomputer.Recompute(ctx, n.EventSlug)
	if err != nil {
		metrics.RecordRecomputeError()
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "recompute_error")
		return fmt.Errorf("%w for event %s: %w", ErrRecompute, n.EventSlug, err)
	}
	metrics.RecordRecompute(float64(time.Since(start).Microseconds())/1000, len(blocks))
	w.processed.Add(1)

	w.publisher.PublishBestTimes(ctx, n.EventSlug, blocks)
	w.logger.Debug(ctx, "best times recomputed",
		logger.String("event_slug", n.EventSlug),
		logger.Int("blocks", len(blocks)),
		logger.Duration("took", time.Since(start)),
	)
	return nil
}

// Pool manages multiple workers sharing one queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	logger  logger.Logger
}

// NewPool creates a worker pool. A non-positive count uses runtime.NumCPU().
func NewPool(workerCount int, q Queue, r Recomputer, p Publisher, pending Pending) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}

	pool := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
		logger:  logger.Get().Named("worker-pool"),
	}
	for i := 0; i < workerCount; i++ {
		pool.workers[i] = NewInMemoryWorker(q, r, p,
			WithName("worker-"+strconv.Itoa(i)),
			WithPending(pending),
		)
	}

	metrics.UpdateWorkerCount(workerCount)
	metrics.UpdateWorkerActiveCount(0)
	return pool
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
	metrics.UpdateWorkerActiveCount(len(p.workers))
}

// Size returns the number of workers.
func (p *Pool) Size() int {
	return len(p.workers)
}

// Processed returns the total number of recomputations done by the pool.
func (p *Pool) Processed() int64 {
	var total int64
	for _, w := range p.workers {
		total += w.Processed()
	}
	return total
}

// Shutdown closes the queue, lets workers drain it and waits for them. A
// worker that already finished is never reported as timed out.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var timedOut int
	for i, w := range p.workers {
		select {
		case <-w.done:
			continue
		default:
		}
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			timedOut++
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}
	metrics.UpdateWorkerActiveCount(0)
	if timedOut > 0 {
		return fmt.Errorf("%w: %d of %d workers still busy", ErrShutdownTimeout, timedOut, len(p.workers))
	}
	return nil
}
