// Package queue carries change notices from writers to recompute workers.
package queue

import (
	"context"
	"sync"

	"github.com/okian/huddle/internal/domain/model"
	"github.com/okian/huddle/pkg/metrics"
)

const defaultQueueCapacity = 1024

// Notice is the payload flowing through the queue.
type Notice = model.ChangeNotice

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a notice. It returns false when the queue is full or
	// closed; it never blocks.
	Enqueue(ctx context.Context, n Notice) bool

	// Dequeue returns the shared consumer channel. It is closed once the
	// queue is closed and drained, or when the ctx of the first call ends.
	Dequeue(ctx context.Context) <-chan Notice

	// Len returns the number of queued notices.
	Len(ctx context.Context) int

	// Close stops accepting notices. Already queued notices are still
	// delivered.
	Close() error

	// IsClosed reports whether Close has been called.
	IsClosed() bool
}

// InMemoryQueue implements Queue with a buffered channel.
type InMemoryQueue struct {
	notices  chan Notice
	out      chan Notice
	capacity int

	pumpOnce sync.Once
	mu       sync.RWMutex
	closed   bool
}

// Option configures an InMemoryQueue.
type Option func(*InMemoryQueue)

// WithCapacity bounds the number of pending notices. Enqueue reports false
// once it is reached.
func WithCapacity(capacity int) Option {
	return func(q *InMemoryQueue) {
		if capacity > 0 {
			q.capacity = capacity
		}
	}
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultQueueCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.notices = make(chan Notice, q.capacity)
	q.out = make(chan Notice)

	metrics.UpdateQueueCapacity(q.capacity)
	q.observe()
	return q
}

// Enqueue adds a notice without blocking.
func (q *InMemoryQueue) Enqueue(ctx context.Context, n Notice) bool { //nolint:gocritic // hugeParam: passed by value for channel semantics
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "closed")
		return false
	}
	if ctx.Err() != nil {
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "context_cancelled")
		return false
	}

	select {
	case q.notices <- n:
		metrics.RecordQueueEnqueue()
		q.observe()
		return true
	default:
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "queue_full")
		return false
	}
}

// Dequeue returns the consumer channel shared by every caller.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Notice {
	q.pumpOnce.Do(func() {
		go q.pump(ctx)
	})
	return q.out
}

// pump forwards buffered notices to consumers so dequeues can be counted.
func (q *InMemoryQueue) pump(ctx context.Context) {
	defer close(q.out)
	for {
		select {
		case <-ctx.Done():
			return
		case n, ok := <-q.notices:
			if !ok {
				return
			}
			select {
			case q.out <- n:
				metrics.RecordQueueDequeue()
				q.observe()
			case <-ctx.Done():
				return
			}
		}
	}
}

// Len returns the number of queued notices.
func (q *InMemoryQueue) Len(_ context.Context) int {
	q.observe()
	return len(q.notices)
}

// Capacity returns the maximum number of pending notices.
func (q *InMemoryQueue) Capacity() int {
	return q.capacity
}

// Close stops accepting new notices.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.notices)
	q.closed = true
	return nil
}

// IsClosed reports whether the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}

func (q *InMemoryQueue) observe() {
	size := len(q.notices)
	metrics.UpdateQueueSize(size)
	metrics.UpdateQueueUtilization(float64(size) / float64(q.capacity))
}
