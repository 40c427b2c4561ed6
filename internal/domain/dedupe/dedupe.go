// Package dedupe coalesces recompute requests: while a recompute for a key
// is pending, further requests for the same key are absorbed.
package dedupe

import (
	"container/list"
	"context"
	"sync"
	"sync/atomic"
)

const defaultMaxSize = 10000

// Deduper tracks which keys have a recompute pending.
type Deduper interface {
	// SeenAndRecord reports whether key is already pending and marks it
	// pending if it was not. The check and the mark are atomic.
	SeenAndRecord(ctx context.Context, key string) bool

	// Unrecord clears key so the next change schedules a fresh recompute.
	// Workers call it before they read the snapshot, so a change landing
	// mid-recompute is never lost.
	Unrecord(ctx context.Context, key string)

	// Size returns the number of pending keys.
	Size() int64
}

// pendingSet keeps keys in insertion order. When bounded and full, the
// oldest key is forgotten; its notice stays queued, so the only effect is
// one extra recompute.
type pendingSet struct {
	mu      sync.Mutex
	order   *list.List               // oldest at Front
	keys    map[string]*list.Element // key -> element in order
	maxSize int                      // <= 0 means unbounded
	size    atomic.Int64
}

// NewInMemoryDeduper creates an in-memory Deduper.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &pendingSet{
		order:   list.New(),
		keys:    make(map[string]*list.Element),
		maxSize: defaultMaxSize,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *pendingSet) SeenAndRecord(_ context.Context, key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.keys[key]; ok {
		return true
	}
	if d.maxSize > 0 && len(d.keys) >= d.maxSize {
		d.evictOldest()
	}
	d.keys[key] = d.order.PushBack(key)
	d.size.Store(int64(len(d.keys)))
	return false
}

func (d *pendingSet) Unrecord(_ context.Context, key string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if el, ok := d.keys[key]; ok {
		d.order.Remove(el)
		delete(d.keys, key)
		d.size.Store(int64(len(d.keys)))
	}
}

// evictOldest must be called with d.mu held.
func (d *pendingSet) evictOldest() {
	front := d.order.Front()
	if front == nil {
		return
	}
	d.order.Remove(front)
	delete(d.keys, front.Value.(string))
}

func (d *pendingSet) Size() int64 {
	return d.size.Load()
}
