// Package notify keeps the registry of live change-stream subscribers.
//
// A Hub is created once by the service, shared by every stream handler and
// closed on shutdown. All methods are safe for concurrent use. Broadcast
// never blocks: a subscriber whose buffer is full misses the message.
package notify

import (
	"context"
	"sync"
	"time"

	"github.com/okian/huddle/pkg/logger"
	"github.com/okian/huddle/pkg/metrics"
)

const defaultBufferSize = 16

// Message types sent on change streams.
const (
	TypeConnected           = "connected"
	TypeHeartbeat           = "heartbeat"
	TypeAvailabilityUpdated = "availability_updated"
	TypeBestTimesUpdated    = "best_times_updated"
	TypeEventExpired        = "event_expired"
)

// Message is one change event delivered to subscribers of an event slug.
type Message struct {
	Type    string    `json:"type"`
	Slug    string    `json:"event_slug"`
	TS      time.Time `json:"ts"`
	Payload any       `json:"payload,omitempty"`
}

// Subscription is one listener's view of an event's messages.
type Subscription struct {
	slug string
	ch   chan Message
	once sync.Once
}

// C returns the delivery channel. It is closed on Unsubscribe or Hub.Close.
func (s *Subscription) C() <-chan Message { return s.ch }

// Slug returns the event slug the subscription listens to.
func (s *Subscription) Slug() string { return s.slug }

func (s *Subscription) close() {
	s.once.Do(func() { close(s.ch) })
}

// Hub is the process-wide subscriber registry.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]map[*Subscription]struct{}
	total  int
	closed bool
	buffer int
	logger logger.Logger
}

// NewHub creates an empty Hub.
func NewHub(opts ...Option) *Hub {
	h := &Hub{
		subs:   make(map[string]map[*Subscription]struct{}),
		buffer: defaultBufferSize,
		logger: logger.Get().Named("notify"),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Subscribe registers a listener for slug.
func (h *Hub) Subscribe(slug string) (*Subscription, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, ErrClosed
	}
	sub := &Subscription{slug: slug, ch: make(chan Message, h.buffer)}
	set, ok := h.subs[slug]
	if !ok {
		set = make(map[*Subscription]struct{})
		h.subs[slug] = set
	}
	set[sub] = struct{}{}
	h.total++
	metrics.UpdateStreamSubscribers(h.total)
	return sub, nil
}

// Unsubscribe removes sub and closes its channel. Unknown or already
// removed subscriptions are ignored.
func (h *Hub) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.subs[sub.slug]
	if !ok {
		return
	}
	if _, ok := set[sub]; !ok {
		return
	}
	delete(set, sub)
	if len(set) == 0 {
		delete(h.subs, sub.slug)
	}
	h.total--
	sub.close()
	metrics.UpdateStreamSubscribers(h.total)
}

// Broadcast delivers msg to every subscriber of slug and returns how many
// received it.
func (h *Hub) Broadcast(ctx context.Context, slug string, msg Message) int {
	msg.Slug = slug
	if msg.TS.IsZero() {
		msg.TS = time.Now().UTC()
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for sub := range h.subs[slug] {
		select {
		case sub.ch <- msg:
			delivered++
		default:
			metrics.RecordStreamDropped()
			h.logger.Warn(ctx, "dropping message for slow subscriber",
				logger.String("event_slug", slug),
				logger.String("type", msg.Type),
			)
		}
	}
	metrics.RecordStreamBroadcast(msg.Type)
	return delivered
}

// Count returns the number of subscribers of slug.
func (h *Hub) Count(slug string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[slug])
}

// Total returns the number of subscribers across all events.
func (h *Hub) Total() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.total
}

// Close closes every subscription and rejects new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	for slug, set := range h.subs {
		for sub := range set {
			sub.close()
		}
		delete(h.subs, slug)
	}
	h.total = 0
	metrics.UpdateStreamSubscribers(0)
}
