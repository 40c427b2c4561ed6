package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/okian/huddle/internal/adapters/notify"
	"github.com/okian/huddle/pkg/logger"
)

// StreamDependencies defines the interface for change streams.
type StreamDependencies interface {
	Subscribe(ctx context.Context, slug string) (*notify.Subscription, error)
	Unsubscribe(sub *notify.Subscription)
}

// StreamHandler serves Server-Sent Events for one event.
type StreamHandler struct {
	deps      StreamDependencies
	heartbeat time.Duration
	logger    logger.Logger
}

// NewStreamHandler creates a new stream handler.
func NewStreamHandler(deps StreamDependencies, heartbeat time.Duration) *StreamHandler {
	if heartbeat <= 0 {
		heartbeat = defaultHeartbeat
	}
	return &StreamHandler{
		deps:      deps,
		heartbeat: heartbeat,
		logger:    logger.Get().Named("stream"),
	}
}

// HandleStream handles GET /events/{id}/stream requests. The stream opens
// with a connected message, then relays every change of the event with a
// heartbeat in between, until the client leaves or the event goes away.
func (h *StreamHandler) HandleStream(w http.ResponseWriter, r *http.Request) {
	const op = "api.stream"
	ctx := r.Context()
	slug := r.PathValue("id")

	sub, err := h.deps.Subscribe(ctx, slug)
	if err != nil {
		respondError(ctx, w, Wrap(op, err))
		return
	}
	defer h.deps.Unsubscribe(sub)

	log := h.logger.With(logger.String("slug", slug))
	log.Debug(ctx, "stream opened")
	defer log.Debug(ctx, "stream closed")

	rc := http.NewResponseController(w)
	// Streams outlive the server write timeout.
	_ = rc.SetWriteDeadline(time.Time{})

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	send := func(msg notify.Message) bool {
		if msg.TS.IsZero() {
			msg.TS = time.Now().UTC()
		}
		msg.Slug = slug
		if err := writeEvent(w, msg); err != nil {
			log.Debug(ctx, "stream write failed", logger.Error(err))
			return false
		}
		return rc.Flush() == nil
	}

	if !send(notify.Message{Type: notify.TypeConnected}) {
		return
	}

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-sub.C():
			if !ok || !send(msg) {
				return
			}
			if msg.Type == notify.TypeEventExpired {
				return
			}
		case <-ticker.C:
			if !send(notify.Message{Type: notify.TypeHeartbeat}) {
				return
			}
		}
	}
}

// writeEvent writes one SSE data frame.
func writeEvent(w http.ResponseWriter, msg notify.Message) error {
	raw, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode %s message: %w", msg.Type, err)
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", raw); err != nil {
		return fmt.Errorf("write %s message: %w", msg.Type, err)
	}
	return nil
}
