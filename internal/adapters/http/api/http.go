// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/huddle/internal/adapters/notify"
	repository "github.com/okian/huddle/internal/adapters/repository"
	service "github.com/okian/huddle/internal/app"
	"github.com/okian/huddle/internal/domain/model"
	"github.com/okian/huddle/internal/domain/types"
	"github.com/okian/huddle/pkg/logger"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	CreateEvent(ctx context.Context, ev model.Event) (model.Event, error)
	GetEvent(ctx context.Context, slug string) (service.EventView, error)
	BestTimes(ctx context.Context, slug string, q service.BestTimesQuery) ([]model.RankedTimeBlock, error)

	// SubmitAvailability replaces a participant's selections. A full
	// recompute queue is reported in the result, never as an error.
	SubmitAvailability(ctx context.Context, slug string, sub service.Submission) (service.SubmitResult, error)
	ListAvailability(ctx context.Context, slug string) ([]model.AvailabilityRecord, error)

	// Change streams.
	Subscribe(ctx context.Context, slug string) (*notify.Subscription, error)
	Unsubscribe(sub *notify.Subscription)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler       *HealthHandler
	statsHandler        *StatsHandler
	eventsHandler       *EventsHandler
	availabilityHandler *AvailabilityHandler
	bestTimesHandler    *BestTimesHandler
	streamHandler       *StreamHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	cfg := defaultSettings()
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Server{
		healthHandler:       NewHealthHandler(),
		statsHandler:        NewStatsHandler(statsProvider),
		eventsHandler:       NewEventsHandler(deps, cfg.now),
		availabilityHandler: NewAvailabilityHandler(deps),
		bestTimesHandler:    NewBestTimesHandler(deps, cfg.maxTopN),
		streamHandler:       NewStreamHandler(deps, cfg.heartbeat),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}

	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("POST /events", MetricsMiddleware(s.eventsHandler.HandleCreateEvent, "events"))
	mux.HandleFunc("GET /events/{id}", MetricsMiddleware(s.eventsHandler.HandleGetEvent, "event"))
	mux.HandleFunc("GET /events/{id}/best-times", MetricsMiddleware(s.bestTimesHandler.HandleBestTimes, "best_times"))
	mux.HandleFunc("POST /events/{id}/availability", MetricsMiddleware(s.availabilityHandler.HandleSubmit, "availability"))
	mux.HandleFunc("GET /events/{id}/availability", MetricsMiddleware(s.availabilityHandler.HandleList, "availability"))
	mux.HandleFunc("GET /events/{id}/stream", MetricsMiddleware(s.streamHandler.HandleStream, "stream"))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil && status < http.StatusInternalServerError {
		msg = message(err)
	}
	writeJSON(w, status, types.ErrorResponse{Code: code, Message: msg})
}

// respondError maps err onto a status code and error body.
func respondError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrBadRequest):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, service.ErrNotStarted), errors.Is(err, notify.ErrClosed), errors.Is(err, ErrUnavailable):
		writeError(w, http.StatusServiceUnavailable, "unavailable", err)
	default:
		logger.Get().Named("api").Error(ctx, "request failed", logger.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}

// decodeJSON reads a bounded JSON body into v, rejecting unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, op string, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return WrapKind(op, ErrBadRequest, err)
	}
	return nil
}
