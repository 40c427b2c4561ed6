package api

import (
	"context"
	"net/http"
	"time"

	service "github.com/okian/huddle/internal/app"
	"github.com/okian/huddle/internal/domain/model"
	"github.com/okian/huddle/internal/domain/types"
)

// EventDependencies defines the interface for event operations.
type EventDependencies interface {
	CreateEvent(ctx context.Context, ev model.Event) (model.Event, error)
	GetEvent(ctx context.Context, slug string) (service.EventView, error)
}

// EventsHandler handles event requests.
type EventsHandler struct {
	deps EventDependencies
	now  func() time.Time
}

// NewEventsHandler creates a new events handler.
func NewEventsHandler(deps EventDependencies, now func() time.Time) *EventsHandler {
	if now == nil {
		now = time.Now
	}
	return &EventsHandler{deps: deps, now: now}
}

// HandleCreateEvent handles POST /events requests.
func (h *EventsHandler) HandleCreateEvent(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_event"
	var req types.CreateEventRequest
	if err := decodeJSON(w, r, op, &req); err != nil {
		respondError(r.Context(), w, err)
		return
	}
	draft, err := eventFromRequest(&req, h.now())
	if err != nil {
		respondError(r.Context(), w, WrapKind(op, ErrBadRequest, err))
		return
	}

	ev, err := h.deps.CreateEvent(r.Context(), draft)
	if err != nil {
		respondError(r.Context(), w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusCreated, types.EventResponse{Event: types.NewEvent(&ev)})
}

// HandleGetEvent handles GET /events/{id} requests.
func (h *EventsHandler) HandleGetEvent(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_event"
	view, err := h.deps.GetEvent(r.Context(), r.PathValue("id"))
	if err != nil {
		respondError(r.Context(), w, Wrap(op, err))
		return
	}

	participants := make([]types.ParticipantSummary, len(view.Participants))
	for i, p := range view.Participants {
		participants[i] = types.ParticipantSummary{
			ID:        p.Participant.ID,
			Name:      p.Participant.Name,
			Timezone:  p.Participant.Timezone,
			SlotCount: p.SlotCount,
		}
	}
	writeJSON(w, http.StatusOK, types.EventView{
		Event:        types.NewEvent(&view.Event),
		Participants: participants,
		Heatmap:      view.Heatmap.Map(),
		TimeSlots:    view.TimeSlots,
	})
}
