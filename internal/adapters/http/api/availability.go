package api

import (
	"context"
	"net/http"

	service "github.com/okian/huddle/internal/app"
	"github.com/okian/huddle/internal/domain/model"
	"github.com/okian/huddle/internal/domain/types"
)

// AvailabilityDependencies defines the interface for availability writes
// and reads.
type AvailabilityDependencies interface {
	SubmitAvailability(ctx context.Context, slug string, sub service.Submission) (service.SubmitResult, error)
	ListAvailability(ctx context.Context, slug string) ([]model.AvailabilityRecord, error)
}

// AvailabilityHandler handles availability requests.
type AvailabilityHandler struct {
	deps AvailabilityDependencies
}

// NewAvailabilityHandler creates a new availability handler.
func NewAvailabilityHandler(deps AvailabilityDependencies) *AvailabilityHandler {
	return &AvailabilityHandler{deps: deps}
}

// HandleSubmit handles POST /events/{id}/availability requests.
func (h *AvailabilityHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	const op = "api.submit_availability"
	var req types.SubmitAvailabilityRequest
	if err := decodeJSON(w, r, op, &req); err != nil {
		respondError(r.Context(), w, err)
		return
	}
	sub, err := submissionFromRequest(&req)
	if err != nil {
		respondError(r.Context(), w, WrapKind(op, ErrBadRequest, err))
		return
	}

	res, err := h.deps.SubmitAvailability(r.Context(), r.PathValue("id"), sub)
	if err != nil {
		respondError(r.Context(), w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, types.SubmitAvailabilityResponse{
		Participant:     types.ParticipantRef{ID: res.Participant.ID, Name: res.Participant.Name},
		SlotsCount:      res.SlotCount,
		RecomputeQueued: res.RecomputeQueued,
	})
}

// HandleList handles GET /events/{id}/availability requests.
func (h *AvailabilityHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_availability"
	records, err := h.deps.ListAvailability(r.Context(), r.PathValue("id"))
	if err != nil {
		respondError(r.Context(), w, Wrap(op, err))
		return
	}

	out := make([]types.AvailabilityEntry, len(records))
	for i, rec := range records {
		out[i] = types.AvailabilityEntry{
			ParticipantName: rec.ParticipantName,
			Date:            rec.Date,
			TimeSlot:        rec.TimeSlot,
			Priority:        rec.Priority,
		}
	}
	writeJSON(w, http.StatusOK, types.AvailabilityResponse{Availabilities: out})
}
