package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	service "github.com/okian/huddle/internal/app"
	"github.com/okian/huddle/internal/domain/model"
	"github.com/okian/huddle/internal/domain/types"
)

// BestTimesDependencies defines the interface for ranking reads.
type BestTimesDependencies interface {
	BestTimes(ctx context.Context, slug string, q service.BestTimesQuery) ([]model.RankedTimeBlock, error)
}

// BestTimesHandler handles best-times requests.
type BestTimesHandler struct {
	deps    BestTimesDependencies
	maxTopN int
}

// NewBestTimesHandler creates a new best-times handler.
func NewBestTimesHandler(deps BestTimesDependencies, maxTopN int) *BestTimesHandler {
	if maxTopN <= 0 {
		maxTopN = defaultMaxTopN
	}
	return &BestTimesHandler{deps: deps, maxTopN: maxTopN}
}

// HandleBestTimes handles GET /events/{id}/best-times requests.
// Optional query parameters: top (1..max) and min_duration (>= 1 slots).
func (h *BestTimesHandler) HandleBestTimes(w http.ResponseWriter, r *http.Request) {
	const op = "api.best_times"
	q, err := h.parseQuery(r)
	if err != nil {
		respondError(r.Context(), w, WrapKind(op, ErrBadRequest, err))
		return
	}

	blocks, err := h.deps.BestTimes(r.Context(), r.PathValue("id"), q)
	if err != nil {
		respondError(r.Context(), w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, types.BestTimesResponse{BestTimes: blocks})
}

func (h *BestTimesHandler) parseQuery(r *http.Request) (service.BestTimesQuery, error) {
	var q service.BestTimesQuery
	values := r.URL.Query()

	if v := values.Get("top"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > h.maxTopN {
			return q, fmt.Errorf("invalid top; must be between 1 and %d", h.maxTopN)
		}
		q.TopN = n
	}
	if v := values.Get("min_duration"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return q, errors.New("invalid min_duration; must be a positive number of slots")
		}
		q.MinDuration = n
	}
	return q, nil
}
