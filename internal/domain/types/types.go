// Package types contains the JSON wire shapes shared by the HTTP API and
// its clients.
package types

import (
	"time"

	"github.com/okian/huddle/internal/domain/model"
)

// CreateEventRequest is the body of POST /events.
type CreateEventRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Dates       []string `json:"dates"`
	TimeStart   string   `json:"time_start"`
	TimeEnd     string   `json:"time_end"`
	SlotMinutes int      `json:"slot_minutes"`
	Timezone    string   `json:"timezone"`
	ExpiresAt   *string  `json:"expires_at,omitempty"` // RFC3339
}

// SlotRequest is one painted cell of a submission.
type SlotRequest struct {
	Date     string         `json:"date"`
	TimeSlot string         `json:"time_slot"`
	Priority model.Priority `json:"priority"`
}

// SubmitAvailabilityRequest is the body of POST /events/{id}/availability.
// It replaces everything the participant submitted before.
type SubmitAvailabilityRequest struct {
	ParticipantName string        `json:"participant_name"`
	Timezone        string        `json:"timezone"`
	Slots           []SlotRequest `json:"slots"`
}

// Event is the public shape of an event.
type Event struct {
	ID          string     `json:"id"`
	Slug        string     `json:"slug"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Dates       []string   `json:"dates"`
	TimeStart   string     `json:"time_start"`
	TimeEnd     string     `json:"time_end"`
	SlotMinutes int        `json:"slot_minutes"`
	Timezone    string     `json:"timezone"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// NewEvent converts a domain event to its wire shape.
func NewEvent(ev *model.Event) Event {
	return Event{
		ID:          ev.ID,
		Slug:        ev.Slug,
		Name:        ev.Name,
		Description: ev.Description,
		Dates:       ev.Dates,
		TimeStart:   ev.TimeStart,
		TimeEnd:     ev.TimeEnd,
		SlotMinutes: ev.SlotMinutes,
		Timezone:    ev.Timezone,
		ExpiresAt:   ev.ExpiresAt,
		CreatedAt:   ev.CreatedAt,
	}
}

// EventResponse wraps a created event.
type EventResponse struct {
	Event Event `json:"event"`
}

// ParticipantSummary is a roster entry with the size of its submission.
type ParticipantSummary struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Timezone  string `json:"timezone"`
	SlotCount int    `json:"slot_count"`
}

// EventView is the body of GET /events/{id}. Heatmap keys are "date|slot".
type EventView struct {
	Event        Event                      `json:"event"`
	Participants []ParticipantSummary       `json:"participants"`
	Heatmap      map[string]model.SlotScore `json:"heatmap"`
	TimeSlots    []string                   `json:"time_slots"`
}

// BestTimesResponse is the body of GET /events/{id}/best-times.
type BestTimesResponse struct {
	BestTimes []model.RankedTimeBlock `json:"best_times"`
}

// ParticipantRef identifies a participant in write acknowledgements.
type ParticipantRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SubmitAvailabilityResponse acknowledges a stored submission.
// RecomputeQueued is false when the recompute queue was full; the
// submission itself is stored either way.
type SubmitAvailabilityResponse struct {
	Participant     ParticipantRef `json:"participant"`
	SlotsCount      int            `json:"slots_count"`
	RecomputeQueued bool           `json:"recompute_queued"`
}

// AvailabilityEntry is one raw record as returned by GET availability.
type AvailabilityEntry struct {
	ParticipantName string         `json:"participant_name"`
	Date            string         `json:"date"`
	TimeSlot        string         `json:"time_slot"`
	Priority        model.Priority `json:"priority"`
}

// AvailabilityResponse is the body of GET /events/{id}/availability.
type AvailabilityResponse struct {
	Availabilities []AvailabilityEntry `json:"availabilities"`
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
