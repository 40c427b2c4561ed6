package api

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	service "github.com/okian/huddle/internal/app"
	"github.com/okian/huddle/internal/domain/model"
	"github.com/okian/huddle/internal/domain/slots"
	"github.com/okian/huddle/internal/domain/types"
)

// Input limits.
const (
	maxEventNameLen       = 100
	maxDescriptionLen     = 500
	maxDates              = 31
	maxParticipantNameLen = 50
	maxTimezoneLen        = 64
	maxSlotsPerSubmission = maxDates * 24 * 4
)

func validSlotMinutes(m int) bool {
	return m == 15 || m == 30 || m == 60
}

// eventFromRequest validates a create request and converts it to a draft
// event.
func eventFromRequest(req *types.CreateEventRequest, now time.Time) (model.Event, error) {
	name := strings.TrimSpace(req.Name)
	switch {
	case name == "":
		return model.Event{}, errors.New("missing name")
	case utf8.RuneCountInString(name) > maxEventNameLen:
		return model.Event{}, fmt.Errorf("name longer than %d characters", maxEventNameLen)
	case utf8.RuneCountInString(req.Description) > maxDescriptionLen:
		return model.Event{}, fmt.Errorf("description longer than %d characters", maxDescriptionLen)
	case len(req.Dates) == 0:
		return model.Event{}, errors.New("select at least one date")
	case len(req.Dates) > maxDates:
		return model.Event{}, fmt.Errorf("at most %d dates", maxDates)
	case !slots.ValidClock(req.TimeStart):
		return model.Event{}, errors.New("invalid time_start; must be HH:MM")
	case !slots.ValidClock(req.TimeEnd):
		return model.Event{}, errors.New("invalid time_end; must be HH:MM")
	case req.TimeEnd <= req.TimeStart:
		return model.Event{}, errors.New("time_end must be after time_start")
	case !validSlotMinutes(req.SlotMinutes):
		return model.Event{}, errors.New("slot_minutes must be 15, 30 or 60")
	case strings.TrimSpace(req.Timezone) == "":
		return model.Event{}, errors.New("missing timezone")
	case len(req.Timezone) > maxTimezoneLen:
		return model.Event{}, errors.New("timezone too long")
	}

	seen := make(map[string]struct{}, len(req.Dates))
	for _, d := range req.Dates {
		if !slots.ValidDate(d) {
			return model.Event{}, fmt.Errorf("invalid date %q; must be YYYY-MM-DD", d)
		}
		if _, dup := seen[d]; dup {
			return model.Event{}, fmt.Errorf("duplicate date %q", d)
		}
		seen[d] = struct{}{}
	}

	ev := model.Event{
		Name:        name,
		Description: strings.TrimSpace(req.Description),
		Dates:       append([]string(nil), req.Dates...),
		TimeStart:   req.TimeStart,
		TimeEnd:     req.TimeEnd,
		SlotMinutes: req.SlotMinutes,
		Timezone:    strings.TrimSpace(req.Timezone),
	}
	if req.ExpiresAt != nil && *req.ExpiresAt != "" {
		t, err := time.Parse(time.RFC3339, *req.ExpiresAt)
		if err != nil {
			return model.Event{}, errors.New("invalid expires_at; must be RFC3339")
		}
		if !t.After(now) {
			return model.Event{}, errors.New("expires_at must be in the future")
		}
		t = t.UTC()
		ev.ExpiresAt = &t
	}
	return ev, nil
}

// submissionFromRequest validates a submission and converts it.
func submissionFromRequest(req *types.SubmitAvailabilityRequest) (service.Submission, error) {
	name := strings.TrimSpace(req.ParticipantName)
	switch {
	case name == "":
		return service.Submission{}, errors.New("missing participant_name")
	case utf8.RuneCountInString(name) > maxParticipantNameLen:
		return service.Submission{}, fmt.Errorf("participant_name longer than %d characters", maxParticipantNameLen)
	case strings.TrimSpace(req.Timezone) == "":
		return service.Submission{}, errors.New("missing timezone")
	case len(req.Timezone) > maxTimezoneLen:
		return service.Submission{}, errors.New("timezone too long")
	case len(req.Slots) > maxSlotsPerSubmission:
		return service.Submission{}, fmt.Errorf("at most %d slots", maxSlotsPerSubmission)
	}

	sel := make([]model.SlotSelection, len(req.Slots))
	for i, s := range req.Slots {
		switch {
		case !slots.ValidDate(s.Date):
			return service.Submission{}, fmt.Errorf("slots[%d]: invalid date %q", i, s.Date)
		case !slots.ValidClock(s.TimeSlot):
			return service.Submission{}, fmt.Errorf("slots[%d]: invalid time_slot %q", i, s.TimeSlot)
		case !s.Priority.Valid():
			return service.Submission{}, fmt.Errorf("slots[%d]: priority must be preferred, available or if_needed", i)
		}
		sel[i] = model.SlotSelection{Date: s.Date, TimeSlot: s.TimeSlot, Priority: s.Priority}
	}
	return service.Submission{
		ParticipantName: name,
		Timezone:        strings.TrimSpace(req.Timezone),
		Slots:           sel,
	}, nil
}
