// Package model contains domain models passed between layers.
package model

import (
	"time"

	"github.com/okian/huddle/internal/domain/slots"
)

// Event is a scheduling poll participants paint availability into.
// Dates and slot labels are already expressed in the event's timezone.
type Event struct {
	ID          string     // internal identifier (uuid)
	Slug        string     // public share code used in URLs
	Name        string     // display name
	Description string     // optional free text
	Dates       []string   // candidate dates, YYYY-MM-DD
	TimeStart   string     // first slot start, HH:MM
	TimeEnd     string     // end of the last slot (exclusive), HH:MM
	SlotMinutes int        // slot length: 15, 30 or 60
	Timezone    string     // canonical timezone label for the event
	ExpiresAt   *time.Time // optional expiry; nil keeps the event forever
	CreatedAt   time.Time
}

// Slots returns the canonical ordered slot labels for one day of the event.
// A malformed time window yields no slots.
func (e *Event) Slots() []string {
	labels, err := slots.Generate(e.TimeStart, e.TimeEnd, e.SlotMinutes)
	if err != nil {
		return []string{}
	}
	return labels
}

// Expired reports whether the event has an expiry at or before now.
func (e *Event) Expired(now time.Time) bool {
	return e.ExpiresAt != nil && !e.ExpiresAt.After(now)
}

// Participant is a named member of an event's roster.
type Participant struct {
	ID        string
	EventID   string
	Name      string // unique within an event
	Timezone  string
	CreatedAt time.Time
}

// SlotSelection is one painted cell of a participant's submission.
type SlotSelection struct {
	Date     string
	TimeSlot string
	Priority Priority
}

// Snapshot is a coherent read of everything the ranking engine needs for
// one event: the event itself, its roster and every availability record.
type Snapshot struct {
	Event        Event
	Participants []Participant
	Records      []AvailabilityRecord
}

// RosterNames returns participant display names in roster order.
func (s *Snapshot) RosterNames() []string {
	names := make([]string, len(s.Participants))
	for i, p := range s.Participants {
		names[i] = p.Name
	}
	return names
}
