package model

import "time"

// NoticeKind names what changed for an event.
type NoticeKind string

// Notice kinds.
const (
	NoticeAvailabilityUpdated NoticeKind = "availability_updated"
	NoticeEventExpired        NoticeKind = "event_expired"
)

// ChangeNotice tells consumers that an event's inputs changed and any
// derived ranking must be recomputed. It carries no ranking state.
type ChangeNotice struct {
	EventSlug       string
	Kind            NoticeKind
	ParticipantID   string
	ParticipantName string
	SlotCount       int
	TS              time.Time
}
