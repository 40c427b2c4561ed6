package model

// Priority is the preference tier a participant declares for a slot.
type Priority string

// Priority tiers, strongest first.
const (
	PriorityPreferred Priority = "preferred"
	PriorityAvailable Priority = "available"
	PriorityIfNeeded  Priority = "if_needed"
)

// Weight returns the scoring weight of the tier. Unknown tiers weigh 0.
func (p Priority) Weight() int {
	switch p {
	case PriorityPreferred:
		return 3
	case PriorityAvailable:
		return 2
	case PriorityIfNeeded:
		return 1
	default:
		return 0
	}
}

// Valid reports whether p is one of the known tiers.
func (p Priority) Valid() bool {
	return p.Weight() > 0
}

// AvailabilityRecord is one participant's mark on one slot of one date.
type AvailabilityRecord struct {
	ParticipantID   string   `json:"participant_id"`
	ParticipantName string   `json:"participant_name"`
	Date            string   `json:"date"`
	TimeSlot        string   `json:"time_slot"`
	Priority        Priority `json:"priority"`
}

// SlotScore aggregates every record that falls on a (date, slot) pair.
type SlotScore struct {
	Date           string   `json:"date"`
	TimeSlot       string   `json:"time_slot"`
	TotalCount     int      `json:"total_count"`
	PreferredCount int      `json:"preferred_count"`
	AvailableCount int      `json:"available_count"`
	IfNeededCount  int      `json:"if_needed_count"`
	Score          int      `json:"score"`
	Participants   []string `json:"participants"`
	Missing        []string `json:"missing"`
	IsPerfectMatch bool     `json:"is_perfect_match"`
}

// RankedTimeBlock is a maximal contiguous run of slots on one date.
// MinParticipants is the weakest slot's head count and the primary sort key.
type RankedTimeBlock struct {
	Rank            int      `json:"rank"`
	Date            string   `json:"date"`
	StartSlot       string   `json:"start_slot"`
	EndSlot         string   `json:"end_slot"`
	SlotCount       int      `json:"slot_count"`
	AvgScore        float64  `json:"avg_score"`
	TotalScore      int      `json:"total_score"`
	MinParticipants int      `json:"min_participants"`
	MaxParticipants int      `json:"max_participants"`
	Participants    []string `json:"participants"`
	Missing         []string `json:"missing"`
	IsPerfectMatch  bool     `json:"is_perfect_match"`
}
