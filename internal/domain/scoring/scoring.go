// Package scoring aggregates raw availability records into per-slot metrics.
// Every function here is pure: inputs are never mutated and each call builds
// fresh output, so callers may share inputs across goroutines.
package scoring

import (
	"sort"

	"github.com/okian/huddle/internal/domain/model"
)

type cellKey struct {
	date string
	slot string
}

// Index groups records by (date, slot) so a grid can be scored without
// rescanning the record list for every cell.
type Index struct {
	cells map[cellKey][]model.AvailabilityRecord
	dates []string
}

// NewIndex builds an Index over records.
func NewIndex(records []model.AvailabilityRecord) *Index {
	ix := &Index{cells: make(map[cellKey][]model.AvailabilityRecord, len(records))}
	seen := make(map[string]struct{})
	for _, r := range records {
		k := cellKey{date: r.Date, slot: r.TimeSlot}
		ix.cells[k] = append(ix.cells[k], r)
		if _, ok := seen[r.Date]; !ok {
			seen[r.Date] = struct{}{}
			ix.dates = append(ix.dates, r.Date)
		}
	}
	sort.Strings(ix.dates)
	return ix
}

// Dates returns the distinct dates present in the indexed records, ascending.
func (ix *Index) Dates() []string {
	out := make([]string, len(ix.dates))
	copy(out, ix.dates)
	return out
}

// Score scores a single (date, slot) cell.
func (ix *Index) Score(date, slot string, roster []string) model.SlotScore {
	return scoreCell(date, slot, ix.cells[cellKey{date: date, slot: slot}], roster)
}

// ScoreDay scores every slot of one date in the given order. Slots with no
// records are included with zero counts.
func (ix *Index) ScoreDay(date string, orderedSlots, roster []string) []model.SlotScore {
	out := make([]model.SlotScore, len(orderedSlots))
	for i, slot := range orderedSlots {
		out[i] = ix.Score(date, slot, roster)
	}
	return out
}

// ScoreSlot scores one (date, slot) pair against the full record list.
func ScoreSlot(date, slot string, records []model.AvailabilityRecord, roster []string) model.SlotScore {
	var matched []model.AvailabilityRecord
	for _, r := range records {
		if r.Date == date && r.TimeSlot == slot {
			matched = append(matched, r)
		}
	}
	return scoreCell(date, slot, matched, roster)
}

// ScoreSlots scores every (date present in records) x (slot in orderedSlots)
// pair, dates ascending and slots in the given order. Records whose slot is
// not in orderedSlots contribute nothing.
func ScoreSlots(records []model.AvailabilityRecord, roster, orderedSlots []string) []model.SlotScore {
	ix := NewIndex(records)
	out := make([]model.SlotScore, 0, len(ix.dates)*len(orderedSlots))
	for _, date := range ix.dates {
		out = append(out, ix.ScoreDay(date, orderedSlots, roster)...)
	}
	return out
}

// scoreCell tallies records already known to belong to (date, slot).
// Tier counts are per record; presence is per distinct name.
func scoreCell(date, slot string, records []model.AvailabilityRecord, roster []string) model.SlotScore {
	s := model.SlotScore{
		Date:         date,
		TimeSlot:     slot,
		Participants: []string{},
		Missing:      []string{},
	}

	present := make(map[string]struct{}, len(records))
	for _, r := range records {
		switch r.Priority {
		case model.PriorityPreferred:
			s.PreferredCount++
		case model.PriorityAvailable:
			s.AvailableCount++
		case model.PriorityIfNeeded:
			s.IfNeededCount++
		}
		s.Score += r.Priority.Weight()

		if _, ok := present[r.ParticipantName]; !ok {
			present[r.ParticipantName] = struct{}{}
			s.Participants = append(s.Participants, r.ParticipantName)
		}
	}
	s.TotalCount = len(s.Participants)

	for _, name := range roster {
		if _, ok := present[name]; !ok {
			s.Missing = append(s.Missing, name)
		}
	}
	s.IsPerfectMatch = len(s.Missing) == 0 && len(roster) > 0
	return s
}
