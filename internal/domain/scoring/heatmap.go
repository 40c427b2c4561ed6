package scoring

import (
	"encoding/json"

	"github.com/okian/huddle/internal/domain/model"
)

// Heatmap is a flat (date, slot) grid of SlotScores for rendering. It applies
// no thresholds and assembles no blocks.
type Heatmap struct {
	dates []string
	slots []string
	cells map[cellKey]model.SlotScore
}

// BuildHeatmap scores every requested (date, slot) pair, including dates
// nobody marked.
func BuildHeatmap(records []model.AvailabilityRecord, dates, orderedSlots, roster []string) *Heatmap {
	ix := NewIndex(records)
	h := &Heatmap{
		dates: append([]string(nil), dates...),
		slots: append([]string(nil), orderedSlots...),
		cells: make(map[cellKey]model.SlotScore, len(dates)*len(orderedSlots)),
	}
	for _, date := range dates {
		for _, slot := range orderedSlots {
			h.cells[cellKey{date: date, slot: slot}] = ix.Score(date, slot, roster)
		}
	}
	return h
}

// CellKey is the wire key of a heatmap cell: "date|slot".
func CellKey(date, slot string) string {
	return date + "|" + slot
}

// At returns the score of a cell and whether the cell was requested.
func (h *Heatmap) At(date, slot string) (model.SlotScore, bool) {
	s, ok := h.cells[cellKey{date: date, slot: slot}]
	return s, ok
}

// Cells returns every cell, date-major in the requested order.
func (h *Heatmap) Cells() []model.SlotScore {
	out := make([]model.SlotScore, 0, len(h.cells))
	for _, date := range h.dates {
		for _, slot := range h.slots {
			if s, ok := h.cells[cellKey{date: date, slot: slot}]; ok {
				out = append(out, s)
			}
		}
	}
	return out
}

// Len returns the number of cells.
func (h *Heatmap) Len() int { return len(h.cells) }

// Map returns the cells keyed by CellKey.
func (h *Heatmap) Map() map[string]model.SlotScore {
	m := make(map[string]model.SlotScore, len(h.cells))
	for k, s := range h.cells {
		m[CellKey(k.date, k.slot)] = s
	}
	return m
}

// MarshalJSON encodes the heatmap as an object keyed by CellKey.
func (h *Heatmap) MarshalJSON() ([]byte, error) {
	return json.Marshal(h.Map())
}
