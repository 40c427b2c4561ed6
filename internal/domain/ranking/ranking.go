// Package ranking turns availability records into a ranked list of candidate
// meeting windows.
//
// The engine is a pure batch transform: it holds no state between calls,
// performs no I/O and never mutates its inputs, so it is safe for concurrent
// use and cheap to re-run whenever availability changes. Contiguity is
// adjacency in the caller's ordered slot list; no clock arithmetic is done.
package ranking

import (
	"github.com/okian/huddle/internal/domain/model"
	"github.com/okian/huddle/internal/domain/scoring"
)

// FindBestTimes scores every (date, slot) pair present in records, extracts
// candidate blocks per date and returns the top ranked ones.
//
// roster defines who counts as missing; names in records but not in roster
// are tolerated. Records whose slot label is not in orderedSlots are ignored.
// The result is never nil.
func FindBestTimes(records []model.AvailabilityRecord, roster, orderedSlots []string, opts ...Option) []model.RankedTimeBlock {
	o := newOptions(opts)
	if o.TopN < 1 || len(records) == 0 {
		return []model.RankedTimeBlock{}
	}

	ix := scoring.NewIndex(records)
	var candidates []model.RankedTimeBlock
	for _, date := range ix.Dates() {
		day := ix.ScoreDay(date, orderedSlots, roster)
		candidates = append(candidates, ExtractBlocks(day, roster, o.MinDurationSlots)...)
	}
	return Rank(candidates, o.TopN)
}
