package ranking

import (
	"sort"

	"github.com/okian/huddle/internal/domain/model"
)

// Rank orders blocks by weakest-slot head count, then average score, then
// length, all descending. Remaining ties keep their input order. Ranks are
// assigned 1-based and the result is truncated to topN; topN < 1 yields an
// empty slice. The input slice is not modified.
func Rank(blocks []model.RankedTimeBlock, topN int) []model.RankedTimeBlock {
	if topN < 1 {
		return []model.RankedTimeBlock{}
	}

	sorted := make([]model.RankedTimeBlock, len(blocks))
	copy(sorted, blocks)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.MinParticipants != b.MinParticipants {
			return a.MinParticipants > b.MinParticipants
		}
		if a.AvgScore != b.AvgScore {
			return a.AvgScore > b.AvgScore
		}
		return a.SlotCount > b.SlotCount
	})

	if len(sorted) > topN {
		sorted = sorted[:topN]
	}
	for i := range sorted {
		sorted[i].Rank = i + 1
	}
	return sorted
}
