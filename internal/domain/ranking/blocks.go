package ranking

import (
	"sort"

	"github.com/okian/huddle/internal/domain/model"
)

type spanKey struct {
	date  string
	start string
	end   string
}

// ExtractBlocks finds candidate blocks on one date. day must hold the scores
// of that date in canonical slot order, zero-count slots included.
//
// Runs are extracted once per distinct positive head count, highest first,
// so a well-covered sub-run nested in a longer weaker run surfaces on its
// own. A span already emitted at a higher threshold is not emitted again;
// runs shorter than minDuration are dropped without claiming their span.
func ExtractBlocks(day []model.SlotScore, roster []string, minDuration int) []model.RankedTimeBlock {
	if minDuration < 1 {
		minDuration = 1
	}

	var blocks []model.RankedTimeBlock
	seen := make(map[spanKey]struct{})
	for _, threshold := range thresholds(day) {
		for i := 0; i < len(day); {
			if day[i].TotalCount < threshold {
				i++
				continue
			}
			j := i + 1
			for j < len(day) && day[j].TotalCount >= threshold {
				j++
			}

			run := day[i:j]
			i = j

			if len(run) < minDuration {
				continue
			}
			key := spanKey{date: run[0].Date, start: run[0].TimeSlot, end: run[len(run)-1].TimeSlot}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			blocks = append(blocks, summarize(run, roster))
		}
	}
	return blocks
}

// thresholds returns the distinct positive head counts of day, descending.
func thresholds(day []model.SlotScore) []int {
	set := make(map[int]struct{})
	for _, s := range day {
		if s.TotalCount > 0 {
			set[s.TotalCount] = struct{}{}
		}
	}
	out := make([]int, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(out)))
	return out
}

// summarize builds the block for a non-empty run of adjacent slots.
func summarize(run []model.SlotScore, roster []string) model.RankedTimeBlock {
	b := model.RankedTimeBlock{
		Date:            run[0].Date,
		StartSlot:       run[0].TimeSlot,
		EndSlot:         run[len(run)-1].TimeSlot,
		SlotCount:       len(run),
		MinParticipants: run[0].TotalCount,
		MaxParticipants: run[0].TotalCount,
		Participants:    []string{},
		Missing:         []string{},
	}

	// presence counts how many member slots each name appears in.
	presence := make(map[string]int)
	for _, s := range run {
		b.TotalScore += s.Score
		b.MinParticipants = min(b.MinParticipants, s.TotalCount)
		b.MaxParticipants = max(b.MaxParticipants, s.TotalCount)
		for _, name := range s.Participants {
			if presence[name] == 0 {
				b.Participants = append(b.Participants, name)
			}
			presence[name]++
		}
	}
	b.AvgScore = float64(b.TotalScore) / float64(len(run))

	for _, name := range roster {
		if presence[name] < len(run) {
			b.Missing = append(b.Missing, name)
		}
	}
	b.IsPerfectMatch = len(b.Missing) == 0 && len(roster) > 0
	return b
}
