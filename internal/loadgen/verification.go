package loadgen

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/okian/huddle/internal/domain/model"
	"github.com/okian/huddle/internal/domain/ranking"
	"github.com/okian/huddle/internal/domain/types"
	"github.com/okian/huddle/pkg/logger"
)

// ErrMismatch is returned when the served data disagrees with the local view.
var ErrMismatch = errors.New("verification mismatch")

// serverState is everything fetched back from the service after submitting.
type serverState struct {
	view      types.EventView
	records   []types.AvailabilityEntry
	bestTimes []model.RankedTimeBlock
}

// verifyResults recomputes the ranking from the served raw availability and
// checks it against the served best times, the roster and the heatmap.
func verifyResults(ctx context.Context, cfg *Config, st *serverState, stats *Stats) error {
	log := logger.Get().Named("loadgen")
	log.Info(ctx, "verifying results")

	if len(st.view.Participants) != stats.SubmissionsOK {
		return fmt.Errorf("%w: roster has %d participants, %d submissions succeeded",
			ErrMismatch, len(st.view.Participants), stats.SubmissionsOK)
	}
	if len(st.records) != stats.SlotsSubmitted {
		return fmt.Errorf("%w: %d records served, %d slots acknowledged",
			ErrMismatch, len(st.records), stats.SlotsSubmitted)
	}

	cells := 0
	for _, cell := range st.view.Heatmap {
		cells += cell.TotalCount
	}
	if cells != len(st.records) {
		return fmt.Errorf("%w: heatmap counts %d marks, %d records served", ErrMismatch, cells, len(st.records))
	}

	roster := make([]string, len(st.view.Participants))
	for i, p := range st.view.Participants {
		roster[i] = p.Name
	}
	records := make([]model.AvailabilityRecord, len(st.records))
	for i, e := range st.records {
		records[i] = model.AvailabilityRecord{
			ParticipantName: e.ParticipantName,
			Date:            e.Date,
			TimeSlot:        e.TimeSlot,
			Priority:        e.Priority,
		}
	}

	want := ranking.FindBestTimes(records, roster, st.view.TimeSlots,
		ranking.WithTopN(cfg.TopN),
		ranking.WithMinDurationSlots(cfg.MinDuration))
	if err := compareBlocks(want, st.bestTimes); err != nil {
		return err
	}

	displayTopBlocks(ctx, st.bestTimes, cfg.Verbose)
	log.Info(ctx, "verification passed", logger.Int("blocks", len(want)))
	return nil
}

func compareBlocks(want, got []model.RankedTimeBlock) error {
	if len(want) != len(got) {
		return fmt.Errorf("%w: expected %d blocks, server returned %d", ErrMismatch, len(want), len(got))
	}
	for i := range want {
		if !sameBlock(&want[i], &got[i]) {
			return fmt.Errorf("%w: block %d differs: want %s %s-%s (min %d), got %s %s-%s (min %d)",
				ErrMismatch, i+1,
				want[i].Date, want[i].StartSlot, want[i].EndSlot, want[i].MinParticipants,
				got[i].Date, got[i].StartSlot, got[i].EndSlot, got[i].MinParticipants)
		}
	}
	return nil
}

// sameBlock treats nil and empty name lists as equal since JSON decoding
// does not preserve the difference.
func sameBlock(a, b *model.RankedTimeBlock) bool {
	return a.Rank == b.Rank &&
		a.Date == b.Date &&
		a.StartSlot == b.StartSlot &&
		a.EndSlot == b.EndSlot &&
		a.SlotCount == b.SlotCount &&
		a.AvgScore == b.AvgScore &&
		a.TotalScore == b.TotalScore &&
		a.MinParticipants == b.MinParticipants &&
		a.MaxParticipants == b.MaxParticipants &&
		a.IsPerfectMatch == b.IsPerfectMatch &&
		slices.Equal(a.Participants, b.Participants) &&
		slices.Equal(a.Missing, b.Missing)
}

func displayTopBlocks(ctx context.Context, blocks []model.RankedTimeBlock, verbose bool) {
	log := logger.Get().Named("loadgen")
	for _, b := range blocks {
		fields := []logger.Field{
			logger.Int("rank", b.Rank),
			logger.String("date", b.Date),
			logger.String("start", b.StartSlot),
			logger.String("end", b.EndSlot),
			logger.Int("minParticipants", b.MinParticipants),
			logger.Float64("avgScore", b.AvgScore),
		}
		if verbose {
			fields = append(fields, logger.Any("missing", b.Missing))
		}
		log.Info(ctx, "best time", fields...)
	}
}
