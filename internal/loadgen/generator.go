package loadgen

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/okian/huddle/internal/domain/model"
	"github.com/okian/huddle/internal/domain/types"
	"github.com/okian/huddle/pkg/logger"
)

var (
	priorities = []model.Priority{
		model.PriorityPreferred,
		model.PriorityAvailable,
		model.PriorityIfNeeded,
	}
	timezones = []string{"UTC", "Europe/Berlin", "America/New_York", "Asia/Tokyo"}
)

// eventRequest builds the create-event body for cfg.
func eventRequest(cfg *Config) (*types.CreateEventRequest, error) {
	first, err := time.Parse(dateLayout, cfg.StartDate)
	if err != nil {
		return nil, fmt.Errorf("start date: %w", err)
	}
	dates := make([]string, cfg.Days)
	for i := range dates {
		dates[i] = first.AddDate(0, 0, i).Format(dateLayout)
	}
	return &types.CreateEventRequest{
		Name:        "loadgen " + first.Format(dateLayout),
		Description: "synthetic roster",
		Dates:       dates,
		TimeStart:   cfg.TimeStart,
		TimeEnd:     cfg.TimeEnd,
		SlotMinutes: cfg.SlotMinutes,
		Timezone:    "UTC",
	}, nil
}

// generateSubmissions creates one submission per participant over the
// event's grid. Names carry a uuid suffix so reruns never collide.
func generateSubmissions(ctx context.Context, cfg *Config, dates, slots []string) []types.SubmitAvailabilityRequest {
	seed := uint64(cfg.Seed)
	if seed == 0 {
		seed = rand.Uint64()
	}
	rng := rand.New(rand.NewPCG(seed, seed>>1|1))

	logger.Get().Info(ctx, "generating submissions",
		logger.Int("participants", cfg.Participants),
		logger.Int("cells", len(dates)*len(slots)),
		logger.Any("seed", seed))

	out := make([]types.SubmitAvailabilityRequest, cfg.Participants)
	for i := range out {
		out[i] = types.SubmitAvailabilityRequest{
			ParticipantName: fmt.Sprintf("participant-%03d-%s", i, uuid.NewString()[:8]),
			Timezone:        timezones[rng.IntN(len(timezones))],
			Slots:           randomSlots(rng, dates, slots),
		}
	}
	return out
}

// randomSlots paints a random subset of the grid. Each participant favours
// one tier so the priority mix varies across the roster.
func randomSlots(rng *rand.Rand, dates, slots []string) []types.SlotRequest {
	favourite := priorities[rng.IntN(len(priorities))]
	var out []types.SlotRequest
	for _, d := range dates {
		for _, s := range slots {
			if rng.IntN(skipOneIn) == 0 {
				continue
			}
			p := favourite
			if rng.IntN(2) == 0 {
				p = priorities[rng.IntN(len(priorities))]
			}
			out = append(out, types.SlotRequest{Date: d, TimeSlot: s, Priority: p})
		}
	}
	return out
}
