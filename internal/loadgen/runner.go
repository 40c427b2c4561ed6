package loadgen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/okian/huddle/internal/domain/types"
	"github.com/okian/huddle/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0o750
	filePermission      = 0o600
)

// Run executes a complete load run against cfg.BaseURL.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	applyDefaults(cfg)
	stats := &Stats{StartTime: time.Now()}
	log := logger.Get().Named("loadgen")

	log.Info(ctx, "starting huddle load run",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("participants", cfg.Participants),
		logger.Int("days", cfg.Days),
		logger.Int("workers", cfg.Workers),
		logger.Duration("timeout", cfg.Timeout))

	client := NewClient(cfg.BaseURL, cfg.Timeout)

	// Step 1: Check service health
	if err := client.Health(ctx); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Create the event
	req, err := eventRequest(cfg)
	if err != nil {
		return stats, err
	}
	ev, err := client.CreateEvent(ctx, req)
	if err != nil {
		return stats, fmt.Errorf("create event: %w", err)
	}
	stats.Slug = ev.Slug
	log.Info(ctx, "event created", logger.String("slug", ev.Slug))

	view, err := client.Event(ctx, ev.Slug)
	if err != nil {
		return stats, fmt.Errorf("read event: %w", err)
	}

	// Step 3: Generate and submit availability
	subs := generateSubmissions(ctx, cfg, ev.Dates, view.TimeSlots)
	stats.ParticipantsCreated = len(subs)
	submitAll(ctx, cfg, client, ev.Slug, subs, stats)
	if err := ctx.Err(); err != nil {
		return stats, fmt.Errorf("submission interrupted: %w", err)
	}

	// Step 4: Read everything back
	st := &serverState{}
	if st.view, err = client.Event(ctx, ev.Slug); err != nil {
		return stats, fmt.Errorf("read event: %w", err)
	}
	if st.records, err = client.Availability(ctx, ev.Slug); err != nil {
		return stats, fmt.Errorf("read availability: %w", err)
	}
	stats.RecordsFetched = len(st.records)
	bt, err := client.BestTimes(ctx, ev.Slug, cfg.TopN, cfg.MinDuration)
	if err != nil {
		return stats, fmt.Errorf("read best times: %w", err)
	}
	st.bestTimes = bt.BestTimes
	stats.BestTimesFetched = len(st.bestTimes)

	// Step 5: Verify against a local recomputation
	if err := verifyResults(ctx, cfg, st, stats); err != nil {
		return stats, fmt.Errorf("result verification failed: %w", err)
	}

	// Step 6: Save submissions
	if cfg.OutputFile != "" {
		if err := saveSubmissions(ctx, cfg.OutputFile, subs); err != nil {
			log.Warn(ctx, "failed to save submissions", logger.Error(err))
		}
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, stats)
	return stats, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Participants <= 0 {
		cfg.Participants = DefaultParticipants
	}
	if cfg.Days <= 0 {
		cfg.Days = DefaultDays
	}
	if cfg.StartDate == "" {
		cfg.StartDate = time.Now().UTC().AddDate(0, 0, 1).Format(dateLayout)
	}
	if cfg.TimeStart == "" {
		cfg.TimeStart = DefaultTimeStart
	}
	if cfg.TimeEnd == "" {
		cfg.TimeEnd = DefaultTimeEnd
	}
	if cfg.SlotMinutes <= 0 {
		cfg.SlotMinutes = DefaultSlotMinutes
	}
	if cfg.TopN <= 0 {
		cfg.TopN = DefaultTopN
	}
	if cfg.MinDuration <= 0 {
		cfg.MinDuration = DefaultMinDuration
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
}

// saveSubmissions writes the generated submissions as a JSON array.
func saveSubmissions(ctx context.Context, filename string, subs []types.SubmitAvailabilityRequest) error {
	if len(subs) == 0 {
		return errors.New("no submissions to save")
	}

	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(subs, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal submissions: %w", err)
	}
	if err := os.WriteFile(filename, append(data, '\n'), filePermission); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	logger.Get().Info(ctx, "submissions saved to file", logger.String("filename", filename))
	return nil
}

// displayFinalStats logs the final run statistics.
func displayFinalStats(ctx context.Context, stats *Stats) {
	var successRate, perSecond float64
	if stats.ParticipantsCreated > 0 {
		successRate = float64(stats.SubmissionsOK) / float64(stats.ParticipantsCreated) * percentageMultiplier
	}
	if stats.Duration > 0 {
		perSecond = float64(stats.SubmissionsOK+stats.SubmissionsFailed) / stats.Duration.Seconds()
	}

	logger.Get().Info(ctx, "final statistics",
		logger.String("slug", stats.Slug),
		logger.Int("participants", stats.ParticipantsCreated),
		logger.Int("submissionsOK", stats.SubmissionsOK),
		logger.Int("submissionsFailed", stats.SubmissionsFailed),
		logger.Int("recomputeNotQueued", stats.RecomputesNotQueued),
		logger.Int("slotsSubmitted", stats.SlotsSubmitted),
		logger.Int("bestTimes", stats.BestTimesFetched),
		logger.Duration("duration", stats.Duration),
		logger.Float64("successRate", successRate),
		logger.Float64("submissionsPerSecond", perSecond))
}
