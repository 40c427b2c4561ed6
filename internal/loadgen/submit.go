package loadgen

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/huddle/internal/domain/types"
	"github.com/okian/huddle/pkg/logger"
)

// submitAll posts every submission through a pool of cfg.Workers goroutines.
func submitAll(ctx context.Context, cfg *Config, client *Client, slug string, subs []types.SubmitAvailabilityRequest, stats *Stats) {
	log := logger.Get().Named("loadgen")
	log.Info(ctx, "submitting availability",
		logger.Int("submissions", len(subs)),
		logger.Int("workers", cfg.Workers))

	var (
		ok, failed, notQueued, slots atomic.Int64
		lastReport                   atomic.Int64
	)
	lastReport.Store(time.Now().UnixNano())

	work := make(chan *types.SubmitAvailabilityRequest, cfg.Workers*2)
	var wg sync.WaitGroup

	for i := 0; i < cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for sub := range work {
				res, err := client.Submit(ctx, slug, sub)
				if err != nil {
					failed.Add(1)
					if cfg.Verbose {
						log.Warn(ctx, "submission failed",
							logger.String("participant", sub.ParticipantName),
							logger.Error(err))
					}
					continue
				}
				ok.Add(1)
				slots.Add(int64(res.SlotsCount))
				if !res.RecomputeQueued {
					notQueued.Add(1)
				}

				last := lastReport.Load()
				if time.Since(time.Unix(0, last)) >= progressInterval &&
					lastReport.CompareAndSwap(last, time.Now().UnixNano()) {
					log.Info(ctx, "progress",
						logger.Any("ok", ok.Load()),
						logger.Any("failed", failed.Load()),
						logger.Int("total", len(subs)))
				}
			}
		}()
	}

	go func() {
		defer close(work)
		for i := range subs {
			select {
			case <-ctx.Done():
				return
			case work <- &subs[i]:
			}
		}
	}()

	wg.Wait()

	stats.SubmissionsOK = int(ok.Load())
	stats.SubmissionsFailed = int(failed.Load())
	stats.RecomputesNotQueued = int(notQueued.Load())
	stats.SlotsSubmitted = int(slots.Load())

	log.Info(ctx, "submission completed",
		logger.Int("ok", stats.SubmissionsOK),
		logger.Int("failed", stats.SubmissionsFailed),
		logger.Int("recomputeNotQueued", stats.RecomputesNotQueued))
}
