package scheduler_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/okian/huddle/internal/adapters/repository"
	"github.com/okian/huddle/internal/adapters/scheduler"
	"github.com/okian/huddle/internal/domain/model"
	"github.com/okian/huddle/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

type failingStore struct{}

func (failingStore) DeleteExpired(context.Context, time.Time) ([]string, error) {
	return nil, errors.New("disk on fire")
}

func TestSweeper(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	Convey("Given a store with one expired and one live event", t, func() {
		_ = logger.Init()
		store := repository.NewMemoryStore()
		past, future := now.Add(-time.Minute), now.Add(time.Minute)
		So(store.CreateEvent(ctx, model.Event{ID: "1", Slug: "old11111", ExpiresAt: &past}), ShouldBeNil)
		So(store.CreateEvent(ctx, model.Event{ID: "2", Slug: "new22222", ExpiresAt: &future}), ShouldBeNil)

		var mu sync.Mutex
		var notified []string
		onExpired := func(_ context.Context, slug string) {
			mu.Lock()
			defer mu.Unlock()
			notified = append(notified, slug)
		}

		s, err := scheduler.NewSweeper("", store, onExpired, scheduler.WithClock(func() time.Time { return now }))
		So(err, ShouldBeNil)

		Convey("When a sweep runs", func() {
			removed := s.Sweep(ctx)

			Convey("Then the expired event is deleted and announced", func() {
				So(removed, ShouldEqual, 1)
				So(notified, ShouldResemble, []string{"old11111"})
				So(store.Count(ctx), ShouldEqual, 1)
			})

			Convey("And a second sweep finds nothing", func() {
				So(s.Sweep(ctx), ShouldEqual, 0)
			})
		})

		Convey("When started", func() {
			s.Start()
			next := s.Next()
			s.Stop()

			Convey("Then the next run is scheduled within a minute", func() {
				So(next.IsZero(), ShouldBeFalse)
				So(time.Until(next), ShouldBeLessThanOrEqualTo, time.Minute)
			})
		})
	})

	Convey("Given an invalid cron spec", t, func() {
		_ = logger.Init()
		_, err := scheduler.NewSweeper("every now and then", repository.NewMemoryStore(), nil)

		Convey("Then construction fails", func() {
			So(err, ShouldNotBeNil)
		})
	})

	Convey("Given a failing store", t, func() {
		_ = logger.Init()
		s, err := scheduler.NewSweeper("@every 1h", failingStore{}, nil)
		So(err, ShouldBeNil)

		Convey("Then a sweep logs and removes nothing", func() {
			So(s.Sweep(ctx), ShouldEqual, 0)
		})
	})
}
