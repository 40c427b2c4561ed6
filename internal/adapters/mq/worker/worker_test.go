package worker_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/okian/huddle/internal/adapters/mq/queue"
	"github.com/okian/huddle/internal/adapters/mq/worker"
	"github.com/okian/huddle/internal/domain/model"
	logging "github.com/okian/huddle/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

type mockQueue struct {
	ch chan worker.Notice
}

func newMockQueue() *mockQueue {
	return &mockQueue{ch: make(chan worker.Notice, 10)}
}

func (mq *mockQueue) Dequeue(context.Context) <-chan worker.Notice { return mq.ch }

func (mq *mockQueue) Close() error {
	close(mq.ch)
	return nil
}

func (mq *mockQueue) add(slug string) {
	mq.ch <- model.ChangeNotice{EventSlug: slug, Kind: model.NoticeAvailabilityUpdated, TS: time.Now()}
}

type mockRecomputer struct {
	mu     sync.Mutex
	calls  map[string]int
	errors map[string]error
}

func newMockRecomputer() *mockRecomputer {
	return &mockRecomputer{calls: map[string]int{}, errors: map[string]error{}}
}

func (m *mockRecomputer) Recompute(_ context.Context, slug string) ([]model.RankedTimeBlock, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[slug]++
	if err := m.errors[slug]; err != nil {
		return nil, err
	}
	return []model.RankedTimeBlock{{Rank: 1, Date: "2025-03-10", StartSlot: "09:00", EndSlot: "09:00", SlotCount: 1}}, nil
}

func (m *mockRecomputer) count(slug string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[slug]
}

type mockPublisher struct {
	mu        sync.Mutex
	published map[string][]model.RankedTimeBlock
}

func newMockPublisher() *mockPublisher {
	return &mockPublisher{published: map[string][]model.RankedTimeBlock{}}
}

func (m *mockPublisher) PublishBestTimes(_ context.Context, slug string, blocks []model.RankedTimeBlock) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published[slug] = blocks
}

func (m *mockPublisher) get(slug string) ([]model.RankedTimeBlock, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.published[slug]
	return b, ok
}

type mockPending struct {
	mu       sync.Mutex
	released []string
}

func (m *mockPending) Unrecord(_ context.Context, key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.released = append(m.released, key)
}

func (m *mockPending) list() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.released...)
}

func eventually(cond func() bool) bool {
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func TestInMemoryWorker(t *testing.T) {
	convey.Convey("Given a running worker", t, func() {
		_ = logging.Init()

		q := newMockQueue()
		rec := newMockRecomputer()
		pub := newMockPublisher()
		pending := &mockPending{}
		w := worker.NewInMemoryWorker(q, rec, pub, worker.WithName("test-worker"), worker.WithPending(pending))

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go w.Run(ctx)

		convey.Convey("When a notice arrives", func() {
			q.add("abcd2345")

			convey.Convey("Then rankings are recomputed and published", func() {
				convey.So(eventually(func() bool { _, ok := pub.get("abcd2345"); return ok }), convey.ShouldBeTrue)
				blocks, _ := pub.get("abcd2345")
				convey.So(len(blocks), convey.ShouldEqual, 1)
				convey.So(pending.list(), convey.ShouldResemble, []string{"abcd2345"})
				convey.So(w.Processed(), convey.ShouldEqual, 1)
			})
		})

		convey.Convey("When recomputing fails", func() {
			rec.errors["gone1234"] = errors.New("event not found")
			q.add("gone1234")

			convey.Convey("Then nothing is published but the key is still released", func() {
				convey.So(eventually(func() bool { return rec.count("gone1234") == 1 }), convey.ShouldBeTrue)
				convey.So(eventually(func() bool { return len(pending.list()) == 1 }), convey.ShouldBeTrue)
				_, ok := pub.get("gone1234")
				convey.So(ok, convey.ShouldBeFalse)
				convey.So(w.Processed(), convey.ShouldEqual, 0)
			})
		})

		convey.Convey("When shutting down", func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer shutdownCancel()

			convey.Convey("Then it stops gracefully", func() {
				convey.So(w.Shutdown(shutdownCtx), convey.ShouldBeNil)
			})

			convey.Convey("Then a second shutdown is harmless", func() {
				convey.So(w.Shutdown(shutdownCtx), convey.ShouldBeNil)
				convey.So(func() { _ = w.Shutdown(shutdownCtx) }, convey.ShouldNotPanic)
			})
		})
	})
}

func TestWorkerPool(t *testing.T) {
	convey.Convey("Given a pool of three workers over a real queue", t, func() {
		_ = logging.Init()

		q := queue.NewInMemoryQueue(queue.WithCapacity(100))
		rec := newMockRecomputer()
		pub := newMockPublisher()
		pool := worker.NewPool(3, q, rec, pub, &mockPending{})
		convey.So(pool.Size(), convey.ShouldEqual, 3)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		pool.Start(ctx)

		convey.Convey("When many events change", func() {
			for i := 0; i < 20; i++ {
				convey.So(q.Enqueue(ctx, model.ChangeNotice{EventSlug: fmt.Sprintf("ev%02d", i)}), convey.ShouldBeTrue)
			}

			convey.Convey("Then each is recomputed once", func() {
				convey.So(eventually(func() bool { return pool.Processed() == 20 }), convey.ShouldBeTrue)
				for i := 0; i < 20; i++ {
					convey.So(rec.count(fmt.Sprintf("ev%02d", i)), convey.ShouldEqual, 1)
				}
			})

			convey.Convey("And shutdown drains and returns", func() {
				convey.So(pool.Shutdown(context.Background()), convey.ShouldBeNil)
				convey.So(q.IsClosed(), convey.ShouldBeTrue)
				convey.So(pool.Processed(), convey.ShouldEqual, 20)
			})

			convey.Convey("And a late shutdown with an expired deadline reports no stragglers", func() {
				convey.So(pool.Shutdown(context.Background()), convey.ShouldBeNil)

				expired, cancelExpired := context.WithCancel(context.Background())
				cancelExpired()
				convey.So(pool.Shutdown(expired), convey.ShouldBeNil)
			})
		})
	})
}

func TestNewPoolDefaults(t *testing.T) {
	_ = logging.Init()
	pool := worker.NewPool(0, newMockQueue(), newMockRecomputer(), newMockPublisher(), nil)
	if pool.Size() < 1 {
		t.Fatalf("expected at least one worker, got %d", pool.Size())
	}
}

type blockingRecomputer struct {
	started chan struct{}
	release chan struct{}
}

func (b *blockingRecomputer) Recompute(context.Context, string) ([]model.RankedTimeBlock, error) {
	b.started <- struct{}{}
	<-b.release
	return nil, nil
}

func TestWorkerPoolShutdownTimeout(t *testing.T) {
	convey.Convey("Given a pool whose only worker is stuck in a recompute", t, func() {
		_ = logging.Init()

		q := queue.NewInMemoryQueue(queue.WithCapacity(4))
		rec := &blockingRecomputer{started: make(chan struct{}, 1), release: make(chan struct{})}
		pool := worker.NewPool(1, q, rec, newMockPublisher(), &mockPending{})
		pool.Start(context.Background())

		convey.So(q.Enqueue(context.Background(), model.ChangeNotice{EventSlug: "slow2345"}), convey.ShouldBeTrue)
		<-rec.started

		convey.Convey("When shutdown runs out of time", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
			defer cancel()
			err := pool.Shutdown(ctx)
			close(rec.release)

			convey.Convey("Then the timeout is reported", func() {
				convey.So(errors.Is(err, worker.ErrShutdownTimeout), convey.ShouldBeTrue)
				convey.So(pool.Shutdown(context.Background()), convey.ShouldBeNil)
			})
		})
	})
}
