package queue

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/okian/huddle/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func notice(slug string) Notice {
	return model.ChangeNotice{EventSlug: slug, Kind: model.NoticeAvailabilityUpdated, TS: time.Now()}
}

func TestInMemoryQueue_BasicOperations(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}
	if !q.Enqueue(ctx, notice("abcd2345")) {
		t.Fatal("expected enqueue to succeed")
	}
	if l := q.Len(ctx); l != 1 {
		t.Errorf("expected length 1, got %d", l)
	}

	got := <-q.Dequeue(ctx)
	if got.EventSlug != "abcd2345" {
		t.Errorf("expected abcd2345, got %q", got.EventSlug)
	}
	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}
}

func TestInMemoryQueue_Backpressure(t *testing.T) {
	Convey("Given a queue of capacity two", t, func() {
		q := NewInMemoryQueue(WithCapacity(2))
		ctx := context.Background()

		Convey("When three notices are enqueued without a consumer", func() {
			first := q.Enqueue(ctx, notice("a"))
			second := q.Enqueue(ctx, notice("b"))
			third := q.Enqueue(ctx, notice("c"))

			Convey("Then the third is rejected without blocking", func() {
				So(first, ShouldBeTrue)
				So(second, ShouldBeTrue)
				So(third, ShouldBeFalse)
				So(q.Len(ctx), ShouldEqual, 2)
				So(q.Capacity(), ShouldEqual, 2)
			})
		})

		Convey("When the caller context is already cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()

			Convey("Then enqueue fails", func() {
				So(q.Enqueue(cctx, notice("a")), ShouldBeFalse)
			})
		})
	})
}

func TestInMemoryQueue_ConcurrentAccess(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(100))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	const producers, perProducer = 10, 100

	var seen sync.Map
	var consumers sync.WaitGroup
	for i := 0; i < 4; i++ {
		consumers.Add(1)
		go func() {
			defer consumers.Done()
			for n := range q.Dequeue(ctx) {
				seen.Store(n.EventSlug, true)
			}
		}()
	}

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < perProducer; j++ {
				n := notice(fmt.Sprintf("e%d-%d", id, j))
				for !q.Enqueue(ctx, n) {
					time.Sleep(time.Millisecond)
				}
			}
		}(p)
	}
	wg.Wait()
	_ = q.Close()
	consumers.Wait()

	count := 0
	seen.Range(func(_, _ any) bool { count++; return true })
	if count != producers*perProducer {
		t.Errorf("expected %d notices delivered, got %d", producers*perProducer, count)
	}
}

func TestInMemoryQueue_GracefulShutdown(t *testing.T) {
	Convey("Given a queue holding two notices", t, func() {
		q := NewInMemoryQueue(WithCapacity(10))
		ctx := context.Background()
		So(q.Enqueue(ctx, notice("a")), ShouldBeTrue)
		So(q.Enqueue(ctx, notice("b")), ShouldBeTrue)
		So(q.IsClosed(), ShouldBeFalse)

		Convey("When it is closed", func() {
			So(q.Close(), ShouldBeNil)

			Convey("Then new notices are refused", func() {
				So(q.IsClosed(), ShouldBeTrue)
				So(q.Enqueue(ctx, notice("c")), ShouldBeFalse)
			})

			Convey("And queued notices drain before the channel closes", func() {
				var got []string
				timeout := time.After(time.Second)
				ch := q.Dequeue(ctx)
			loop:
				for {
					select {
					case n, ok := <-ch:
						if !ok {
							break loop
						}
						got = append(got, n.EventSlug)
					case <-timeout:
						break loop
					}
				}
				So(got, ShouldResemble, []string{"a", "b"})
			})

			Convey("And closing again is a no-op", func() {
				So(q.Close(), ShouldBeNil)
			})
		})
	})
}
