package notify_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/okian/huddle/internal/adapters/notify"
	"github.com/okian/huddle/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestHub(t *testing.T) {
	ctx := context.Background()

	Convey("Given a hub with two subscribers on one event", t, func() {
		_ = logger.Init()
		h := notify.NewHub(notify.WithBufferSize(2))
		a, err := h.Subscribe("abcd2345")
		So(err, ShouldBeNil)
		b, err := h.Subscribe("abcd2345")
		So(err, ShouldBeNil)
		other, err := h.Subscribe("zzzz9999")
		So(err, ShouldBeNil)

		So(h.Count("abcd2345"), ShouldEqual, 2)
		So(h.Total(), ShouldEqual, 3)

		Convey("When a message is broadcast", func() {
			n := h.Broadcast(ctx, "abcd2345", notify.Message{Type: "availability_updated", Payload: map[string]int{"slot_count": 4}})

			Convey("Then only that event's subscribers receive it", func() {
				So(n, ShouldEqual, 2)
				msg := <-a.C()
				So(msg.Type, ShouldEqual, "availability_updated")
				So(msg.Slug, ShouldEqual, "abcd2345")
				So(msg.TS.IsZero(), ShouldBeFalse)
				So(len(b.C()), ShouldEqual, 1)
				So(len(other.C()), ShouldEqual, 0)
			})
		})

		Convey("When a subscriber stops reading", func() {
			for i := 0; i < 3; i++ {
				h.Broadcast(ctx, "abcd2345", notify.Message{Type: "tick"})
			}

			Convey("Then extra messages are dropped instead of blocking", func() {
				So(len(a.C()), ShouldEqual, 2)
			})
		})

		Convey("When a subscriber leaves", func() {
			h.Unsubscribe(a)
			h.Unsubscribe(a)

			Convey("Then its channel is closed and counts drop once", func() {
				_, open := <-a.C()
				So(open, ShouldBeFalse)
				So(h.Count("abcd2345"), ShouldEqual, 1)
				So(h.Total(), ShouldEqual, 2)
			})
		})

		Convey("When the hub closes", func() {
			h.Close()

			Convey("Then every subscription ends and new ones are refused", func() {
				_, open := <-b.C()
				So(open, ShouldBeFalse)
				_, open = <-other.C()
				So(open, ShouldBeFalse)
				So(h.Total(), ShouldEqual, 0)
				_, err := h.Subscribe("abcd2345")
				So(errors.Is(err, notify.ErrClosed), ShouldBeTrue)
				h.Unsubscribe(b)
				h.Close()
			})
		})
	})
}

func TestHub_Concurrent(t *testing.T) {
	_ = logger.Init()
	h := notify.NewHub()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			sub, err := h.Subscribe("race")
			if err != nil {
				t.Error(err)
				return
			}
			h.Unsubscribe(sub)
		}()
		go func() {
			defer wg.Done()
			h.Broadcast(context.Background(), "race", notify.Message{Type: "tick"})
		}()
	}
	wg.Wait()
	if h.Total() != 0 {
		t.Fatalf("expected no subscribers, got %d", h.Total())
	}
}
