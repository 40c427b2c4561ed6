package types_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/okian/huddle/internal/domain/model"
	types "github.com/okian/huddle/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestNewEvent(t *testing.T) {
	Convey("Given a domain event", t, func() {
		expires := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
		ev := model.Event{
			ID:          "id-1",
			Slug:        "abcd2345",
			Name:        "Planning",
			Dates:       []string{"2025-03-10"},
			TimeStart:   "09:00",
			TimeEnd:     "12:00",
			SlotMinutes: 30,
			Timezone:    "Europe/Berlin",
			ExpiresAt:   &expires,
		}

		Convey("When converting to the wire shape", func() {
			out := types.NewEvent(&ev)

			Convey("Then every field is carried over", func() {
				So(out.Slug, ShouldEqual, "abcd2345")
				So(out.SlotMinutes, ShouldEqual, 30)
				So(out.ExpiresAt, ShouldEqual, &expires)
			})

			Convey("And the JSON uses snake_case keys and omits empty description", func() {
				raw, err := json.Marshal(out)
				So(err, ShouldBeNil)
				So(string(raw), ShouldContainSubstring, `"time_start":"09:00"`)
				So(string(raw), ShouldContainSubstring, `"slot_minutes":30`)
				So(string(raw), ShouldNotContainSubstring, `"description"`)
			})
		})
	})
}

func TestSubmitAvailabilityRequest(t *testing.T) {
	Convey("Given a submission body", t, func() {
		body := `{"participant_name":"Ana","timezone":"UTC","slots":[{"date":"2025-03-10","time_slot":"09:00","priority":"if_needed"}]}`

		Convey("When decoding it", func() {
			var req types.SubmitAvailabilityRequest
			err := json.Unmarshal([]byte(body), &req)

			Convey("Then priorities decode to domain tiers", func() {
				So(err, ShouldBeNil)
				So(req.Slots, ShouldHaveLength, 1)
				So(req.Slots[0].Priority, ShouldEqual, model.PriorityIfNeeded)
				So(req.Slots[0].Priority.Weight(), ShouldEqual, 1)
			})
		})
	})
}
