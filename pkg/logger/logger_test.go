package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLoggerInit(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() {
		if err := Sync(); err != nil {
			t.Errorf("failed to sync logger: %v", err)
		}
	}()

	if Get() == nil {
		t.Fatal("logger is nil after initialization")
	}
	if err := Init(WithFormat("xml")); err == nil {
		t.Fatal("expected an error for an unknown format")
	}
}

func TestLoggerJSON(t *testing.T) {
	Convey("Given a JSON logger writing to a buffer", t, func() {
		var buf bytes.Buffer
		So(Init(WithFormat(FormatJSON), WithOutput(&buf)), ShouldBeNil)

		Convey("When logging with typed fields", func() {
			Named("worker").Info(context.Background(), "recomputed",
				String("event_slug", "abcd2345"),
				Int("blocks", 3),
				Bool("perfect", true),
				Duration("took", 1500*time.Microsecond),
				Error(errors.New("boom")),
			)

			Convey("Then one structured line is written", func() {
				var line map[string]any
				So(json.Unmarshal(buf.Bytes(), &line), ShouldBeNil)
				So(line["msg"], ShouldEqual, "recomputed")
				group, ok := line["worker"].(map[string]any)
				So(ok, ShouldBeTrue)
				So(group["event_slug"], ShouldEqual, "abcd2345")
				So(group["blocks"], ShouldEqual, float64(3))
				So(group["perfect"], ShouldEqual, true)
				So(group["took"], ShouldEqual, 1.5)
				So(group["source"], ShouldContainSubstring, "logger_test.go")
			})
		})
	})
}

func TestSetLevelString(t *testing.T) {
	Convey("Given a text logger", t, func() {
		var buf bytes.Buffer
		So(Init(WithOutput(&buf)), ShouldBeNil)

		Convey("When the level is raised to warn", func() {
			So(SetLevelString("WARNING"), ShouldBeNil)
			Get().Info(context.Background(), "hidden")
			Get().Warn(context.Background(), "shown")

			Convey("Then info lines are suppressed", func() {
				So(strings.Contains(buf.String(), "hidden"), ShouldBeFalse)
				So(strings.Contains(buf.String(), "shown"), ShouldBeTrue)
			})
		})

		Convey("When the level is unknown", func() {
			So(SetLevelString("verbose"), ShouldNotBeNil)
		})
	})
}

func TestLoggerWith(t *testing.T) {
	Convey("Given a JSON logger scoped with fields", t, func() {
		var buf bytes.Buffer
		So(Init(WithFormat(FormatJSON), WithOutput(&buf)), ShouldBeNil)
		So(SetLevelString("info"), ShouldBeNil)
		scoped := Get().With(String("slug", "abcd2345"))

		Convey("When logging through the scoped logger", func() {
			scoped.Info(context.Background(), "stream opened")
			Get().Debug(context.Background(), "suppressed")

			Convey("Then the scoped field is on the line and debug is filtered", func() {
				var line map[string]any
				So(json.Unmarshal(buf.Bytes(), &line), ShouldBeNil)
				So(line["slug"], ShouldEqual, "abcd2345")
				So(line["source"], ShouldContainSubstring, "logger_test.go")
				So(strings.Contains(buf.String(), "suppressed"), ShouldBeFalse)
			})
		})
	})
}
