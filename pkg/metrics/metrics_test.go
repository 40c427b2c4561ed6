package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
)

func TestManagerCreation(t *testing.T) {
	Convey("Given a fresh registry", t, func() {
		registry := prometheus.NewRegistry()

		Convey("When creating a manager with custom options", func() {
			m := NewManager(
				WithNamespace("test"),
				WithSubsystem("unit"),
				WithHistogramBuckets([]float64{1, 5, 10}),
				WithConstLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)
			m.eventsCreated.Inc()

			Convey("Then collectors are registered under the namespace", func() {
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				found := false
				for _, mf := range families {
					if mf.GetName() == "test_unit_events_created_total" {
						found = true
						So(mf.GetMetric()[0].GetLabel()[0].GetValue(), ShouldEqual, "test")
					}
				}
				So(found, ShouldBeTrue)
			})
		})

		Convey("When registering the same manager twice", func() {
			NewManager(WithPrometheusRegistry(registry))

			Convey("Then promauto panics on the duplicate", func() {
				So(func() { NewManager(WithPrometheusRegistry(registry)) }, ShouldPanic)
			})
		})
	})
}

func TestGlobalRecorders(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("When recording domain metrics", func() {
			before := gathered("huddle_availability_slots_submitted_total", "")
			RecordSubmission(12)
			RecordEventCreated()
			RecordRecompute(3.5, 4)
			RecordNoticeCoalesced()
			RecordStreamBroadcast("availability_updated")

			Convey("Then counters move", func() {
				So(gathered("huddle_availability_slots_submitted_total", "")-before, ShouldEqual, 12)
				So(gathered("huddle_availability_stream_broadcasts_total", "availability_updated"), ShouldBeGreaterThanOrEqualTo, 1)
			})
		})

		Convey("When setting gauges", func() {
			UpdateQueueSize(7)
			UpdateStreamSubscribers(3)
			UpdateEventsTotal(9)

			Convey("Then they hold the last value", func() {
				So(gathered("huddle_availability_queue_size", ""), ShouldEqual, 7)
				So(gathered("huddle_availability_stream_subscribers", ""), ShouldEqual, 3)
				So(gathered("huddle_availability_events", ""), ShouldEqual, 9)
			})
		})

		Convey("When recording the remaining recorders", func() {
			So(func() {
				RecordEventsExpired(2)
				RecordRecomputeError()
				RecordStoreLatency("snapshot", 1.2)
				RecordStreamDropped()
				UpdateQueueCapacity(100)
				UpdateQueueUtilization(0.07)
				RecordQueueEnqueue()
				RecordQueueDequeue()
				RecordQueueEnqueueError()
				UpdateWorkerCount(4)
				UpdateWorkerActiveCount(4)
				RecordWorkerProcessingLatency(2)
				RecordWorkerError()
				RecordHTTPRequest("best_times", "GET", "200")
				RecordHTTPRequestDuration("best_times", "GET", "200", 1.5)
				RecordErrorByComponent("worker", "snapshot")
				RecordErrorByEndpoint("best_times", "GET", "not_found")
				UpdateSystemMemoryUsage(1 << 20)
				UpdateSystemGoroutineCount(12)
				RecordSystemGCPauseTime(0.3)
			}, ShouldNotPanic)
		})
	})
}

func TestGetRegistry(t *testing.T) {
	Convey("The custom registry exposes huddle metrics", t, func() {
		RecordEventCreated()
		families, err := GetRegistry().Gather()
		So(err, ShouldBeNil)
		names := make([]string, 0, len(families))
		for _, mf := range families {
			names = append(names, mf.GetName())
		}
		So(strings.Join(names, ","), ShouldContainSubstring, "huddle_availability_events_created_total")
	})
}

// gathered reads a counter or gauge from the custom registry. When label is
// set, only the series carrying that label value is read.
func gathered(name, label string) float64 {
	families, err := GetRegistry().Gather()
	if err != nil {
		return -1
	}
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			if label != "" {
				match := false
				for _, lp := range m.GetLabel() {
					if lp.GetValue() == label {
						match = true
					}
				}
				if !match {
					continue
				}
			}
			if c := m.GetCounter(); c != nil {
				return c.GetValue()
			}
			return m.GetGauge().GetValue()
		}
	}
	return 0
}
