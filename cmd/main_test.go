package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	repository "github.com/okian/huddle/internal/adapters/repository"
	"github.com/okian/huddle/internal/config"
	"github.com/okian/huddle/internal/domain/types"
	"github.com/okian/huddle/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func testConfig() *config.Config {
	cfg := config.New(context.Background())
	cfg.DatabaseDriver = config.DriverMemory
	cfg.WorkerCount = 2
	return cfg
}

func TestOpenStore(t *testing.T) {
	convey.Convey("Given the configured database driver", t, func() {
		ctx := context.Background()
		cfg := testConfig()

		convey.Convey("When the driver is memory", func() {
			store, err := openStore(ctx, cfg)

			convey.Convey("Then an in-memory store is returned", func() {
				convey.So(err, convey.ShouldBeNil)
				_, ok := store.(*repository.MemoryStore)
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(store.Close(), convey.ShouldBeNil)
			})
		})

		convey.Convey("When the driver is sqlite", func() {
			cfg.DatabaseDriver = config.DriverSQLite
			cfg.DatabaseURL = filepath.Join(t.TempDir(), "huddle.db")
			store, err := openStore(ctx, cfg)

			convey.Convey("Then the SQL store is opened and migrated", func() {
				convey.So(err, convey.ShouldBeNil)
				_, ok := store.(*repository.SQLStore)
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(store.Close(), convey.ShouldBeNil)
			})
		})

		convey.Convey("When the driver is unknown", func() {
			cfg.DatabaseDriver = "mongo"
			_, err := openStore(ctx, cfg)

			convey.Convey("Then it fails with ErrUnsupportedDriver", func() {
				convey.So(errors.Is(err, repository.ErrUnsupportedDriver), convey.ShouldBeTrue)
			})
		})
	})
}

func TestNewHandler(t *testing.T) {
	convey.Convey("Given a started service behind the handler", t, func() {
		ctx := context.Background()
		cfg := testConfig()
		store, err := openStore(ctx, cfg)
		convey.So(err, convey.ShouldBeNil)

		svc := newService(cfg, store, logger.Get())
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		defer svc.Stop(ctx)

		h := newHandler(ctx, cfg, svc)

		convey.Convey("When probing the health route", func() {
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))

			convey.Convey("Then it answers OK", func() {
				convey.So(rr.Code, convey.ShouldEqual, http.StatusOK)
			})
		})

		convey.Convey("When creating an event through the API", func() {
			body := `{"name":"Retro","dates":["2025-03-10"],"time_start":"09:00","time_end":"10:00","slot_minutes":30,"timezone":"UTC"}`
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/events", strings.NewReader(body)))

			convey.Convey("Then the event is created", func() {
				convey.So(rr.Code, convey.ShouldEqual, http.StatusCreated)
				convey.So(rr.Body.String(), convey.ShouldContainSubstring, `"slug"`)
			})
		})

		convey.Convey("When asking for the API docs", func() {
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/openapi.yaml", nil))

			convey.Convey("Then the OpenAPI document is served", func() {
				convey.So(rr.Code, convey.ShouldEqual, http.StatusOK)
				convey.So(rr.Body.String(), convey.ShouldContainSubstring, "openapi:")
			})
		})

		convey.Convey("When the service stats are refreshed", func() {
			convey.Convey("Then the metrics refresh does not panic", func() {
				convey.So(func() { _ = svc.GetStats() }, convey.ShouldNotPanic)
			})
		})
	})
}

func TestNewServerShutdown(t *testing.T) {
	convey.Convey("Given a served event with an open change stream", t, func() {
		ctx := context.Background()
		cfg := testConfig()
		svc := newService(cfg, repository.NewMemoryStore(), logger.Get())
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		defer svc.Stop(ctx)

		ln, err := net.Listen("tcp", "127.0.0.1:0")
		convey.So(err, convey.ShouldBeNil)
		srv := newServer(ctx, cfg, svc)
		go func() { _ = srv.Serve(ln) }()
		base := "http://" + ln.Addr().String()

		body := `{"name":"Retro","dates":["2025-03-10"],"time_start":"09:00","time_end":"10:00","slot_minutes":30,"timezone":"UTC"}`
		resp, err := http.Post(base+"/events", "application/json", strings.NewReader(body))
		convey.So(err, convey.ShouldBeNil)
		var created types.EventResponse
		convey.So(json.NewDecoder(resp.Body).Decode(&created), convey.ShouldBeNil)
		resp.Body.Close()

		stream, err := http.Get(base + "/events/" + created.Event.Slug + "/stream")
		convey.So(err, convey.ShouldBeNil)
		defer stream.Body.Close()
		first, err := bufio.NewReader(stream.Body).ReadString('\n')
		convey.So(err, convey.ShouldBeNil)
		convey.So(first, convey.ShouldContainSubstring, `"connected"`)

		convey.Convey("When the server shuts down", func() {
			shutdownCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
			defer cancel()
			start := time.Now()
			err := srv.Shutdown(shutdownCtx)

			convey.Convey("Then the stream is closed instead of holding shutdown", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(time.Since(start), convey.ShouldBeLessThan, time.Second)
			})

			convey.Convey("Then the service still stops within its own budget", func() {
				stopCtx, stopCancel := context.WithTimeout(ctx, time.Second)
				defer stopCancel()
				svc.Stop(stopCtx)
				convey.So(svc.GetStats()["started"], convey.ShouldEqual, false)
			})
		})
	})
}

func TestMetricsUpdaters(t *testing.T) {
	convey.Convey("Given the background metric updaters", t, func() {
		convey.Convey("When their context ends", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
			defer cancel()
			svc := newService(testConfig(), repository.NewMemoryStore(), logger.Get())

			convey.Convey("Then both return", func() {
				done := make(chan struct{}, 2)
				go func() { startSystemMetricsUpdater(ctx); done <- struct{}{} }()
				go func() { startServiceMetricsUpdater(ctx, svc); done <- struct{}{} }()
				for i := 0; i < 2; i++ {
					select {
					case <-done:
					case <-time.After(2 * time.Second):
						convey.So("updater did not stop", convey.ShouldBeEmpty)
					}
				}
			})
		})

		convey.Convey("When sampling runtime metrics", func() {
			convey.Convey("Then it does not panic", func() {
				convey.So(updateSystemMetrics, convey.ShouldNotPanic)
			})
		})
	})
}

func TestRun(t *testing.T) {
	convey.Convey("Given the process entry point", t, func() {
		convey.Convey("When the configuration is invalid", func() {
			t.Setenv("HUDDLE_DATABASE_DRIVER", "mongo")

			convey.Convey("Then run reports the config error", func() {
				err := run(context.Background())
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When started with a memory store and cancelled", func() {
			t.Setenv("HUDDLE_ADDR", "127.0.0.1:0")
			t.Setenv("HUDDLE_DATABASE_DRIVER", "memory")
			t.Setenv("HUDDLE_SHUTDOWN_TIMEOUT", "2s")

			ctx, cancel := context.WithCancel(context.Background())
			time.AfterFunc(100*time.Millisecond, cancel)

			convey.Convey("Then it shuts down cleanly", func() {
				convey.So(run(ctx), convey.ShouldBeNil)
			})
		})
	})
}
