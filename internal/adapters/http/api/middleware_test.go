package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestErrorKind(t *testing.T) {
	cases := map[int]string{
		http.StatusOK:                  "",
		http.StatusCreated:             "",
		http.StatusBadRequest:          "client_error",
		http.StatusNotFound:            "not_found",
		http.StatusTooManyRequests:     "rate_limit",
		http.StatusInternalServerError: "server_error",
		http.StatusServiceUnavailable:  "unavailable",
	}
	for status, want := range cases {
		if got := errorKind(status); got != want {
			t.Errorf("errorKind(%d) = %q, want %q", status, got, want)
		}
	}
}

func TestMetricsMiddleware(t *testing.T) {
	Convey("Given a handler wrapped with the metrics middleware", t, func() {
		h := MetricsMiddleware(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTeapot)
			_, _ = w.Write([]byte("short and stout"))
		}, "teapot")

		Convey("When it serves a request", func() {
			rr := httptest.NewRecorder()
			h(rr, httptest.NewRequest(http.MethodGet, "/teapot", http.NoBody))

			Convey("Then the response passes through untouched", func() {
				So(rr.Code, ShouldEqual, http.StatusTeapot)
				So(rr.Body.String(), ShouldEqual, "short and stout")
			})
		})

		Convey("When a controller unwraps the writer", func() {
			rr := httptest.NewRecorder()
			rw := &responseWriter{ResponseWriter: rr, statusCode: http.StatusOK}

			Convey("Then flushing reaches the recorder", func() {
				So(http.NewResponseController(rw).Flush(), ShouldBeNil)
				So(rr.Flushed, ShouldBeTrue)
			})
		})
	})
}
