package middleware

import (
	"time"

	"corridor/pkg/httpx"
	"corridor/pkg/request"
	"corridor/pkg/telemetry"
)

// Metrics reports request counts, latency and response sizes to the
// telemetry collectors.
func Metrics() Middleware {
	return func(next httpx.Handler) httpx.Handler {
		return httpx.HandlerFunc(func(w httpx.ResponseWriter, r *request.Request) {
			done := telemetry.TrackInflight()
			defer done()

			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w}
			next.Serve(rec, r)
			telemetry.ObserveRequest(r.Method, rec.Status(), time.Since(start), rec.bytes)
		})
	}
}
