package middleware

import (
	"time"

	"corridor/pkg/httpx"
	"corridor/pkg/logger"
	"corridor/pkg/request"
)

// AccessLog logs one line per completed request with the response
// status and timing.
func AccessLog() Middleware {
	return func(next httpx.Handler) httpx.Handler {
		return httpx.HandlerFunc(func(w httpx.ResponseWriter, r *request.Request) {
			logger.LogRequest(r)
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w}
			next.Serve(rec, r)

			args := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.Status(),
				"duration_ms", time.Since(start).Milliseconds(),
				"bytes", rec.bytes,
				"remote", addrString(r.RemoteAddr),
			}
			if id, ok := RequestIDFrom(r); ok {
				args = append(args, "request_id", string(id))
			}
			logger.Info("request_completed", args...)
		})
	}
}
