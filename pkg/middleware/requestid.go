package middleware

import (
	"strconv"
	"sync/atomic"
	"time"

	"corridor/pkg/httpx"
	"corridor/pkg/request"
)

// RequestID is the per-request identifier stored in the extension
// store and echoed in the X-Request-Id response header.
type RequestID string

var requestCtr uint64

// WithRequestID assigns every request an id so log lines and responses
// can be correlated.
func WithRequestID() Middleware {
	return func(next httpx.Handler) httpx.Handler {
		return httpx.HandlerFunc(func(w httpx.ResponseWriter, r *request.Request) {
			id := genRequestID()
			request.ExtSet(r.Extensions, RequestID(id))
			w.Header().Set("X-Request-Id", id)
			next.Serve(w, r)
		})
	}
}

// RequestIDFrom returns the id assigned by WithRequestID, if any.
func RequestIDFrom(r *request.Request) (RequestID, bool) {
	return request.ExtGet[RequestID](r.Extensions)
}

func genRequestID() string {
	n := atomic.AddUint64(&requestCtr, 1)
	return "r-" + time.Now().UTC().Format("20060102T150405") + "-" + strconv.FormatUint(n, 10)
}
