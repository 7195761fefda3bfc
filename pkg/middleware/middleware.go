// Package middleware is the handler pipeline that runs over corridor
// requests. Middleware attach derived state to the request's extension
// store rather than smuggling it through headers; handlers read it
// back with the typed accessors exported here.
package middleware

import (
	"net"

	"corridor/pkg/httpx"
)

// Middleware wraps a handler and returns a new one.
type Middleware func(httpx.Handler) httpx.Handler

// Chain applies middleware so the first one listed is outermost:
// Chain(h, a, b, c) serves a(b(c(h))). Nil entries are skipped.
func Chain(h httpx.Handler, mws ...Middleware) httpx.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		if mws[i] == nil {
			continue
		}
		h = mws[i](h)
	}
	return h
}

// statusRecorder captures the response status and body size.
type statusRecorder struct {
	httpx.ResponseWriter
	status int
	bytes  int
}

func (r *statusRecorder) WriteHeader(code int) {
	if r.status == 0 {
		r.status = code
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = 200
	}
	n, err := r.ResponseWriter.Write(b)
	r.bytes += n
	return n, err
}

func (r *statusRecorder) Status() int {
	if r.status == 0 {
		return 200
	}
	return r.status
}

func addrString(a net.Addr) string {
	if a == nil {
		return ""
	}
	return a.String()
}

func clientIP(a net.Addr) string {
	s := addrString(a)
	host, _, err := net.SplitHostPort(s)
	if err != nil {
		return s
	}
	return host
}
