package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"corridor/pkg/httpx"
	"corridor/pkg/logger"
	"corridor/pkg/request"
	"corridor/pkg/utils"
)

// Recover keeps the server alive when a handler panics. If the
// response has not started it answers 500; a response already in
// flight is left as-is.
func Recover() Middleware {
	return func(next httpx.Handler) httpx.Handler {
		return httpx.HandlerFunc(func(w httpx.ResponseWriter, r *request.Request) {
			rec := &statusRecorder{ResponseWriter: w}
			defer func() {
				p := recover()
				if p == nil {
					return
				}
				logger.Error("panic_recovered",
					"method", r.Method,
					"path", r.URL.Path,
					"panic", fmt.Sprint(p),
					"stack", string(debug.Stack()))
				if rec.status == 0 {
					utils.JSONError(rec, http.StatusInternalServerError, "internal server error")
				}
			}()
			next.Serve(rec, r)
		})
	}
}
