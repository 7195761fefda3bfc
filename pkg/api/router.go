// Package api exposes the notes service over HTTP. Every route handler
// consumes *request.Request via the httpx adapters, so path variables,
// auth identity and request IDs all travel through request extensions.
package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"corridor/pkg/httpx"
	"corridor/pkg/logger"
	"corridor/pkg/middleware"
	"corridor/pkg/request"
	"corridor/pkg/telemetry"
)

// RouteVars carries gorilla/mux path variables into request extensions.
type RouteVars map[string]string

// route adapts a corridor handler onto net/http: mux path variables are
// copied into the request extensions, then the middleware chain runs
// over the resolved request ahead of the handler.
func route(h httpx.Handler, mws []middleware.Middleware, opts ...httpx.Option) http.Handler {
	chained := middleware.Chain(h, mws...)
	return http.HandlerFunc(func(w http.ResponseWriter, hr *http.Request) {
		vars := mux.Vars(hr)
		wrapped := httpx.HandlerFunc(func(rw httpx.ResponseWriter, req *request.Request) {
			if len(vars) > 0 {
				request.ExtSet(req.Extensions, RouteVars(vars))
			}
			chained.Serve(rw, req)
		})
		httpx.NetHTTPAdapter(wrapped, opts...).ServeHTTP(w, hr)
	})
}

// pathVar returns a mux path variable recorded in the request extensions.
func pathVar(r *request.Request, name string) string {
	vars, ok := request.ExtGet[RouteVars](r.Extensions)
	if !ok {
		return ""
	}
	return vars[name]
}

// Handler assembles the complete service handler: note routes, admin
// routes and the Prometheus scrape endpoint.
func Handler(mws []middleware.Middleware, opts ...httpx.Option) http.Handler {
	r := mux.NewRouter()
	Register(r, mws, opts...)
	r.Handle("/metrics", telemetry.Handler()).Methods(http.MethodGet)
	return r
}

// Register registers the note service routes onto the router. Ops probes
// run header-only pipelines; everything else reads the live body stream.
func Register(r *mux.Router, mws []middleware.Middleware, opts ...httpx.Option) {
	headerOnly := append([]httpx.Option{httpx.WithHeaderOnly()}, opts...)
	r.Handle("/healthz", route(httpx.HandlerFunc(health), mws, headerOnly...)).Methods(http.MethodGet)
	r.Handle("/readyz", route(httpx.HandlerFunc(ready), mws, headerOnly...)).Methods(http.MethodGet)
	r.Handle("/", route(httpx.HandlerFunc(index), mws, headerOnly...)).Methods(http.MethodGet)

	v1 := r.PathPrefix("/v1").Subrouter()
	v1.Handle("/notes", route(httpx.HandlerFunc(createNote), mws, opts...)).Methods(http.MethodPost)
	v1.Handle("/notes", route(httpx.HandlerFunc(listNotes), mws, opts...)).Methods(http.MethodGet)
	v1.Handle("/notes/{id}", route(httpx.HandlerFunc(getNote), mws, opts...)).Methods(http.MethodGet)
	v1.Handle("/notes/{id}", route(httpx.HandlerFunc(putNote), mws, opts...)).Methods(http.MethodPut)
	v1.Handle("/notes/{id}", route(httpx.HandlerFunc(deleteNote), mws, opts...)).Methods(http.MethodDelete)
	v1.Handle("/notes/{id}/versions", route(httpx.HandlerFunc(listNoteVersions), mws, opts...)).Methods(http.MethodGet)

	RegisterAdmin(r.PathPrefix("/admin").Subrouter(), mws, opts...)
	logger.Info("routes_registered")
}
