// Package httpx bridges HTTP engines to the corridor request core.
// Each adapter turns an engine-level request into a *request.Request,
// runs one handler chain over it, and answers resolution failures with
// a client error so handlers only ever see fully constructed requests.
package httpx

import (
	"net"
	"net/http"

	"corridor/pkg/request"
)

// ResponseWriter is the subset of http.ResponseWriter semantics that
// adapters must provide.
type ResponseWriter interface {
	Header() http.Header
	Write([]byte) (int, error)
	WriteHeader(status int)
}

// Handler handles one resolved request.
type Handler interface {
	Serve(w ResponseWriter, r *request.Request)
}

// HandlerFunc is the application handler signature used across adapters.
type HandlerFunc func(w ResponseWriter, r *request.Request)

// Serve calls f(w, r).
func (f HandlerFunc) Serve(w ResponseWriter, r *request.Request) { f(w, r) }

// Option tunes how an adapter constructs requests.
type Option func(*adapterConfig)

type adapterConfig struct {
	headerOnly   bool
	maxBodyBytes int64
	scheme       string
	localAddr    net.Addr
}

// WithHeaderOnly makes the adapter construct header-only requests:
// handlers see every resolved field but body reads report
// request.ErrBodyUnavailable. Meant for probe and admission endpoints
// that must never consume payloads.
func WithHeaderOnly() Option {
	return func(c *adapterConfig) { c.headerOnly = true }
}

// WithMaxBodyBytes bounds how many body bytes handlers can read.
// Zero means unbounded.
func WithMaxBodyBytes(n int64) Option {
	return func(c *adapterConfig) { c.maxBodyBytes = n }
}

// WithScheme overrides scheme detection, for listeners behind
// TLS-terminating proxies.
func WithScheme(scheme string) Option {
	return func(c *adapterConfig) { c.scheme = scheme }
}

// WithLocalAddr supplies the listening address for engines or test
// listeners that do not expose one; origin-form targets resolve
// against its port.
func WithLocalAddr(addr net.Addr) Option {
	return func(c *adapterConfig) { c.localAddr = addr }
}

func newAdapterConfig(opts []Option) adapterConfig {
	var cfg adapterConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// strAddr carries an address string the engine gave us that does not
// parse as ip:port.
type strAddr string

func (a strAddr) Network() string { return "tcp" }
func (a strAddr) String() string  { return string(a) }
