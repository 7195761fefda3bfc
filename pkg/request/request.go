// Package request turns raw HTTP messages into the Request value the
// rest of corridor operates on: a fully resolved URL, the method and
// headers, both connection endpoints, a streaming body, and a typed
// extension store for middleware. Construction is all-or-nothing; a
// target that cannot be resolved yields an error and no Request.
package request

import (
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
)

// Raw is the wire-level descriptor a connection adapter hands to the
// constructors. Target is the request target exactly as it appeared on
// the request line. Body may be nil when the connection carries no
// payload; Buffer, when set, bounds how long Body's bytes stay valid.
type Raw struct {
	Method     string
	Target     string
	Header     http.Header
	RemoteAddr net.Addr
	Body       io.Reader
	Buffer     *BufferLease
}

// Request is a single inbound HTTP request after resolution. Fields
// are fixed at construction; only Body (consumed forward-only) and
// Extensions (written by middleware) carry state that changes while
// the request is handled. A Request is owned by one handler chain at a
// time and does no internal locking.
type Request struct {
	URL        *url.URL
	Method     string
	Header     http.Header
	RemoteAddr net.Addr
	LocalAddr  net.Addr
	Body       *Body
	Extensions *Extensions
}

// New builds a Request from a live message. The body, when the adapter
// supplied one, stays readable for as long as raw.Buffer is held.
func New(raw Raw, localAddr net.Addr, scheme string) (*Request, error) {
	return build(raw, localAddr, scheme, true)
}

// NewHeaderOnly builds a Request from header material alone, for
// speculative work such as routing or admission checks before the body
// arrives. The result is identical to New's in every field except the
// body, which is absent: reads return ErrBodyUnavailable. Both
// constructors resolve and fail identically.
func NewHeaderOnly(raw Raw, localAddr net.Addr, scheme string) (*Request, error) {
	return build(raw, localAddr, scheme, false)
}

func build(raw Raw, localAddr net.Addr, scheme string, live bool) (*Request, error) {
	u, err := Resolve(raw.Target, raw.Header, localAddr, scheme)
	if err != nil {
		return nil, err
	}
	body := emptyBody()
	if live && raw.Body != nil {
		body = newLiveBody(raw.Body, raw.Buffer)
	}
	return &Request{
		URL:        u,
		Method:     raw.Method,
		Header:     raw.Header,
		RemoteAddr: raw.RemoteAddr,
		LocalAddr:  localAddr,
		Body:       body,
		Extensions: newExtensions(),
	}, nil
}

// String renders the request for diagnostics, one line per field.
// Headers, body and extensions are deliberately left out.
func (r *Request) String() string {
	var b strings.Builder
	b.WriteString("Request {\n")
	fmt.Fprintf(&b, "    url: %v\n", r.URL)
	fmt.Fprintf(&b, "    method: %s\n", r.Method)
	fmt.Fprintf(&b, "    remote_addr: %v\n", r.RemoteAddr)
	fmt.Fprintf(&b, "    local_addr: %v\n", r.LocalAddr)
	b.WriteString("}")
	return b.String()
}
