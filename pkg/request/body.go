package request

import (
	"io"
	"sync/atomic"
)

// BufferLease ties request bodies to the lifetime of the connection
// read buffer they stream from. The connection adapter creates one
// lease per request and releases it when the buffer goes back to the
// connection (for pooled engines, when the handler returns). Reads on
// bodies bound to a released lease fail with ErrBodyUnavailable
// instead of touching recycled memory.
type BufferLease struct {
	released atomic.Bool
}

// NewBufferLease returns a live lease.
func NewBufferLease() *BufferLease { return &BufferLease{} }

// Release marks the underlying buffer as returned. Safe to call more
// than once.
func (l *BufferLease) Release() { l.released.Store(true) }

// Released reports whether the buffer has been returned.
func (l *BufferLease) Released() bool { return l.released.Load() }

// Body is the streaming request payload. A live body delegates to the
// connection's reader and supports ordinary partial reads; an absent
// body (header-only construction, or no payload supplied) fails every
// read with ErrBodyUnavailable. Body is forward-only and is read by at
// most one goroutine at a time.
type Body struct {
	src   io.Reader
	lease *BufferLease
}

func newLiveBody(src io.Reader, lease *BufferLease) *Body {
	return &Body{src: src, lease: lease}
}

func emptyBody() *Body { return &Body{} }

// Read implements io.Reader. Absent bodies and bodies whose buffer
// lease was released return ErrBodyUnavailable on every call; they
// never block and never fabricate data. Live bodies pass the
// underlying reader's result through untouched, io.EOF included.
func (b *Body) Read(p []byte) (int, error) {
	if b.src == nil {
		return 0, ErrBodyUnavailable
	}
	if b.lease != nil && b.lease.Released() {
		return 0, ErrBodyUnavailable
	}
	return b.src.Read(p)
}

// Live reports whether the body is backed by a connection reader whose
// buffer is still held.
func (b *Body) Live() bool {
	return b.src != nil && (b.lease == nil || !b.lease.Released())
}
