package request

import "errors"

// Sentinel errors reported by request construction and body reads.
// Callers should match with errors.Is; construction errors mean no
// Request was produced and the connection handler should answer with
// a client-error status.
var (
	// ErrMissingHost is returned when an origin-form target arrives
	// without a Host header to resolve it against.
	ErrMissingHost = errors.New("request: no host specified")

	// ErrUnsupportedTarget is returned for request targets that are
	// neither origin-form nor absolute-form (asterisk-form, CONNECT
	// authority-form, and anything unparseable).
	ErrUnsupportedTarget = errors.New("request: unsupported request target")

	// ErrBodyUnavailable is returned by reads on a body that was never
	// attached or whose connection buffer has been released.
	ErrBodyUnavailable = errors.New("request: body unavailable")
)
