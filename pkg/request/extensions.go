package request

import "reflect"

// Extensions is a heterogeneous store keyed by Go type. Middleware and
// handlers use it to attach derived state (an authenticated identity,
// a request id, route captures) to a request without the core knowing
// any of those types. Each type has at most one slot; writing a type
// that is already present replaces the old value. Every request starts
// with an empty store.
//
// Lookups use the concrete type as the key, so two packages can both
// store a string-shaped value without colliding by declaring their own
// wrapper types. To share mutable state, store a pointer type.
//
// Extensions is owned by the request and follows its single-goroutine
// discipline; it does no locking of its own.
type Extensions struct {
	m map[reflect.Type]any
}

func newExtensions() *Extensions { return &Extensions{} }

// Len reports how many values are stored.
func (e *Extensions) Len() int { return len(e.m) }

// ExtGet returns the value of type T, if one is stored.
func ExtGet[T any](e *Extensions) (T, bool) {
	v, ok := e.m[reflect.TypeOf((*T)(nil)).Elem()]
	if !ok {
		var zero T
		return zero, false
	}
	return v.(T), true
}

// ExtSet stores v under its type, returning the value it replaced.
func ExtSet[T any](e *Extensions, v T) (T, bool) {
	key := reflect.TypeOf((*T)(nil)).Elem()
	prev, had := e.m[key]
	if e.m == nil {
		e.m = make(map[reflect.Type]any)
	}
	e.m[key] = v
	if !had {
		var zero T
		return zero, false
	}
	return prev.(T), true
}

// ExtDelete removes the value of type T, returning it if present.
func ExtDelete[T any](e *Extensions) (T, bool) {
	key := reflect.TypeOf((*T)(nil)).Elem()
	prev, had := e.m[key]
	if !had {
		var zero T
		return zero, false
	}
	delete(e.m, key)
	return prev.(T), true
}
