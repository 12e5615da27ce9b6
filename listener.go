package libemit

// Listener is a callback with a stable identity. Go funcs cannot be compared, so emitters
// and registries identify listeners by the *Listener pointer returned from NewListener.
type Listener[V any] struct {
	fn    func(V)
	wraps *Listener[V]
}

// NewListener returns a listener invoking fn. Bind receivers with method values:
//
//	l := libemit.NewListener(session.handleFrame)
func NewListener[V any](fn func(V)) *Listener[V] {
	return &Listener[V]{fn: fn}
}

// Wrap returns a new listener invoking fn that reports inner through Unwrap. Emitters use
// it when the reference they store differs from the one the caller registered, e.g. for
// fire-once registrations.
func Wrap[V any](inner *Listener[V], fn func(V)) *Listener[V] {
	return &Listener[V]{fn: fn, wraps: inner}
}

// Call invokes the listener. Calling a nil listener is a no-op.
func (l *Listener[V]) Call(data V) {
	if l == nil || l.fn == nil {
		return
	}
	l.fn(data)
}

// Unwrap returns the listener l was created to wrap, or nil.
func (l *Listener[V]) Unwrap() *Listener[V] {
	if l == nil {
		return nil
	}
	return l.wraps
}

// is reports whether l is other or wraps it.
func (l *Listener[V]) is(other *Listener[V]) bool {
	for cur := l; cur != nil; cur = cur.wraps {
		if cur == other {
			return true
		}
	}
	return false
}
