package libemit

import (
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
)

// EventEmitter maps events (of type K) to ordered lists of listeners receiving data of
// type V. It is safe for concurrent use and never holds its lock while listeners run, so
// a listener may register or remove listeners, or destroy a Registry, during emission.
type EventEmitter[K comparable, V any] struct {
	listeners    map[K][]*Listener[V]
	warned       map[K]struct{}
	closed       bool
	lock         sync.RWMutex
	logger       logger
	maxListeners int
	metrics      *Metrics
}

// NewEventEmitter creates a new EventEmitter and returns a pointer to it.
func NewEventEmitter[K comparable, V any](opts ...EmitterOption) *EventEmitter[K, V] {
	o := defaultEmitterOptions()
	for _, opt := range opts {
		opt(&o)
	}

	return &EventEmitter[K, V]{
		listeners:    make(map[K][]*Listener[V]),
		warned:       make(map[K]struct{}),
		logger:       o.logger.WithField("type", "event_emitter"),
		maxListeners: o.maxListeners,
		metrics:      o.metrics,
	}
}

// On registers a new listener for the given event.
func (e *EventEmitter[K, V]) On(event K, listener *Listener[V]) error {
	if listener == nil {
		return ErrNilListener
	}
	return e.add(event, listener)
}

// Once registers a listener that is removed right before its first invocation. The
// emitter stores a wrapper around listener; Listeners reports the wrapper and its Unwrap
// method returns listener.
func (e *EventEmitter[K, V]) Once(event K, listener *Listener[V]) error {
	if listener == nil {
		return ErrNilListener
	}

	var (
		fired   atomic.Bool
		wrapper *Listener[V]
	)

	wrapper = Wrap(listener, func(data V) {
		if !fired.CompareAndSwap(false, true) {
			return
		}
		e.RemoveListener(event, wrapper)
		listener.Call(data)
	})

	return e.add(event, wrapper)
}

func (e *EventEmitter[K, V]) add(event K, listener *Listener[V]) error {
	e.lock.Lock()
	defer e.lock.Unlock()

	if e.closed {
		return ErrEmitterClosed
	}

	listeners := append(e.listeners[event], listener)
	e.listeners[event] = listeners
	e.metrics.IncListenerAdded()

	if e.maxListeners > 0 && len(listeners) > e.maxListeners {
		if _, ok := e.warned[event]; !ok {
			e.warned[event] = struct{}{}
			e.logger.WithField("event", event).Warnf(
				"possible listener leak detected: %d listeners added, max is %d",
				len(listeners), e.maxListeners,
			)
		}
	}

	return nil
}

// Emit calls every listener registered for the given event synchronously and in
// registration order. Listeners added or removed while emitting do not affect the
// current emission.
func (e *EventEmitter[K, V]) Emit(event K, data V) {
	e.lock.RLock()
	listeners := append([]*Listener[V](nil), e.listeners[event]...)
	e.lock.RUnlock()

	e.metrics.IncEmitted(fmt.Sprint(event))

	for _, listener := range listeners {
		listener.Call(data)
	}
}

// RemoveListener removes the entry for event that is listener. When no entry is
// listener itself, the first entry that wraps it is removed instead, so fire-once
// listeners can be removed through the reference passed to Once.
func (e *EventEmitter[K, V]) RemoveListener(event K, listener *Listener[V]) bool {
	if listener == nil {
		return false
	}

	e.lock.Lock()
	defer e.lock.Unlock()

	listeners := e.listeners[event]
	i := slices.Index(listeners, listener)
	if i < 0 {
		i = slices.IndexFunc(listeners, func(current *Listener[V]) bool {
			return current.is(listener)
		})
	}
	if i < 0 {
		return false
	}

	if len(listeners) == 1 {
		delete(e.listeners, event)
	} else {
		e.listeners[event] = append(listeners[:i:i], listeners[i+1:]...)
	}
	e.metrics.IncListenerRemoved(1)
	return true
}

// RemoveAllListeners removes every listener of the given events, or of all events when
// called without arguments.
func (e *EventEmitter[K, V]) RemoveAllListeners(events ...K) {
	e.lock.Lock()
	defer e.lock.Unlock()

	if len(events) == 0 {
		e.metrics.IncListenerRemoved(e.countLocked())
		e.listeners = make(map[K][]*Listener[V])
		return
	}

	for _, event := range events {
		e.metrics.IncListenerRemoved(len(e.listeners[event]))
		delete(e.listeners, event)
	}
}

// Listeners returns a copy of the live listeners for event.
func (e *EventEmitter[K, V]) Listeners(event K) []*Listener[V] {
	e.lock.RLock()
	defer e.lock.RUnlock()

	listeners := e.listeners[event]
	if len(listeners) == 0 {
		return nil
	}
	return append([]*Listener[V](nil), listeners...)
}

// ListenerCount returns the number of listeners registered for event.
func (e *EventEmitter[K, V]) ListenerCount(event K) int {
	e.lock.RLock()
	defer e.lock.RUnlock()

	return len(e.listeners[event])
}

// EventNames returns the events that have at least one listener, in no particular order.
func (e *EventEmitter[K, V]) EventNames() []K {
	e.lock.RLock()
	defer e.lock.RUnlock()

	names := make([]K, 0, len(e.listeners))
	for name := range e.listeners {
		names = append(names, name)
	}
	return names
}

// Close removes all listeners to prevent memory leaks. Further registrations fail with
// ErrEmitterClosed; emitting on a closed emitter is a no-op.
func (e *EventEmitter[K, V]) Close() {
	e.lock.Lock()
	defer e.lock.Unlock()

	if e.closed {
		return
	}

	removed := e.countLocked()
	e.metrics.IncListenerRemoved(removed)
	e.listeners = make(map[K][]*Listener[V])
	e.closed = true

	e.logger.Debugf("closed, %d listeners dropped", removed)
}

func (e *EventEmitter[K, V]) countLocked() int {
	total := 0
	for _, listeners := range e.listeners {
		total += len(listeners)
	}
	return total
}
