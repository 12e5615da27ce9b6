package libemit

import (
	"sync"
	"sync/atomic"
)

var lastRegistryID atomic.Uint64

type (
	RegistryOption func(*registryOptions)

	registryOptions struct {
		logger logger
	}

	// Registry registers listeners on an emitter it does not own and remembers them
	// through an ownership tag, so it can later remove exactly its own listeners without
	// touching those added by anybody else on the same emitter.
	//
	// Several registries may wrap one emitter. They never lock it; isolation comes from
	// the tags alone.
	Registry[K comparable, V any] struct {
		id      uint64
		mu      sync.Mutex
		emitter Emitter[K, V]
		alive   bool
		logger  logger
	}
)

func WithRegistryLogger(l logger) RegistryOption {
	return func(o *registryOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// New returns a registry with a process unique id wrapping emitter. A nil emitter is
// allowed: On, Once and Remove are then no-ops.
func New[K comparable, V any](emitter Emitter[K, V], opts ...RegistryOption) *Registry[K, V] {
	o := registryOptions{logger: nopLogger{}}
	for _, opt := range opts {
		opt(&o)
	}

	id := lastRegistryID.Add(1)

	return &Registry[K, V]{
		id:      id,
		emitter: emitter,
		alive:   true,
		logger:  o.logger.WithField("registry", id),
	}
}

// ID returns the registry id. It stays readable after Destroy.
func (r *Registry[K, V]) ID() uint64 {
	return r.id
}

// Emitter returns the wrapped emitter, or nil once the registry has been destroyed.
func (r *Registry[K, V]) Emitter() Emitter[K, V] {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.emitter
}

// Owns reports whether l is currently tagged by r.
func (r *Registry[K, V]) Owns(l *Listener[V]) bool {
	id, ok := Owner(l)
	return ok && id == r.id
}

// On tags listener and registers it as a persistent listener for event. Errors returned
// by the emitter are passed through and leave the previous tag in place.
func (r *Registry[K, V]) On(event K, listener *Listener[V]) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.emitter == nil {
		return nil
	}

	return r.tagged(listener, func() error {
		return r.emitter.On(event, listener)
	})
}

// Once is On for a listener the emitter fires at most once.
func (r *Registry[K, V]) Once(event K, listener *Listener[V]) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.emitter == nil {
		return nil
	}

	return r.tagged(listener, func() error {
		return r.emitter.Once(event, listener)
	})
}

func (r *Registry[K, V]) tagged(listener *Listener[V], register func() error) error {
	if listener == nil {
		return register()
	}

	prev, had := tagListener(listener, r.id)
	if err := register(); err != nil {
		restoreTag(listener, prev, had)
		return err
	}

	return nil
}

// Remove detaches the listeners owned by r from the given events, or from every event
// the emitter knows about when called without arguments. A single string-kinded event
// containing commas, such as "open, close", names several events. Unknown events are
// ignored.
func (r *Registry[K, V]) Remove(events ...K) *Registry[K, V] {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.remove(events)
	return r
}

func (r *Registry[K, V]) remove(events []K) {
	if r.emitter == nil {
		return
	}

	if len(events) == 0 {
		events = r.emitter.EventNames()
	} else {
		events = splitEventNames(events)
	}

	removed := 0
	for _, event := range events {
		// the live list may hold emitter wrappers, so it is the list, not the
		// references we were given, that has to be handed back for removal
		for _, live := range r.emitter.Listeners(event) {
			if !r.Owns(live) {
				continue
			}
			if r.emitter.RemoveListener(event, live) {
				removed++
			}
		}
	}

	if removed > 0 {
		r.logger.Debugf("removed %d listeners", removed)
	}
}

// Destroy removes every listener owned by r and drops the emitter reference. It returns
// true on the first call and false, doing nothing, afterwards.
func (r *Registry[K, V]) Destroy() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.alive {
		return false
	}

	r.remove(nil)
	r.emitter = nil
	r.alive = false

	r.logger.Debugln("destroyed")
	return true
}
