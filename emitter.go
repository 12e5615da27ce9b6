package libemit

type (
	// Emitter is the publish/subscribe contract a Registry works against. Implementations
	// own dispatch and storage; the registry only attaches and detaches listeners.
	Emitter[K comparable, V any] interface {
		// On registers listener to fire on every emission of event until removed.
		On(event K, listener *Listener[V]) error

		// Once registers listener to fire on the next emission of event only.
		// Implementations storing a substitute must build it with Wrap.
		Once(event K, listener *Listener[V]) error

		// RemoveListener deregisters a listener that was registered, or that is currently
		// returned by Listeners, for event. It reports whether anything was removed.
		RemoveListener(event K, listener *Listener[V]) bool

		// Listeners returns the live listeners for event, in registration order.
		Listeners(event K) []*Listener[V]

		// EventNames returns the events that currently have listeners.
		EventNames() []K

		// Emit synchronously calls every listener registered for event.
		Emit(event K, data V)
	}

	eventSink[K comparable, V any] interface {
		Emit(K, V)
	}
)
