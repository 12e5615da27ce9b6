package libemit

// DefaultMaxListeners is the number of listeners per event above which an emitter logs a
// possible leak. Zero disables the check.
const DefaultMaxListeners = 10

type (
	EmitterOption func(*emitterOptions)

	emitterOptions struct {
		logger       logger
		maxListeners int
		metrics      *Metrics
	}
)

func defaultEmitterOptions() emitterOptions {
	return emitterOptions{
		logger:       nopLogger{},
		maxListeners: DefaultMaxListeners,
	}
}

func WithLogger(l logger) EmitterOption {
	return func(o *emitterOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

func WithMaxListeners(n int) EmitterOption {
	return func(o *emitterOptions) {
		if n >= 0 {
			o.maxListeners = n
		}
	}
}

// WithMetrics records listener and emission counts on m.
func WithMetrics(m *Metrics) EmitterOption {
	return func(o *emitterOptions) {
		o.metrics = m
	}
}
