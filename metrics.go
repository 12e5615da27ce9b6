package libemit

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks listener churn and emissions of the emitters it is attached to.
// A nil *Metrics records nothing.
type Metrics struct {
	ListenersAdded   prometheus.Counter
	ListenersRemoved prometheus.Counter
	ListenersActive  prometheus.Gauge
	EventsEmitted    *prometheus.CounterVec
}

// NewMetrics creates the collectors under namespace and registers them with reg. A nil
// reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		ListenersAdded: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "emitter",
			Name:      "listeners_added_total",
			Help:      "Total listeners registered on emitters.",
		}),
		ListenersRemoved: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "emitter",
			Name:      "listeners_removed_total",
			Help:      "Total listeners removed from emitters, including fired once listeners.",
		}),
		ListenersActive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "emitter",
			Name:      "listeners_active",
			Help:      "Listeners currently registered on emitters.",
		}),
		EventsEmitted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "emitter",
			Name:      "events_emitted_total",
			Help:      "Total emissions by event name.",
		}, []string{"event"}),
	}
}

func (m *Metrics) IncListenerAdded() {
	if m == nil {
		return
	}
	m.ListenersAdded.Inc()
	m.ListenersActive.Inc()
}

func (m *Metrics) IncListenerRemoved(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.ListenersRemoved.Add(float64(n))
	m.ListenersActive.Sub(float64(n))
}

func (m *Metrics) IncEmitted(event string) {
	if m == nil {
		return
	}
	m.EventsEmitted.WithLabelValues(event).Inc()
}
