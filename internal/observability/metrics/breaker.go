package metrics

import "github.com/prometheus/client_golang/prometheus"

var breakerStateValue = map[string]float64{
	"closed":    0,
	"half-open": 1,
	"open":      2,
}

type breakerMetrics struct {
	state       *prometheus.GaugeVec
	transitions *prometheus.CounterVec
}

func newBreakerMetrics() *breakerMetrics {
	return &breakerMetrics{
		state: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "resilience",
				Name:      "breaker_state",
				Help:      "Circuit breaker state per operation (0 closed, 1 half-open, 2 open).",
			},
			[]string{"service", "operation"},
		),
		transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "resilience",
				Name:      "breaker_transitions_total",
				Help:      "Circuit breaker state transitions.",
			},
			[]string{"service", "operation", "to"},
		),
	}
}

func (b *breakerMetrics) hook(service string) func(operation, from, to string) {
	return func(operation, _, to string) {
		if value, ok := breakerStateValue[to]; ok {
			b.state.WithLabelValues(service, operation).Set(value)
		}
		b.transitions.WithLabelValues(service, operation, to).Inc()
	}
}
