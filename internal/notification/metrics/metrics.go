package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for notification delivery.
type Metrics struct {
	Attempts     *prometheus.CounterVec
	CircuitState *prometheus.GaugeVec
}

func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Attempts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "notification_attempts_total",
			Help: "Notification attempts by channel and outcome",
		}, []string{"channel", "outcome"}), // outcome: "delivered", "failed", "circuit_open"

		CircuitState: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "notification_circuit_open",
			Help: "1 while the delivery circuit for a channel is open",
		}, []string{"channel"}),
	}
}

func (m *Metrics) IncAttempt(channel, outcome string) {
	if m != nil {
		m.Attempts.WithLabelValues(channel, outcome).Inc()
	}
}

func (m *Metrics) SetCircuitOpen(channel string, open bool) {
	if m == nil {
		return
	}
	v := 0.0
	if open {
		v = 1
	}
	m.CircuitState.WithLabelValues(channel).Set(v)
}
