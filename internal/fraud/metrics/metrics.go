package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for fraud triage.
type Metrics struct {
	FlagsRaised     *prometheus.CounterVec
	FlagsResolved   *prometheus.CounterVec
	EvidenceLatency *prometheus.HistogramVec
	EvaluateLatency prometheus.Histogram
}

func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		FlagsRaised: f.NewCounterVec(prometheus.CounterOpts{
			Name: "fraud_flags_raised_total",
			Help: "Fraud flags persisted by flag type and severity",
		}, []string{"flag_type", "severity"}),

		FlagsResolved: f.NewCounterVec(prometheus.CounterOpts{
			Name: "fraud_flags_resolved_total",
			Help: "Fraud flags resolved by severity and resolver role",
		}, []string{"severity", "role"}),

		EvidenceLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "fraud_evidence_duration_seconds",
			Help:    "Duration of triage evidence lookups by source",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"source"}), // source: "owner_claims", "type_claims", "open_flags"

		EvaluateLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "fraud_evaluate_duration_seconds",
			Help:    "Duration of a full triage evaluation including persistence",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
	}
}

func (m *Metrics) IncFlagRaised(flagType, severity string) {
	if m != nil {
		m.FlagsRaised.WithLabelValues(flagType, severity).Inc()
	}
}

func (m *Metrics) IncFlagResolved(severity, role string) {
	if m != nil {
		m.FlagsResolved.WithLabelValues(severity, role).Inc()
	}
}

func (m *Metrics) ObserveEvidenceLatency(source string, d time.Duration) {
	if m != nil {
		m.EvidenceLatency.WithLabelValues(source).Observe(d.Seconds())
	}
}

func (m *Metrics) ObserveEvaluateLatency(d time.Duration) {
	if m != nil {
		m.EvaluateLatency.Observe(d.Seconds())
	}
}
