package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the claim lifecycle module.
type Metrics struct {
	ClaimsCreated      *prometheus.CounterVec
	Transitions        *prometheus.CounterVec
	TransitionFailures *prometheus.CounterVec
	TransitionLatency  prometheus.Histogram

	EventsPublished  prometheus.Counter
	EventsDropped    prometheus.Counter
	SubscriberErrors *prometheus.CounterVec
}

// New registers the module metrics on the default registry.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer registers on reg. Tests pass a fresh registry.
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		ClaimsCreated: f.NewCounterVec(prometheus.CounterOpts{
			Name: "claims_created_total",
			Help: "Claims created by claim type and initial status",
		}, []string{"claim_type", "status"}),

		Transitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "claims_transitions_total",
			Help: "Committed status transitions by edge and actor role",
		}, []string{"from", "to", "role"}),

		TransitionFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "claims_transition_failures_total",
			Help: "Rejected or failed transitions by error code",
		}, []string{"code"}),

		TransitionLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "claims_transition_duration_seconds",
			Help:    "Duration of the transition unit of work including lock wait",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),

		EventsPublished: f.NewCounter(prometheus.CounterOpts{
			Name: "claims_events_published_total",
			Help: "ClaimTransitioned events accepted by the in-process bus",
		}),

		EventsDropped: f.NewCounter(prometheus.CounterOpts{
			Name: "claims_events_dropped_total",
			Help: "ClaimTransitioned events dropped because the bus queue was full or closed",
		}),

		SubscriberErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "claims_event_subscriber_errors_total",
			Help: "Subscriber failures by subscriber name",
		}, []string{"subscriber"}),
	}
}

func (m *Metrics) IncClaimCreated(claimType, status string) {
	if m != nil {
		m.ClaimsCreated.WithLabelValues(claimType, status).Inc()
	}
}

func (m *Metrics) IncTransition(from, to, role string) {
	if m != nil {
		m.Transitions.WithLabelValues(from, to, role).Inc()
	}
}

func (m *Metrics) IncTransitionFailure(code string) {
	if m != nil {
		m.TransitionFailures.WithLabelValues(code).Inc()
	}
}

func (m *Metrics) ObserveTransitionLatency(d time.Duration) {
	if m != nil {
		m.TransitionLatency.Observe(d.Seconds())
	}
}

func (m *Metrics) IncEventPublished() {
	if m != nil {
		m.EventsPublished.Inc()
	}
}

func (m *Metrics) IncEventDropped() {
	if m != nil {
		m.EventsDropped.Inc()
	}
}

func (m *Metrics) IncSubscriberError(subscriber string) {
	if m != nil {
		m.SubscriberErrors.WithLabelValues(subscriber).Inc()
	}
}
