package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the policy module.
// Tracks binds, lifecycle transitions by outcome and bind latency.
type Metrics struct {
	PoliciesBound    *prometheus.CounterVec
	Transitions      *prometheus.CounterVec
	BindDuration     prometheus.Histogram
	IssuanceFailures prometheus.Counter
}

// New creates a new Metrics instance with all policy module metrics registered.
func New() *Metrics {
	return &Metrics{
		PoliciesBound: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "swiftpolicy_policies_bound_total",
			Help: "Total number of policies bound, by duration",
		}, []string{"duration"}),
		Transitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "swiftpolicy_policy_transitions_total",
			Help: "Lifecycle transitions by trigger and outcome (applied, rejected)",
		}, []string{"transition", "outcome"}),
		BindDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "swiftpolicy_bind_duration_seconds",
			Help:    "Duration of Bind operations including enqueue and issuance",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		IssuanceFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "swiftpolicy_certificate_issuance_failures_total",
			Help: "Certificate issuance attempts that failed after a successful transition",
		}),
	}
}

func (m *Metrics) IncrementBound(duration string) {
	m.PoliciesBound.WithLabelValues(duration).Inc()
}

func (m *Metrics) IncrementTransition(transition, outcome string) {
	m.Transitions.WithLabelValues(transition, outcome).Inc()
}

// ObserveBind records the duration of a Bind operation.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveBind(start time.Time) {
	m.BindDuration.Observe(time.Since(start).Seconds())
}

func (m *Metrics) IncrementIssuanceFailure() {
	m.IssuanceFailures.Inc()
}
