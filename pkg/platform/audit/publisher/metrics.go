package publisher

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for audit publishing.
type Metrics struct {
	Emitted         prometheus.Counter
	Dropped         prometheus.Counter
	PersistFailures prometheus.Counter
	BufferDepth     prometheus.Gauge
}

// NewMetrics registers the audit publisher metrics. Call once per process.
func NewMetrics() *Metrics {
	return &Metrics{
		Emitted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "swiftpolicy_audit_events_emitted_total",
			Help: "Total number of audit events accepted by the publisher",
		}),
		Dropped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "swiftpolicy_audit_events_dropped_total",
			Help: "Total number of audit events evicted from a full buffer",
		}),
		PersistFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "swiftpolicy_audit_persist_failures_total",
			Help: "Total number of audit events the store failed to persist",
		}),
		BufferDepth: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "swiftpolicy_audit_buffer_depth",
			Help: "Audit events waiting to be flushed",
		}),
	}
}

func (m *Metrics) IncEmitted() {
	if m != nil {
		m.Emitted.Inc()
	}
}

func (m *Metrics) IncDropped() {
	if m != nil {
		m.Dropped.Inc()
	}
}

func (m *Metrics) IncPersistFailures() {
	if m != nil {
		m.PersistFailures.Inc()
	}
}

func (m *Metrics) SetBufferDepth(n int) {
	if m != nil {
		m.BufferDepth.Set(float64(n))
	}
}
