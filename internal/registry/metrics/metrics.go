package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the MID queue and submission worker.
type Metrics struct {
	Attempts       *prometheus.CounterVec
	DrainDuration  prometheus.Histogram
	DrainsSkipped  prometheus.Counter
	RecordsBusy    prometheus.Counter
	GatewayLatency prometheus.Histogram
	QueueDepth     *prometheus.GaugeVec
	Enqueued       prometheus.Counter
}

// New creates a new Metrics instance with all registry metrics registered.
func New() *Metrics {
	return &Metrics{
		Attempts: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "swiftpolicy_mid_attempts_total",
			Help: "Registry submission attempts by outcome (success, failure)",
		}, []string{"outcome"}),
		DrainDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "swiftpolicy_mid_drain_duration_seconds",
			Help:    "Duration of a full drain cycle",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}),
		DrainsSkipped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "swiftpolicy_mid_drains_skipped_total",
			Help: "Ticks skipped because another drain held the lock",
		}),
		RecordsBusy: promauto.NewCounter(prometheus.CounterOpts{
			Name: "swiftpolicy_mid_records_busy_total",
			Help: "Submissions skipped because their record lock was held",
		}),
		GatewayLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "swiftpolicy_mid_gateway_latency_seconds",
			Help:    "Latency of individual registry gateway calls",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		QueueDepth: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "swiftpolicy_mid_queue_depth",
			Help: "Submissions by status after the last drain",
		}, []string{"status"}),
		Enqueued: promauto.NewCounter(prometheus.CounterOpts{
			Name: "swiftpolicy_mid_enqueued_total",
			Help: "Submissions created",
		}),
	}
}

func (m *Metrics) IncrementAttempt(outcome string) {
	m.Attempts.WithLabelValues(outcome).Inc()
}

// ObserveDrain records the duration of a drain cycle.
// Call with time.Now() at the start of the cycle.
func (m *Metrics) ObserveDrain(start time.Time) {
	m.DrainDuration.Observe(time.Since(start).Seconds())
}

func (m *Metrics) ObserveGateway(start time.Time) {
	m.GatewayLatency.Observe(time.Since(start).Seconds())
}

func (m *Metrics) IncrementDrainSkipped() {
	m.DrainsSkipped.Inc()
}

func (m *Metrics) IncrementRecordBusy() {
	m.RecordsBusy.Inc()
}

func (m *Metrics) IncrementEnqueued() {
	m.Enqueued.Inc()
}

func (m *Metrics) SetQueueDepth(status string, n int) {
	m.QueueDepth.WithLabelValues(status).Set(float64(n))
}
