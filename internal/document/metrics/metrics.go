package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for certificate issuance.
type Metrics struct {
	Issued  *prometheus.CounterVec
	Skipped prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		Issued: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "swiftpolicy_certificates_issued_total",
			Help: "Certificates issued, by cover type",
		}, []string{"cover"}),
		Skipped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "swiftpolicy_certificate_issuance_skipped_total",
			Help: "Issuance requests for policies that were not Active",
		}),
	}
}

func (m *Metrics) IncrementIssued(cover string) {
	m.Issued.WithLabelValues(cover).Inc()
}

func (m *Metrics) IncrementSkipped() {
	m.Skipped.Inc()
}
