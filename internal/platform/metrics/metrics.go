package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds process-level Prometheus metrics.
type Metrics struct {
	BuildInfo    *prometheus.GaugeVec
	DependencyUp *prometheus.GaugeVec
}

// New creates and registers the process metrics.
func New(version string) *Metrics {
	m := &Metrics{
		BuildInfo: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "swiftpolicy_build_info",
			Help: "Build information, value is always 1",
		}, []string{"version"}),
		DependencyUp: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "swiftpolicy_dependency_up",
			Help: "Whether the last probe of a dependency succeeded",
		}, []string{"dependency"}),
	}
	m.BuildInfo.WithLabelValues(version).Set(1)
	return m
}

// Probe wraps a health check so every run records the dependency gauge.
func (m *Metrics) Probe(name string, check func(ctx context.Context) error) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		err := check(ctx)
		if err != nil {
			m.DependencyUp.WithLabelValues(name).Set(0)
		} else {
			m.DependencyUp.WithLabelValues(name).Set(1)
		}
		return err
	}
}
