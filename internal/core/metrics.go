package core

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records persistence activity of a Service.
type Metrics struct {
	operations *prometheus.CounterVec
	durations  *prometheus.HistogramVec
	pcs        prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg. A nil reg
// keeps them unregistered, which is what tests and one-shot commands want.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pcspec",
			Subsystem: "persistence",
			Name:      "operations_total",
			Help:      "Persistence operations by operation and result.",
		}, []string{"operation", "result"}),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "pcspec",
			Subsystem: "persistence",
			Name:      "operation_duration_seconds",
			Help:      "Duration of persistence operations.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
		}, []string{"operation"}),
		pcs: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "pcspec",
			Name:      "pcs",
			Help:      "Number of PCs in the catalogue.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.operations, m.durations, m.pcs)
	}
	return m
}

// Observe records one operation outcome.
func (m *Metrics) Observe(operation string, started time.Time, err error) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "error"
	}
	m.operations.WithLabelValues(operation, result).Inc()
	m.durations.WithLabelValues(operation).Observe(time.Since(started).Seconds())
}

// SetPCs publishes the catalogue size.
func (m *Metrics) SetPCs(n int) {
	if m == nil {
		return
	}
	m.pcs.Set(float64(n))
}
