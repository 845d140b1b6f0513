package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

type vaultMetrics struct {
	transitions *prometheus.CounterVec
	failures    *prometheus.CounterVec
	latency     *prometheus.HistogramVec
	openEscrows prometheus.Gauge
}

var (
	vaultMetricsOnce sync.Once
	vaultRegistry    *vaultMetrics
)

// Vault returns the lazily-initialised metrics registry tracking escrow
// transitions and RPC activity.
func Vault() *vaultMetrics {
	vaultMetricsOnce.Do(func() {
		vaultRegistry = &vaultMetrics{
			transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "htlcvault",
				Subsystem: "escrow",
				Name:      "transitions_total",
				Help:      "Count of successful escrow transitions segmented by event type.",
			}, []string{"event"}),
			failures: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "htlcvault",
				Subsystem: "escrow",
				Name:      "failures_total",
				Help:      "Count of rejected escrow operations segmented by method and reason.",
			}, []string{"method", "reason"}),
			latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "htlcvault",
				Subsystem: "rpc",
				Name:      "request_duration_seconds",
				Help:      "Latency distribution for JSON-RPC handlers.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"method"}),
			openEscrows: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "htlcvault",
				Subsystem: "escrow",
				Name:      "open_total",
				Help:      "Number of escrows currently awaiting a terminal transition.",
			}),
		}
		prometheus.MustRegister(
			vaultRegistry.transitions,
			vaultRegistry.failures,
			vaultRegistry.latency,
			vaultRegistry.openEscrows,
		)
	})
	return vaultRegistry
}

// RecordTransition increments the transition counter for an event type and
// tracks the open-escrow gauge: creations open an escrow, terminals close one.
func (m *vaultMetrics) RecordTransition(eventType string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(eventType).Inc()
	switch eventType {
	case "htlc.created":
		m.openEscrows.Inc()
	case "htlc.claimed", "htlc.refunded", "htlc.cancelled":
		m.openEscrows.Dec()
	}
}

// RecordFailure increments the rejected-operation counter.
func (m *vaultMetrics) RecordFailure(method, reason string) {
	if m == nil {
		return
	}
	m.failures.WithLabelValues(method, reason).Inc()
}

// ObserveLatency records a handler duration in seconds.
func (m *vaultMetrics) ObserveLatency(method string, seconds float64) {
	if m == nil {
		return
	}
	m.latency.WithLabelValues(method).Observe(seconds)
}
