package metrics

import "github.com/prometheus/client_golang/prometheus"

// Capability Prometheus metrics.
var (
	CapabilityCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "enrichit",
			Name:      "capability_calls_total",
			Help:      "Total number of capability invocations",
		},
		[]string{"kind", "outcome"}, // outcome: "success" or the error class
	)

	CapabilityCallDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "enrichit",
			Name:      "capability_call_duration_seconds",
			Help:      "Capability invocation duration in seconds, retries included",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"kind"},
	)

	CapabilityRetriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "enrichit",
			Name:      "capability_retries_total",
			Help:      "Total retries after transient provider errors",
		},
		[]string{"kind"},
	)

	CircuitBreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "enrichit",
			Name:      "circuit_breaker_state",
			Help:      "Provider circuit breaker state (0 closed, 1 half-open, 2 open)",
		},
		[]string{"name"},
	)
)

var capMetricsRegistered bool

// RegisterCapabilityMetrics registers Prometheus capability metrics. Must be called once from main.
func RegisterCapabilityMetrics() {
	if capMetricsRegistered {
		return
	}
	prometheus.MustRegister(CapabilityCallsTotal)
	prometheus.MustRegister(CapabilityCallDuration)
	prometheus.MustRegister(CapabilityRetriesTotal)
	prometheus.MustRegister(CircuitBreakerState)
	capMetricsRegistered = true
}
