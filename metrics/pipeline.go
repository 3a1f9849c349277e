package metrics

import "github.com/prometheus/client_golang/prometheus"

// Pipeline Prometheus metrics.
var (
	PipelineRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "enrichit",
			Name:      "pipeline_runs_total",
			Help:      "Total pipeline runs by terminal state",
		},
		[]string{"outcome"}, // "passed", "needs_review", "failed"
	)

	PipelineRunDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "enrichit",
			Name:      "pipeline_run_duration_seconds",
			Help:      "Wall clock time of completed pipeline runs",
			Buckets:   []float64{1, 2.5, 5, 10, 20, 30, 60, 120},
		},
	)

	PhaseDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "enrichit",
			Name:      "phase_duration_seconds",
			Help:      "Duration of each pipeline phase",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"phase"},
	)

	QualityScore = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "enrichit",
			Name:      "quality_score",
			Help:      "Quality gate scores",
			Buckets:   prometheus.LinearBuckets(10, 10, 10),
		},
	)

	EstimatedCostTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "enrichit",
			Name:      "estimated_cost_usd_total",
			Help:      "Sum of estimated capability cost over all runs",
		},
	)
)

var pipelineMetricsRegistered bool

// RegisterPipelineMetrics registers Prometheus pipeline metrics. Must be called once from main.
func RegisterPipelineMetrics() {
	if pipelineMetricsRegistered {
		return
	}
	prometheus.MustRegister(PipelineRunsTotal)
	prometheus.MustRegister(PipelineRunDuration)
	prometheus.MustRegister(PhaseDuration)
	prometheus.MustRegister(QualityScore)
	prometheus.MustRegister(EstimatedCostTotal)
	pipelineMetricsRegistered = true
}
