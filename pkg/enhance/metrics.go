package enhance

import "github.com/prometheus/client_golang/prometheus"

// Prometheus metrics for pipeline and enhancer execution.
var (
	pipelineRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "glam_pipeline_runs_total",
			Help: "Total pipeline runs",
		},
		[]string{"pipeline", "status"},
	)

	pipelineDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "glam_pipeline_duration_seconds",
			Help:    "Pipeline run duration",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
		},
		[]string{"pipeline"},
	)

	enhancerExecutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "glam_enhancer_executions_total",
			Help: "Total enhancer executions by outcome",
		},
		[]string{"enhancer", "status"},
	)

	enhancerDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "glam_enhancer_duration_seconds",
			Help:    "Enhancer execution duration",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5},
		},
		[]string{"enhancer"},
	)
)

func init() {
	prometheus.MustRegister(
		pipelineRuns,
		pipelineDuration,
		enhancerExecutions,
		enhancerDuration,
	)
}
