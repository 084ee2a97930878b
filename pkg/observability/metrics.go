// Package observability provides Prometheus metrics and HTTP middleware
// for monitoring the glam server.
package observability

import "github.com/prometheus/client_golang/prometheus"

// GitBuckets defines histogram buckets suited for local git operation and
// admin request latencies, ranging from 5ms to 30s.
var GitBuckets = []float64{0.005, 0.025, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30}

var (
	// RequestsTotal counts admin HTTP requests by method, path, and status class.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "glam_admin_requests_total",
			Help: "Total admin HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// RequestDuration records admin HTTP request duration in seconds.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "glam_admin_request_duration_seconds",
			Help:    "Admin HTTP request duration",
			Buckets: GitBuckets,
		},
		[]string{"method", "path"},
	)

	// RequestsInFlight tracks admin HTTP requests currently being served.
	RequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "glam_admin_requests_in_flight",
			Help: "Admin HTTP requests in flight",
		},
	)

	// ToolExecutionsTotal counts MCP tool executions by name and outcome.
	ToolExecutionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "glam_tool_executions_total",
			Help: "Tool executions",
		},
		[]string{"tool", "status"},
	)

	// ToolDuration records MCP tool execution duration in seconds.
	ToolDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "glam_tool_duration_seconds",
			Help:    "Tool execution duration",
			Buckets: GitBuckets,
		},
		[]string{"tool"},
	)

	// ActivityRecordsTotal counts team activity records written by operation.
	ActivityRecordsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "glam_activity_records_total",
			Help: "Team activity records written",
		},
		[]string{"operation"},
	)
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDuration,
		RequestsInFlight,
		ToolExecutionsTotal,
		ToolDuration,
		ActivityRecordsTotal,
	)
}
