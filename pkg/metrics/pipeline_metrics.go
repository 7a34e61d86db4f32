// Package metrics provides Prometheus metrics for monitoring the merge service.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Merge pipeline metrics
var (
	// mergeRequestsTotal records finished merge requests.
	// Labels:
	//   - status: "success", or the error kind that ended the request (e.g. "FetchError", "TimeoutError")
	mergeRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "merge_requests_total",
			Help: "Total number of merge requests by outcome",
		},
		[]string{"status"},
	)

	// mergeStageDuration records how long each pipeline stage took.
	// Labels:
	//   - stage: "fetch", "transform", "assemble", "publish", "purge"
	mergeStageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "merge_stage_duration_seconds",
			Help:    "Duration of merge pipeline stages in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300},
		},
		[]string{"stage"},
	)

	// toolExecutionTotal records external tool invocations.
	// Labels:
	//   - command: "ffmpeg" or "ffprobe"
	//   - status: "success", "failed", "timeout"
	toolExecutionTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tool_executions_total",
			Help: "Total number of external media tool executions",
		},
		[]string{"command", "status"},
	)

	// toolExecutionDuration records external tool wall time.
	toolExecutionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tool_execution_duration_seconds",
			Help:    "Duration of external media tool executions in seconds",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 300},
		},
		[]string{"command"},
	)

	purgeFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "purge_failures_total",
			Help: "Total number of best-effort purge failures",
		},
	)
)

func init() {
	prometheus.MustRegister(mergeRequestsTotal)
	prometheus.MustRegister(mergeStageDuration)
	prometheus.MustRegister(toolExecutionTotal)
	prometheus.MustRegister(toolExecutionDuration)
	prometheus.MustRegister(purgeFailuresTotal)
}

// RecordMergeRequest records the outcome of one merge request.
func RecordMergeRequest(status string) {
	mergeRequestsTotal.WithLabelValues(status).Inc()
}

// RecordStageDuration records the duration of a pipeline stage.
func RecordStageDuration(stage string, durationSeconds float64) {
	mergeStageDuration.WithLabelValues(stage).Observe(durationSeconds)
}

// RecordToolExecution records an external tool execution event.
// Parameters:
//   - command: tool name (e.g., "ffmpeg", "ffprobe")
//   - status: execution status (e.g., "success", "failed", "timeout")
func RecordToolExecution(command, status string) {
	toolExecutionTotal.WithLabelValues(command, status).Inc()
}

// RecordToolDuration records the duration of an external tool execution.
func RecordToolDuration(command string, durationSeconds float64) {
	toolExecutionDuration.WithLabelValues(command).Observe(durationSeconds)
}

// RecordPurgeFailure counts a purge failure that was logged and suppressed.
func RecordPurgeFailure() {
	purgeFailuresTotal.Inc()
}
