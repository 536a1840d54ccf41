// Package metrics provides Prometheus metrics instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks HTTP request duration.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	// RequestsTotal tracks total HTTP requests.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// SyncPushesTotal tracks remote pushes by outcome.
	SyncPushesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_pushes_total",
			Help: "Remote store pushes",
		},
		[]string{"status"},
	)

	// SyncPullsTotal tracks pull-and-merge cycles by outcome.
	SyncPullsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_pulls_total",
			Help: "Pull-and-merge cycles",
		},
		[]string{"status"},
	)

	// MergeDecisionsTotal tracks merge winners.
	MergeDecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "merge_decisions_total",
			Help: "Merge policy decisions by winning side",
		},
		[]string{"winner"},
	)

	// ShareResolutionsTotal tracks share-link resolutions.
	ShareResolutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "share_resolutions_total",
			Help: "Share-link resolutions by source and outcome",
		},
		[]string{"source", "status"},
	)

	// TitleGenerationsTotal tracks title generation attempts.
	TitleGenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "title_generations_total",
			Help: "Thread title generation attempts",
		},
		[]string{"status"},
	)

	// ThreadsStored tracks the number of threads in the local store.
	ThreadsStored = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "threads_stored",
			Help: "Number of threads in the local store",
		},
	)
)

// RecordRequest records metrics for an HTTP request.
func RecordRequest(method, path, status string, duration float64) {
	RequestDuration.WithLabelValues(method, path, status).Observe(duration)
	RequestsTotal.WithLabelValues(method, path, status).Inc()
}

// RecordPush records a push attempt.
func RecordPush(status string) {
	SyncPushesTotal.WithLabelValues(status).Inc()
}

// RecordPull records a pull-and-merge cycle.
func RecordPull(status string) {
	SyncPullsTotal.WithLabelValues(status).Inc()
}

// RecordMerge records which side a merge kept.
func RecordMerge(winner string) {
	MergeDecisionsTotal.WithLabelValues(winner).Inc()
}

// RecordShareResolution records a share resolution attempt.
func RecordShareResolution(source, status string) {
	ShareResolutionsTotal.WithLabelValues(source, status).Inc()
}

// RecordTitleGeneration records a title generation attempt.
func RecordTitleGeneration(status string) {
	TitleGenerationsTotal.WithLabelValues(status).Inc()
}

// SetThreadsStored updates the stored-thread gauge.
func SetThreadsStored(n int) {
	ThreadsStored.Set(float64(n))
}
