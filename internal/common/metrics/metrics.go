// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	MessagesAnalyzed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_messages_analyzed_total",
			Help: "Chat messages classified, labeled by resolved intent",
		},
		[]string{"intent"},
	)

	AnalyzeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "assistant_analyze_duration_seconds",
			Help:    "Rule-engine classification latency",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
		},
	)

	BulkJobUsers = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "assistant_bulk_job_users",
			Help:    "Number of users per bulk enrollment job",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		},
	)
)
