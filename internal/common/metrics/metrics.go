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

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)

	// AIQueriesTotal counts processed questions. query_type is "UNKNOWN" when
	// classification failed.
	AIQueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_queries_total",
			Help: "Total number of natural-language book queries by interpreted type and outcome",
		},
		[]string{"query_type", "outcome"},
	)

	AIQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ai_query_duration_seconds",
			Help:    "End-to-end duration of a natural-language book query",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"outcome"},
	)

	LLMCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "llm_call_duration_seconds",
			Help:    "Duration of language model calls by operation",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"operation", "outcome"},
	)

	QueryCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_query_cache_lookups_total",
			Help: "Answer cache lookups by result (hit, miss, error)",
		},
		[]string{"result"},
	)

	QueryCacheInvalidatedKeys = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ai_query_cache_invalidated_keys_total",
			Help: "Number of cached answers removed by invalidation",
		},
	)
)

const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)
