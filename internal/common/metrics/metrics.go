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

	ScoringRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scoring_requests_total",
			Help: "Scoring requests by strategy and outcome",
		},
		[]string{"strategy", "outcome"},
	)

	ScoringDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scoring_duration_seconds",
			Help:    "Time spent inside a scoring strategy",
			Buckets: []float64{.001, .01, .1, .5, 1, 3, 5, 10, 30},
		},
		[]string{"strategy"},
	)

	// result: hit, miss, poll_hit, pending
	AICacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_cache_lookups_total",
			Help: "AI scoring cache lookups by result",
		},
		[]string{"result"},
	)

	// result: acquired, contended, error
	AILockAcquisitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_lock_acquisitions_total",
			Help: "Distributed lock attempts for AI scoring",
		},
		[]string{"result"},
	)

	// kind: sync, stream
	AIModelInvocations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_model_invocations_total",
			Help: "Live model gateway invocations",
		},
		[]string{"kind", "outcome"},
	)

	StreamObjectsEmitted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "stream_objects_emitted_total",
			Help: "Complete JSON objects emitted by stream segmenters",
		},
	)
)

// Outcome labels shared by the counters above.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
	OutcomePending = "pending"
)
