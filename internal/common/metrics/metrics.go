// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Onboarding flow metrics.
var (
	StepTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "onboarding_step_transitions_total",
			Help: "Total number of step transitions by role and direction",
		},
		[]string{"role", "direction"},
	)

	PointsAwarded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "onboarding_points_awarded_total",
			Help: "Sum of gamification points awarded",
		},
		[]string{"role"},
	)

	AchievementsUnlocked = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "onboarding_achievements_unlocked_total",
			Help: "Total number of achievements unlocked",
		},
		[]string{"achievement"},
	)

	PersistenceFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "onboarding_persistence_failures_total",
			Help: "Snapshot store failures by operation",
		},
		[]string{"store", "operation"},
	)

	CompletionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "onboarding_completion_duration_seconds",
			Help:    "Duration of account finalization",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"role", "outcome"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "onboarding_http_request_duration_seconds",
			Help:    "Step UI API latency by route and status",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "onboarding_active_sessions",
			Help: "Number of onboarding sessions held in memory",
		},
	)
)

// Job worker metrics for the post-completion workers.
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
			Help: "Number of jobs currently being processed by worker",
		},
		[]string{"task_type"},
	)
)
