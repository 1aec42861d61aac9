// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Turn paths recorded by AdvisorTurns.
const (
	PathBackend  = "backend"
	PathFallback = "fallback"
	PathTerminal = "terminal"
)

var (
	AdvisorTurns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "advisor_turns_total",
			Help: "Total number of advisory turns by the path that produced the reply",
		},
		[]string{"path"},
	)

	AdvisorBackendFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "advisor_backend_failures_total",
			Help: "Total number of generative backend failures by reason",
		},
		[]string{"reason"},
	)

	AdvisorTurnDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "advisor_turn_duration_seconds",
			Help:    "Duration of a full advisory turn in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30},
		},
	)

	EligibilityChecks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eligibility_checks_total",
			Help: "Total number of eligibility evaluations by result",
		},
		[]string{"result"},
	)

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
)

// RecordEligibility counts one verdict.
func RecordEligibility(eligible bool) {
	result := "not_eligible"
	if eligible {
		result = "eligible"
	}
	EligibilityChecks.WithLabelValues(result).Inc()
}
