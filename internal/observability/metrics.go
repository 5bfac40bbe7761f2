// Package observability holds the Prometheus instrumentation for the
// import pipeline.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics bundles the pipeline collectors so both the server and the
// worker register against one registry.
type Metrics struct {
	Registry *prometheus.Registry

	JobsEnqueued    prometheus.Counter
	JobsProcessed   *prometheus.CounterVec
	JobDuration     prometheus.Histogram
	ClaimBatchSize  prometheus.Histogram
	CommitAttempts  *prometheus.CounterVec
	DraftIssues     *prometheus.CounterVec
	ExpiredJobs     prometheus.Counter
	ArtifactSweeps  prometheus.Counter
}

// New builds a metrics bundle on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		JobsEnqueued: factory.NewCounter(prometheus.CounterOpts{
			Name: "planlift_jobs_enqueued_total",
			Help: "Import jobs accepted for processing.",
		}),
		JobsProcessed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "planlift_jobs_processed_total",
			Help: "Import jobs finished by the worker, by outcome.",
		}, []string{"outcome"}),
		JobDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "planlift_job_processing_seconds",
			Help:    "Wall time from claim to terminal state.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
		ClaimBatchSize: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "planlift_claim_batch_size",
			Help:    "Jobs claimed per worker poll.",
			Buckets: prometheus.LinearBuckets(0, 2, 11),
		}),
		CommitAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "planlift_commit_attempts_total",
			Help: "Routine commit attempts, by result.",
		}, []string{"result"}),
		DraftIssues: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "planlift_draft_issues_total",
			Help: "Issues produced by validation, by severity.",
		}, []string{"severity"}),
		ExpiredJobs: factory.NewCounter(prometheus.CounterOpts{
			Name: "planlift_expired_jobs_total",
			Help: "Jobs swept past the retention window.",
		}),
		ArtifactSweeps: factory.NewCounter(prometheus.CounterOpts{
			Name: "planlift_expired_artifacts_total",
			Help: "Artifacts deleted past the retention window.",
		}),
	}
}
