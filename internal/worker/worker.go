// Package worker runs the import pipeline over claimed jobs: extract,
// build, validate, adapt, persist. Parsing is pure, so any number of
// workers can run concurrently; the job table lease is the only
// coordination point.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/claude/planlift/internal/audit"
	"github.com/claude/planlift/internal/draft"
	"github.com/claude/planlift/internal/formats"
	"github.com/claude/planlift/internal/jobs"
	"github.com/claude/planlift/internal/observability"
	"github.com/claude/planlift/internal/planout"
	"github.com/claude/planlift/internal/review"
	"github.com/claude/planlift/internal/storage"
)

// Store is the slice of the storage layer the worker drives. Every
// write that touches a claimed job carries the worker's owner id so a
// lapsed lease turns the write into ErrLeaseLost instead of clobbering
// whichever worker reclaimed the job.
type Store interface {
	ClaimJobs(ctx context.Context, owner string, limit int, lease time.Duration) ([]jobs.Job, error)
	SetClaimedJobStage(ctx context.Context, id uuid.UUID, owner, stage string) error
	TransitionClaimedJob(ctx context.Context, id uuid.UUID, owner, from, to string, errCode, errMsg *string) error
	GetArtifact(ctx context.Context, jobID uuid.UUID) (*storage.Artifact, error)
	SaveDraft(ctx context.Context, rec storage.DraftRecord) error
	ExpireJobs(ctx context.Context) (int64, error)
	DeleteExpiredArtifacts(ctx context.Context) (int64, error)
}

var _ Store = (*storage.DB)(nil)

// Config tunes the claim loop.
type Config struct {
	Owner            string
	BatchSize        int
	Lease            time.Duration
	PollInterval     time.Duration
	MaxArtifactBytes int64
	ImportDisabled   bool
}

// Worker claims queued jobs and processes each to a terminal state.
type Worker struct {
	cfg     Config
	db      Store
	trail   *audit.Trail
	metrics *observability.Metrics
	log     *slog.Logger
}

// New wires a worker.
func New(cfg Config, db Store, trail *audit.Trail, m *observability.Metrics, log *slog.Logger) *Worker {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 10
	}
	if cfg.Lease <= 0 {
		cfg.Lease = 2 * time.Minute
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2 * time.Second
	}
	return &Worker{cfg: cfg, db: db, trail: trail, metrics: m, log: log}
}

// Run polls until the context is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	for {
		if err := w.RunOnce(ctx); err != nil {
			w.log.Error("claim cycle failed", "error", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// RunOnce claims one batch and processes it to completion.
func (w *Worker) RunOnce(ctx context.Context) error {
	claimed, err := w.db.ClaimJobs(ctx, w.cfg.Owner, w.cfg.BatchSize, w.cfg.Lease)
	if err != nil {
		return fmt.Errorf("claiming batch: %w", err)
	}
	w.metrics.ClaimBatchSize.Observe(float64(len(claimed)))

	for i := range claimed {
		job := claimed[i]
		w.trail.Record(ctx, audit.Event{
			JobID: &job.ID, TrainerID: job.TrainerID, ClientID: job.ClientID,
			Type: audit.TypeJobClaimed,
		})
		w.processJob(ctx, job)
	}
	return nil
}

// processJob runs the pipeline for one claimed job and leaves it ready
// or failed, unless the lease lapsed mid-flight, in which case the job
// now belongs to another worker and this one walks away. A panic inside
// parsing fails the job instead of killing the worker.
func (w *Worker) processJob(ctx context.Context, job jobs.Job) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			w.log.Error("panic processing job", "job_id", job.ID, "panic", r)
			w.trail.Record(ctx, audit.Event{
				JobID: &job.ID, TrainerID: job.TrainerID, ClientID: job.ClientID,
				Type: audit.TypeWorkerPanic, Payload: fmt.Sprint(r),
			})
			w.failJob(ctx, job, jobs.ErrCodeInternal, "internal error while parsing")
		}
		w.metrics.JobDuration.Observe(time.Since(start).Seconds())
	}()

	if w.cfg.ImportDisabled {
		w.failJob(ctx, job, jobs.ErrCodeImportDisabled, "imports are disabled")
		return
	}

	d, issues, stats, errCode, errMsg, ok := w.runPipeline(ctx, job)
	if !ok {
		return
	}
	if errCode != "" {
		w.failJob(ctx, job, errCode, errMsg)
		return
	}

	if err := w.persistResult(ctx, job, d, issues, stats); err != nil {
		w.log.Error("persisting draft failed", "job_id", job.ID, "error", err)
		w.failJob(ctx, job, jobs.ErrCodeInternal, "failed to store parse result")
		return
	}

	// Stage first: the ready transition clears the lease, and stage
	// writes are lease-scoped.
	if !w.setStage(ctx, job, jobs.StageDone) {
		return
	}
	if err := w.db.TransitionClaimedJob(ctx, job.ID, w.cfg.Owner, jobs.StateProcessing, jobs.StateReady, nil, nil); err != nil {
		w.log.Warn("could not mark job ready", "job_id", job.ID, "error", err)
		return
	}
	w.metrics.JobsProcessed.WithLabelValues("ready").Inc()
	w.trail.Record(ctx, audit.Event{
		JobID: &job.ID, TrainerID: job.TrainerID, ClientID: job.ClientID,
		Type: audit.TypeJobReady, Payload: stats,
	})
}

// runPipeline does extract -> build -> validate -> adapt. A non-empty
// error code terminates the job as failed; ok=false means the lease was
// lost and the job must be left alone.
func (w *Worker) runPipeline(ctx context.Context, job jobs.Job) (*draft.Draft, []review.Issue, review.Stats, string, string, bool) {
	var stats review.Stats

	if !w.setStage(ctx, job, jobs.StageExtracting) {
		return nil, nil, stats, "", "", false
	}
	artifact, err := w.db.GetArtifact(ctx, job.ID)
	if err != nil {
		return nil, nil, stats, jobs.ErrCodeMissingArtifact, "no stored artifact for job", true
	}
	if max := w.cfg.MaxArtifactBytes; max > 0 && int64(len(artifact.Content)) > max {
		return nil, nil, stats, jobs.ErrCodeOversizedFile,
			fmt.Sprintf("artifact is %d bytes, limit is %d", len(artifact.Content), max), true
	}
	extraction, err := formats.Extract(job.SourceType, artifact.Content)
	if err != nil {
		if errors.Is(err, formats.ErrUnsupportedSource) {
			return nil, nil, stats, jobs.ErrCodeUnsupportedSource, err.Error(), true
		}
		return nil, nil, stats, jobs.ErrCodeExtraction, err.Error(), true
	}

	if !w.setStage(ctx, job, jobs.StageParsing) {
		return nil, nil, stats, "", "", false
	}
	d := draft.Build(extraction.Lines, draft.Options{
		SourceType:       job.SourceType,
		ExtractorVersion: extraction.ExtractorVersion,
		ConfidenceBase:   extraction.ConfidenceBase,
	})

	if !w.setStage(ctx, job, jobs.StageValidating) {
		return nil, nil, stats, "", "", false
	}
	issues, stats := review.Evaluate(d)

	if !w.setStage(ctx, job, jobs.StageAdapting) {
		return nil, nil, stats, "", "", false
	}
	_, planIssues := planout.FromDraft(d)
	issues = append(issues, planIssues...)

	for _, is := range issues {
		w.metrics.DraftIssues.WithLabelValues(string(is.Severity)).Inc()
	}

	// The two non-recoverable gates fail the job outright; every other
	// issue rides on the stored draft for the trainer to resolve.
	for _, is := range issues {
		switch is.Code {
		case review.CodeNoExercises:
			return nil, nil, stats, jobs.ErrCodeNoExercises, is.Message, true
		case review.CodePDFCoverage:
			return nil, nil, stats, jobs.ErrCodePDFCoverage, is.Message, true
		}
	}
	return d, issues, stats, "", "", true
}

// setStage advances the lease-scoped progress stage. False means the
// lease lapsed and another worker owns the job now.
func (w *Worker) setStage(ctx context.Context, job jobs.Job, stage string) bool {
	err := w.db.SetClaimedJobStage(ctx, job.ID, w.cfg.Owner, stage)
	if errors.Is(err, storage.ErrLeaseLost) {
		w.log.Warn("lease lost, abandoning job", "job_id", job.ID, "stage", stage)
		return false
	}
	if err != nil {
		// Stage is cosmetic progress; a transient write failure does not
		// stop the pipeline.
		w.log.Warn("could not set job stage", "job_id", job.ID, "stage", stage, "error", err)
	}
	return true
}

func (w *Worker) persistResult(ctx context.Context, job jobs.Job, d *draft.Draft, issues []review.Issue, stats review.Stats) error {
	draftJSON, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encoding draft: %w", err)
	}
	if issues == nil {
		issues = []review.Issue{}
	}
	issuesJSON, err := json.Marshal(issues)
	if err != nil {
		return fmt.Errorf("encoding issues: %w", err)
	}
	statsJSON, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("encoding stats: %w", err)
	}
	return w.db.SaveDraft(ctx, storage.DraftRecord{
		JobID:    job.ID,
		Draft:    draftJSON,
		Issues:   issuesJSON,
		Stats:    statsJSON,
		Blocking: review.Blocking(issues),
	})
}

func (w *Worker) failJob(ctx context.Context, job jobs.Job, code, msg string) {
	if err := w.db.TransitionClaimedJob(ctx, job.ID, w.cfg.Owner, jobs.StateProcessing, jobs.StateFailed, &code, &msg); err != nil {
		w.log.Warn("could not mark job failed", "job_id", job.ID, "error", err)
		return
	}
	w.metrics.JobsProcessed.WithLabelValues("failed").Inc()
	w.trail.Record(ctx, audit.Event{
		JobID: &job.ID, TrainerID: job.TrainerID, ClientID: job.ClientID,
		Type: audit.TypeJobFailed, Payload: map[string]string{"code": code, "message": msg},
	})
}

// Sweep expires jobs and artifacts past retention. Run on a schedule.
func (w *Worker) Sweep(ctx context.Context) {
	expired, err := w.db.ExpireJobs(ctx)
	if err != nil {
		w.log.Error("expiring jobs failed", "error", err)
	} else if expired > 0 {
		w.metrics.ExpiredJobs.Add(float64(expired))
		w.log.Info("expired jobs", "count", expired)
	}

	deleted, err := w.db.DeleteExpiredArtifacts(ctx)
	if err != nil {
		w.log.Error("deleting expired artifacts failed", "error", err)
	} else if deleted > 0 {
		w.metrics.ArtifactSweeps.Add(float64(deleted))
		w.log.Info("deleted expired artifacts", "count", deleted)
	}
}
