// Package commit is the only path that turns a ready draft into live
// routine data. It enforces the preconditions, delegates the atomic
// swap to storage and distinguishes recoverable conflicts from internal
// failures.
package commit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/google/uuid"

	"github.com/claude/planlift/internal/audit"
	"github.com/claude/planlift/internal/draft"
	"github.com/claude/planlift/internal/jobs"
	"github.com/claude/planlift/internal/observability"
	"github.com/claude/planlift/internal/plan"
	"github.com/claude/planlift/internal/planout"
	"github.com/claude/planlift/internal/review"
	"github.com/claude/planlift/internal/storage"
)

// Precondition errors. Storage's ErrVersionConflict and
// ErrIdempotencyMismatch pass through unchanged.
var (
	ErrNotOwner  = errors.New("job belongs to a different trainer")
	ErrBadTarget = errors.New("job targets a different client")
	ErrNotReady  = errors.New("job has no committable draft")
	ErrBlocked   = errors.New("draft has blocking issues")
)

// Request parameterizes one commit attempt.
type Request struct {
	JobID           uuid.UUID
	TrainerID       int
	ClientID        int
	Policy          string
	Days            []string
	ExpectedVersion int64
	IdempotencyKey  string
}

// Service wires the commit path.
type Service struct {
	db      *storage.DB
	trail   *audit.Trail
	metrics *observability.Metrics
	log     *slog.Logger
}

// NewService builds a commit service.
func NewService(db *storage.DB, trail *audit.Trail, m *observability.Metrics, log *slog.Logger) *Service {
	return &Service{db: db, trail: trail, metrics: m, log: log}
}

// Commit validates the preconditions and applies the draft's plan to
// the client's live routine. Every attempt is audited.
func (s *Service) Commit(ctx context.Context, req Request) (*storage.CommitResult, error) {
	s.trail.Record(ctx, audit.Event{
		JobID: &req.JobID, TrainerID: req.TrainerID, ClientID: req.ClientID,
		Type: audit.TypeCommitAttempt,
		Payload: map[string]any{
			"policy": req.Policy, "days": req.Days, "expected_version": req.ExpectedVersion,
		},
	})

	job, weekly, err := s.preconditions(ctx, req)
	if err != nil {
		// A retried request that already committed replays the original
		// result instead of failing on the state check.
		if errors.Is(err, ErrNotReady) && job != nil && job.State == jobs.StateCommitted && req.IdempotencyKey != "" {
			res, rerr := s.replayCommitted(ctx, req)
			if rerr == nil {
				s.metrics.CommitAttempts.WithLabelValues("replayed").Inc()
				return res, nil
			}
			if !errors.Is(rerr, storage.ErrNotFound) {
				err = rerr
			}
		}
		s.reject(ctx, req, err)
		return nil, err
	}

	if err := s.db.TransitionJob(ctx, job.ID, jobs.StateReady, jobs.StateCommitting, nil, nil); err != nil {
		s.reject(ctx, req, err)
		return nil, err
	}

	res, err := s.db.CommitRoutine(ctx, storage.CommitParams{
		JobID:           &req.JobID,
		TrainerID:       req.TrainerID,
		ClientID:        req.ClientID,
		Policy:          req.Policy,
		Days:            req.Days,
		ExpectedVersion: req.ExpectedVersion,
		IdempotencyKey:  req.IdempotencyKey,
		PayloadHash:     PayloadHash(req.Policy, req.Days, weekly),
		Plan:            weekly,
	})
	if err != nil {
		// Back to ready so the trainer can reload and retry.
		if terr := s.db.TransitionJob(ctx, job.ID, jobs.StateCommitting, jobs.StateReady, nil, nil); terr != nil {
			s.log.Error("could not return job to ready", "job_id", job.ID, "error", terr)
		}
		s.reject(ctx, req, err)
		return nil, classify(err)
	}

	if err := s.db.TransitionJob(ctx, job.ID, jobs.StateCommitting, jobs.StateCommitted, nil, nil); err != nil {
		s.log.Error("commit applied but job state update failed", "job_id", job.ID, "error", err)
	}
	s.metrics.CommitAttempts.WithLabelValues("applied").Inc()
	s.trail.Record(ctx, audit.Event{
		JobID: &req.JobID, TrainerID: req.TrainerID, ClientID: req.ClientID,
		Type: audit.TypeCommitApplied, Payload: res,
	})
	return res, nil
}

// Rollback reapplies a backup snapshot and marks the job rolled back.
func (s *Service) Rollback(ctx context.Context, req Request, backupID uuid.UUID) (*storage.CommitResult, error) {
	job, err := s.db.GetJob(ctx, req.JobID)
	if err != nil {
		return nil, err
	}
	if job.TrainerID != req.TrainerID {
		return nil, ErrNotOwner
	}
	if job.ClientID != req.ClientID {
		return nil, ErrBadTarget
	}

	res, err := s.db.RollbackRoutine(ctx, req.TrainerID, req.ClientID, backupID, req.ExpectedVersion, req.IdempotencyKey)
	if err != nil {
		s.reject(ctx, req, err)
		return nil, classify(err)
	}

	if err := s.db.TransitionJob(ctx, job.ID, job.State, jobs.StateRolledBack, nil, nil); err != nil {
		s.log.Error("rollback applied but job state update failed", "job_id", job.ID, "error", err)
	}
	s.metrics.CommitAttempts.WithLabelValues("rolled_back").Inc()
	s.trail.Record(ctx, audit.Event{
		JobID: &req.JobID, TrainerID: req.TrainerID, ClientID: req.ClientID,
		Type: audit.TypeRollback, Payload: res,
	})
	return res, nil
}

// replayCommitted resolves a retry against a job that already committed:
// re-derive the request's payload hash from the stored draft and return
// the recorded result when it matches the hash on file.
func (s *Service) replayCommitted(ctx context.Context, req Request) (*storage.CommitResult, error) {
	storedHash, stored, err := s.db.GetCommitRecord(ctx, req.ClientID, req.IdempotencyKey)
	if err != nil {
		return nil, err
	}

	rec, err := s.db.GetDraft(ctx, req.JobID)
	if err != nil {
		return nil, fmt.Errorf("loading draft for replay: %w", err)
	}
	var d draft.Draft
	if err := json.Unmarshal(rec.Draft, &d); err != nil {
		return nil, fmt.Errorf("decoding stored draft: %w", err)
	}
	weekly, _ := planout.FromDraft(&d)
	return matchReplay(storedHash, stored, req, weekly)
}

// matchReplay compares a retried request against the recorded commit.
// A matching payload replays the original result; a diverging one is an
// idempotency mismatch.
func matchReplay(storedHash string, stored *storage.CommitResult, req Request, weekly *plan.WeeklyPlan) (*storage.CommitResult, error) {
	if PayloadHash(req.Policy, req.Days, weekly) != storedHash {
		return nil, fmt.Errorf("%w: key %q", storage.ErrIdempotencyMismatch, req.IdempotencyKey)
	}
	res := *stored
	res.Replayed = true
	return &res, nil
}

// preconditions checks ownership and draft readiness, and adapts the
// stored draft into the plan to commit.
func (s *Service) preconditions(ctx context.Context, req Request) (*jobs.Job, *plan.WeeklyPlan, error) {
	job, err := s.db.GetJob(ctx, req.JobID)
	if err != nil {
		return nil, nil, err
	}
	if job.TrainerID != req.TrainerID {
		return nil, nil, ErrNotOwner
	}
	if job.ClientID != req.ClientID {
		return nil, nil, ErrBadTarget
	}
	if job.State != jobs.StateReady {
		return job, nil, fmt.Errorf("%w: job is %s", ErrNotReady, job.State)
	}

	rec, err := s.db.GetDraft(ctx, job.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrNotReady, err)
	}
	if rec.Blocking {
		return nil, nil, ErrBlocked
	}

	var d draft.Draft
	if err := json.Unmarshal(rec.Draft, &d); err != nil {
		return nil, nil, fmt.Errorf("decoding stored draft: %w", err)
	}
	weekly, issues := planout.FromDraft(&d)
	if weekly == nil || review.Blocking(issues) {
		return nil, nil, ErrBlocked
	}
	return job, weekly, nil
}

func (s *Service) reject(ctx context.Context, req Request, err error) {
	s.metrics.CommitAttempts.WithLabelValues(label(err)).Inc()
	s.trail.Record(ctx, audit.Event{
		JobID: &req.JobID, TrainerID: req.TrainerID, ClientID: req.ClientID,
		Type: audit.TypeCommitRejected, Payload: map[string]string{"reason": label(err)},
	})
}

// classify keeps conflict-family errors recoverable and hides anything
// unexpected behind a generic message; the original only gets logged.
func classify(err error) error {
	switch {
	case errors.Is(err, storage.ErrVersionConflict),
		errors.Is(err, storage.ErrIdempotencyMismatch),
		errors.Is(err, storage.ErrNotFound):
		return err
	default:
		return fmt.Errorf("commit failed internally")
	}
}

func label(err error) string {
	switch {
	case errors.Is(err, storage.ErrVersionConflict):
		return "conflict"
	case errors.Is(err, storage.ErrIdempotencyMismatch):
		return "idempotency_mismatch"
	case errors.Is(err, ErrBlocked):
		return "blocked"
	case errors.Is(err, ErrNotOwner), errors.Is(err, ErrBadTarget):
		return "forbidden"
	case errors.Is(err, ErrNotReady):
		return "not_ready"
	default:
		return "internal"
	}
}

// PayloadHash derives the idempotency payload fingerprint: sha256 over
// the canonical JSON of policy, sorted day list and plan.
func PayloadHash(policy string, days []string, weekly *plan.WeeklyPlan) string {
	sorted := append([]string(nil), days...)
	sort.Strings(sorted)
	canonical, _ := json.Marshal(struct {
		Policy string           `json:"policy"`
		Days   []string         `json:"days"`
		Plan   *plan.WeeklyPlan `json:"plan"`
	}{policy, sorted, weekly})
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:])
}
