// Package audit appends the import trail: every job event and commit
// attempt, success or failure. Sinks are best-effort; a failing sink is
// logged and never blocks the pipeline.
package audit

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"

	"github.com/claude/planlift/internal/storage"
)

// Event types written to the trail.
const (
	TypeJobQueued      = "job_queued"
	TypeJobClaimed     = "job_claimed"
	TypeJobReady       = "job_ready"
	TypeJobFailed      = "job_failed"
	TypeDraftEdited    = "draft_edited"
	TypeCommitAttempt  = "commit_attempted"
	TypeCommitApplied  = "commit_applied"
	TypeCommitRejected = "commit_rejected"
	TypeRollback       = "rollback_applied"
	TypeWorkerPanic    = "worker_panic"
)

// Event is one trail entry before persistence.
type Event struct {
	JobID     *uuid.UUID `json:"job_id,omitempty"`
	TrainerID int        `json:"trainer_id"`
	ClientID  int        `json:"client_id"`
	Type      string     `json:"type"`
	Payload   any        `json:"payload,omitempty"`
}

// Sink receives events. Implementations must be safe for concurrent use.
type Sink interface {
	Record(ctx context.Context, ev Event) error
}

// Trail fans an event out to every configured sink, logging failures
// instead of returning them.
type Trail struct {
	sinks []Sink
	log   *slog.Logger
}

// NewTrail builds a best-effort trail over the given sinks.
func NewTrail(log *slog.Logger, sinks ...Sink) *Trail {
	return &Trail{sinks: sinks, log: log}
}

// Record delivers the event to every sink. Never fails.
func (t *Trail) Record(ctx context.Context, ev Event) {
	for _, s := range t.sinks {
		if err := s.Record(ctx, ev); err != nil {
			t.log.Warn("audit sink failed", "type", ev.Type, "error", err)
		}
	}
}

// PostgresSink writes events into the audit_events table.
type PostgresSink struct {
	DB *storage.DB
}

// Record implements Sink.
func (s *PostgresSink) Record(ctx context.Context, ev Event) error {
	var payload json.RawMessage
	if ev.Payload != nil {
		b, err := json.Marshal(ev.Payload)
		if err != nil {
			return err
		}
		payload = b
	}
	return s.DB.InsertAuditEvent(ctx, storage.AuditEvent{
		JobID:     ev.JobID,
		TrainerID: ev.TrainerID,
		ClientID:  ev.ClientID,
		Type:      ev.Type,
		Payload:   payload,
	})
}
