package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// AuditEvent is one append-only trail entry.
type AuditEvent struct {
	ID        int64           `json:"id"`
	JobID     *uuid.UUID      `json:"job_id,omitempty"`
	TrainerID int             `json:"trainer_id"`
	ClientID  int             `json:"client_id"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// InsertAuditEvent appends one event to the trail.
func (db *DB) InsertAuditEvent(ctx context.Context, ev AuditEvent) error {
	_, err := db.Pool.Exec(ctx,
		`INSERT INTO audit_events (job_id, trainer_id, client_id, type, payload)
		 VALUES ($1,$2,$3,$4,$5)`,
		ev.JobID, ev.TrainerID, ev.ClientID, ev.Type, ev.Payload)
	if err != nil {
		return fmt.Errorf("inserting audit event: %w", err)
	}
	return nil
}

// ListAuditEvents returns the trail for one job, oldest first.
func (db *DB) ListAuditEvents(ctx context.Context, jobID uuid.UUID, limit int) ([]AuditEvent, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := db.Pool.Query(ctx,
		`SELECT id, job_id, trainer_id, client_id, type, payload, created_at
		 FROM audit_events WHERE job_id = $1
		 ORDER BY id
		 LIMIT $2`,
		jobID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing audit events: %w", err)
	}
	defer rows.Close()

	var result []AuditEvent
	for rows.Next() {
		var ev AuditEvent
		if err := rows.Scan(&ev.ID, &ev.JobID, &ev.TrainerID, &ev.ClientID,
			&ev.Type, &ev.Payload, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning audit event: %w", err)
		}
		result = append(result, ev)
	}
	return result, rows.Err()
}
