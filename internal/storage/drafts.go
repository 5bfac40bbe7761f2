package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// DraftRecord is the persisted parse result of one job: the draft
// document plus its issues and stats, all stored as JSON blobs. Revision
// counts trainer edits; revision 0 is the parser's output.
type DraftRecord struct {
	JobID     uuid.UUID       `json:"job_id"`
	Revision  int             `json:"revision"`
	Draft     json.RawMessage `json:"draft"`
	Issues    json.RawMessage `json:"issues"`
	Stats     json.RawMessage `json:"stats"`
	Blocking  bool            `json:"blocking"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// SaveDraft stores the parser's output for a job, replacing any earlier
// result from a re-claimed job.
func (db *DB) SaveDraft(ctx context.Context, rec DraftRecord) error {
	_, err := db.Pool.Exec(ctx,
		`INSERT INTO import_drafts (job_id, revision, draft, issues, stats, blocking)
		 VALUES ($1, 0, $2, $3, $4, $5)
		 ON CONFLICT (job_id) DO UPDATE SET
		   revision = 0,
		   draft = EXCLUDED.draft,
		   issues = EXCLUDED.issues,
		   stats = EXCLUDED.stats,
		   blocking = EXCLUDED.blocking,
		   updated_at = now()`,
		rec.JobID, rec.Draft, rec.Issues, rec.Stats, rec.Blocking)
	if err != nil {
		return fmt.Errorf("saving draft: %w", err)
	}
	return nil
}

// GetDraft fetches the stored draft for a job.
func (db *DB) GetDraft(ctx context.Context, jobID uuid.UUID) (*DraftRecord, error) {
	var rec DraftRecord
	err := db.Pool.QueryRow(ctx,
		`SELECT job_id, revision, draft, issues, stats, blocking, created_at, updated_at
		 FROM import_drafts WHERE job_id = $1`, jobID).
		Scan(&rec.JobID, &rec.Revision, &rec.Draft, &rec.Issues, &rec.Stats,
			&rec.Blocking, &rec.CreatedAt, &rec.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetching draft for job %s: %w", jobID, err)
	}
	return &rec, nil
}

// ReplaceDraft applies a trainer edit: the draft is replaced wholesale
// with freshly evaluated issues and stats, and the revision bumps. The
// expected revision guards against two editors clobbering each other.
func (db *DB) ReplaceDraft(ctx context.Context, jobID uuid.UUID, expectedRevision int, draft, issues, stats json.RawMessage, blocking bool) (int, error) {
	var newRev int
	err := db.Pool.QueryRow(ctx,
		`UPDATE import_drafts SET
		   revision = revision + 1,
		   draft = $3, issues = $4, stats = $5, blocking = $6,
		   updated_at = now()
		 WHERE job_id = $1 AND revision = $2
		 RETURNING revision`,
		jobID, expectedRevision, draft, issues, stats, blocking).Scan(&newRev)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrVersionConflict
	}
	if err != nil {
		return 0, fmt.Errorf("replacing draft for job %s: %w", jobID, err)
	}
	return newRev, nil
}
