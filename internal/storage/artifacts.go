package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Artifact is the raw uploaded payload for one job. Content is opaque
// to storage; the format adapters interpret it.
type Artifact struct {
	JobID     uuid.UUID `json:"job_id"`
	MimeType  string    `json:"mime_type"`
	FileName  string    `json:"file_name"`
	Content   []byte    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// PutArtifact stores the uploaded bytes for a job.
func (db *DB) PutArtifact(ctx context.Context, a Artifact) error {
	_, err := db.Pool.Exec(ctx,
		`INSERT INTO import_artifacts (job_id, mime_type, file_name, content, expires_at)
		 VALUES ($1,$2,$3,$4,$5)
		 ON CONFLICT (job_id) DO NOTHING`,
		a.JobID, a.MimeType, a.FileName, a.Content, a.ExpiresAt)
	if err != nil {
		return fmt.Errorf("storing artifact: %w", err)
	}
	return nil
}

// GetArtifact fetches the stored payload for a job.
func (db *DB) GetArtifact(ctx context.Context, jobID uuid.UUID) (*Artifact, error) {
	var a Artifact
	err := db.Pool.QueryRow(ctx,
		`SELECT job_id, mime_type, file_name, content, created_at, expires_at
		 FROM import_artifacts WHERE job_id = $1`, jobID).
		Scan(&a.JobID, &a.MimeType, &a.FileName, &a.Content, &a.CreatedAt, &a.ExpiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetching artifact for job %s: %w", jobID, err)
	}
	return &a, nil
}

// DeleteExpiredArtifacts removes payloads past their retention window
// and returns how many were removed.
func (db *DB) DeleteExpiredArtifacts(ctx context.Context) (int64, error) {
	tag, err := db.Pool.Exec(ctx,
		`DELETE FROM import_artifacts WHERE expires_at < now()`)
	if err != nil {
		return 0, fmt.Errorf("deleting expired artifacts: %w", err)
	}
	return tag.RowsAffected(), nil
}
