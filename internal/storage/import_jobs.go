package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/claude/planlift/internal/jobs"
)

const jobColumns = `id, trainer_id, client_id, state, stage, source_type, file_name,
	 content_hash, error_code, error_message, attempts, lease_owner, lease_until,
	 created_at, updated_at, expires_at`

// EnqueueJob inserts a new queued job.
func (db *DB) EnqueueJob(ctx context.Context, job jobs.Job) error {
	_, err := db.Pool.Exec(ctx,
		`INSERT INTO import_jobs (id, trainer_id, client_id, state, stage, source_type,
		 file_name, content_hash, expires_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		job.ID, job.TrainerID, job.ClientID, jobs.StateQueued, jobs.StageReceived,
		job.SourceType, job.FileName, job.ContentHash, job.ExpiresAt)
	if err != nil {
		return fmt.Errorf("enqueuing job: %w", err)
	}
	return nil
}

// GetJob fetches one job by id.
func (db *DB) GetJob(ctx context.Context, id uuid.UUID) (*jobs.Job, error) {
	row := db.Pool.QueryRow(ctx,
		`SELECT `+jobColumns+` FROM import_jobs WHERE id = $1`, id)
	j, err := scanJob(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetching job %s: %w", id, err)
	}
	return j, nil
}

// FindActiveJobByHash looks up a live job for the same trainer, client
// and content hash, so re-uploads of an identical file reuse the
// existing job instead of parsing twice.
func (db *DB) FindActiveJobByHash(ctx context.Context, trainerID, clientID int, hash string) (*jobs.Job, error) {
	row := db.Pool.QueryRow(ctx,
		`SELECT `+jobColumns+` FROM import_jobs
		 WHERE trainer_id = $1 AND client_id = $2 AND content_hash = $3
		   AND state IN ('queued','processing','ready')
		 ORDER BY created_at DESC
		 LIMIT 1`,
		trainerID, clientID, hash)
	j, err := scanJob(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("finding job by hash: %w", err)
	}
	return j, nil
}

// ListJobs returns a trainer's most recent jobs, optionally filtered by
// client.
func (db *DB) ListJobs(ctx context.Context, trainerID int, clientID, limit int) ([]jobs.Job, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.Pool.Query(ctx,
		`SELECT `+jobColumns+` FROM import_jobs
		 WHERE trainer_id = $1 AND ($2 = 0 OR client_id = $2)
		 ORDER BY created_at DESC
		 LIMIT $3`,
		trainerID, clientID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing jobs: %w", err)
	}
	defer rows.Close()

	var result []jobs.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning job: %w", err)
		}
		result = append(result, *j)
	}
	return result, rows.Err()
}

// ClaimJobs atomically claims up to limit queued jobs for the given
// worker with a time-boxed lease. Jobs whose previous lease has lapsed
// are claimable again; concurrent workers partition the queue via
// SKIP LOCKED.
func (db *DB) ClaimJobs(ctx context.Context, owner string, limit int, lease time.Duration) ([]jobs.Job, error) {
	rows, err := db.Pool.Query(ctx,
		`UPDATE import_jobs SET
		   state = 'processing',
		   stage = 'received',
		   attempts = attempts + 1,
		   lease_owner = $1,
		   lease_until = now() + $2::interval,
		   updated_at = now()
		 WHERE id IN (
		   SELECT id FROM import_jobs
		   WHERE (state = 'queued'
		          OR (state = 'processing' AND lease_until < now()))
		     AND expires_at > now()
		   ORDER BY created_at
		   LIMIT $3
		   FOR UPDATE SKIP LOCKED
		 )
		 RETURNING `+jobColumns,
		owner, fmt.Sprintf("%d seconds", int(lease.Seconds())), limit)
	if err != nil {
		return nil, fmt.Errorf("claiming jobs: %w", err)
	}
	defer rows.Close()

	var claimed []jobs.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning claimed job: %w", err)
		}
		claimed = append(claimed, *j)
	}
	return claimed, rows.Err()
}

// SetClaimedJobStage updates the progress stage of a job the given
// worker still holds the lease on. A reclaimed job makes the update a
// no-op and reports ErrLeaseLost so the stalled worker can stop.
func (db *DB) SetClaimedJobStage(ctx context.Context, id uuid.UUID, owner, stage string) error {
	tag, err := db.Pool.Exec(ctx,
		`UPDATE import_jobs SET stage = $3, updated_at = now()
		 WHERE id = $1 AND lease_owner = $2 AND state = 'processing'`,
		id, owner, stage)
	if err != nil {
		return fmt.Errorf("setting job stage: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: job %s no longer leased by %s", ErrLeaseLost, id, owner)
	}
	return nil
}

// TransitionJob moves a job from one state to another, enforcing the
// legal edges. The from state is part of the predicate so a lost lease
// or a concurrent transition makes the update a no-op error instead of
// a silent overwrite.
func (db *DB) TransitionJob(ctx context.Context, id uuid.UUID, from, to string, errCode, errMsg *string) error {
	if !jobs.CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrBadState, from, to)
	}
	tag, err := db.Pool.Exec(ctx,
		`UPDATE import_jobs SET
		   state = $3,
		   error_code = $4,
		   error_message = $5,
		   lease_owner = CASE WHEN $3 IN ('ready','failed') THEN NULL ELSE lease_owner END,
		   lease_until = CASE WHEN $3 IN ('ready','failed') THEN NULL ELSE lease_until END,
		   updated_at = now()
		 WHERE id = $1 AND state = $2`,
		id, from, to, errCode, errMsg)
	if err != nil {
		return fmt.Errorf("transitioning job %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: job %s not in state %s", ErrBadState, id, from)
	}
	return nil
}

// TransitionClaimedJob is TransitionJob with the lease owner in the
// predicate: only the worker that holds the lease can move the job.
// Zero rows means either a concurrent transition or a lapsed lease that
// another worker has since reclaimed; both read as ErrLeaseLost.
func (db *DB) TransitionClaimedJob(ctx context.Context, id uuid.UUID, owner, from, to string, errCode, errMsg *string) error {
	if !jobs.CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrBadState, from, to)
	}
	tag, err := db.Pool.Exec(ctx,
		`UPDATE import_jobs SET
		   state = $3,
		   error_code = $4,
		   error_message = $5,
		   lease_owner = CASE WHEN $3 IN ('ready','failed') THEN NULL ELSE lease_owner END,
		   lease_until = CASE WHEN $3 IN ('ready','failed') THEN NULL ELSE lease_until END,
		   updated_at = now()
		 WHERE id = $1 AND state = $2 AND lease_owner = $6`,
		id, from, to, errCode, errMsg, owner)
	if err != nil {
		return fmt.Errorf("transitioning job %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: job %s not in state %s under lease of %s", ErrLeaseLost, id, from, owner)
	}
	return nil
}

// ExpireJobs moves every job past its retention window to expired and
// returns how many were swept.
func (db *DB) ExpireJobs(ctx context.Context) (int64, error) {
	tag, err := db.Pool.Exec(ctx,
		`UPDATE import_jobs SET state = 'expired', updated_at = now()
		 WHERE expires_at < now() AND state <> 'expired'`)
	if err != nil {
		return 0, fmt.Errorf("expiring jobs: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanJob(row pgx.Row) (*jobs.Job, error) {
	var j jobs.Job
	err := row.Scan(&j.ID, &j.TrainerID, &j.ClientID, &j.State, &j.Stage,
		&j.SourceType, &j.FileName, &j.ContentHash, &j.ErrorCode, &j.ErrorMessage,
		&j.Attempts, &j.LeaseOwner, &j.LeaseUntil,
		&j.CreatedAt, &j.UpdatedAt, &j.ExpiresAt)
	if err != nil {
		return nil, err
	}
	return &j, nil
}
