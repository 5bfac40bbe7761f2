package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/claude/planlift/internal/plan"
)

// Commit policies.
const (
	PolicyOverwriteAll  = "overwrite_all"
	PolicyOverwriteDays = "overwrite_days"
	PolicyRollback      = "rollback"
)

// Routine is a client's live plan with its optimistic-lock version.
type Routine struct {
	ClientID  int             `json:"client_id"`
	Plan      json.RawMessage `json:"plan"`
	Version   int64           `json:"version"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// CommitParams parameterizes the atomic routine swap. JobID is nil for
// rollbacks, which reapply a backup outside any import job.
type CommitParams struct {
	JobID           *uuid.UUID
	TrainerID       int
	ClientID        int
	Policy          string
	Days            []string
	ExpectedVersion int64
	IdempotencyKey  string
	PayloadHash     string
	Plan            *plan.WeeklyPlan
}

// CommitResult is what a successful (or replayed) commit returns.
type CommitResult struct {
	CommitID   uuid.UUID `json:"commit_id"`
	BackupID   uuid.UUID `json:"backup_id"`
	NewVersion int64     `json:"new_version"`
	Replayed   bool      `json:"replayed"`
}

// GetRoutine returns a client's live plan. A client with no routine yet
// reads as an empty plan at version 0.
func (db *DB) GetRoutine(ctx context.Context, clientID int) (*Routine, error) {
	var r Routine
	err := db.Pool.QueryRow(ctx,
		`SELECT client_id, plan, version, updated_at FROM routines WHERE client_id = $1`,
		clientID).Scan(&r.ClientID, &r.Plan, &r.Version, &r.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		empty, _ := json.Marshal(plan.New())
		return &Routine{ClientID: clientID, Plan: empty, Version: 0}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetching routine for client %d: %w", clientID, err)
	}
	return &r, nil
}

// CommitRoutine is the single atomic write path into a live routine:
// check the idempotency key, lock the routine row, verify the expected
// version, snapshot a backup, apply the policy and bump the version.
// Replaying an identical commit is a no-op success returning the
// original result.
func (db *DB) CommitRoutine(ctx context.Context, p CommitParams) (*CommitResult, error) {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning commit: %w", err)
	}
	defer tx.Rollback(ctx)

	if res, err := checkIdempotency(ctx, tx, p.ClientID, p.IdempotencyKey, p.PayloadHash); err != nil {
		return nil, err
	} else if res != nil {
		return res, nil
	}

	current, version, err := lockRoutine(ctx, tx, p.ClientID)
	if err != nil {
		return nil, err
	}
	if version != p.ExpectedVersion {
		return nil, fmt.Errorf("%w: expected %d, live is %d", ErrVersionConflict, p.ExpectedVersion, version)
	}

	next, err := applyPolicy(current, p)
	if err != nil {
		return nil, err
	}
	nextJSON, err := json.Marshal(next)
	if err != nil {
		return nil, fmt.Errorf("encoding plan: %w", err)
	}

	backupID := uuid.New()
	currentJSON, err := json.Marshal(current)
	if err != nil {
		return nil, fmt.Errorf("encoding backup: %w", err)
	}
	commitID := uuid.New()
	if _, err := tx.Exec(ctx,
		`INSERT INTO routine_backups (id, client_id, plan, version, commit_id)
		 VALUES ($1,$2,$3,$4,$5)`,
		backupID, p.ClientID, currentJSON, version, commitID); err != nil {
		return nil, fmt.Errorf("snapshotting backup: %w", err)
	}

	newVersion := version + 1
	if _, err := tx.Exec(ctx,
		`INSERT INTO routines (client_id, plan, version)
		 VALUES ($1,$2,$3)
		 ON CONFLICT (client_id) DO UPDATE SET
		   plan = EXCLUDED.plan, version = EXCLUDED.version, updated_at = now()`,
		p.ClientID, nextJSON, newVersion); err != nil {
		return nil, fmt.Errorf("applying plan: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO routine_commits (id, job_id, trainer_id, client_id, policy, days,
		 idempotency_key, payload_hash, old_version, new_version, backup_id)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		commitID, p.JobID, p.TrainerID, p.ClientID, p.Policy, p.Days,
		p.IdempotencyKey, p.PayloadHash, version, newVersion, backupID); err != nil {
		return nil, fmt.Errorf("recording commit: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing routine swap: %w", err)
	}
	return &CommitResult{CommitID: commitID, BackupID: backupID, NewVersion: newVersion}, nil
}

// RollbackRoutine reapplies a backup snapshot through the same atomic
// mechanism as commit.
func (db *DB) RollbackRoutine(ctx context.Context, trainerID, clientID int, backupID uuid.UUID, expectedVersion int64, idempotencyKey string) (*CommitResult, error) {
	var snapshot plan.WeeklyPlan
	var snapJSON json.RawMessage
	err := db.Pool.QueryRow(ctx,
		`SELECT plan FROM routine_backups WHERE id = $1 AND client_id = $2`,
		backupID, clientID).Scan(&snapJSON)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetching backup %s: %w", backupID, err)
	}
	if err := json.Unmarshal(snapJSON, &snapshot); err != nil {
		return nil, fmt.Errorf("decoding backup %s: %w", backupID, err)
	}

	return db.CommitRoutine(ctx, CommitParams{
		TrainerID:       trainerID,
		ClientID:        clientID,
		Policy:          PolicyRollback,
		ExpectedVersion: expectedVersion,
		IdempotencyKey:  idempotencyKey,
		PayloadHash:     "backup:" + backupID.String(),
		Plan:            &snapshot,
	})
}

// ListBackups returns a client's backups, newest first.
func (db *DB) ListBackups(ctx context.Context, clientID, limit int) ([]Routine, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.Pool.Query(ctx,
		`SELECT client_id, plan, version, created_at
		 FROM routine_backups WHERE client_id = $1
		 ORDER BY created_at DESC LIMIT $2`,
		clientID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing backups: %w", err)
	}
	defer rows.Close()

	var result []Routine
	for rows.Next() {
		var r Routine
		if err := rows.Scan(&r.ClientID, &r.Plan, &r.Version, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning backup: %w", err)
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

// GetCommitRecord returns the payload hash and original result of an
// applied commit for (client, idempotency key), for replay checks
// outside the commit transaction.
func (db *DB) GetCommitRecord(ctx context.Context, clientID int, key string) (string, *CommitResult, error) {
	var hash string
	var res CommitResult
	err := db.Pool.QueryRow(ctx,
		`SELECT payload_hash, id, backup_id, new_version FROM routine_commits
		 WHERE client_id = $1 AND idempotency_key = $2`,
		clientID, key).Scan(&hash, &res.CommitID, &res.BackupID, &res.NewVersion)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil, ErrNotFound
	}
	if err != nil {
		return "", nil, fmt.Errorf("fetching commit record: %w", err)
	}
	return hash, &res, nil
}

// checkIdempotency returns the original result when the key was already
// used with the same payload, an error when the payload differs, and
// (nil, nil) for a fresh key.
func checkIdempotency(ctx context.Context, tx pgx.Tx, clientID int, key, payloadHash string) (*CommitResult, error) {
	if key == "" {
		return nil, nil
	}
	var storedHash string
	var res CommitResult
	err := tx.QueryRow(ctx,
		`SELECT payload_hash, id, backup_id, new_version FROM routine_commits
		 WHERE client_id = $1 AND idempotency_key = $2`,
		clientID, key).Scan(&storedHash, &res.CommitID, &res.BackupID, &res.NewVersion)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("checking idempotency key: %w", err)
	}
	if storedHash != payloadHash {
		return nil, fmt.Errorf("%w: key %q", ErrIdempotencyMismatch, key)
	}
	res.Replayed = true
	return &res, nil
}

// lockRoutine reads the live plan under a row lock, creating the empty
// version-0 row for a client that has none yet.
func lockRoutine(ctx context.Context, tx pgx.Tx, clientID int) (*plan.WeeklyPlan, int64, error) {
	emptyJSON, _ := json.Marshal(plan.New())
	if _, err := tx.Exec(ctx,
		`INSERT INTO routines (client_id, plan, version) VALUES ($1,$2,0)
		 ON CONFLICT (client_id) DO NOTHING`,
		clientID, emptyJSON); err != nil {
		return nil, 0, fmt.Errorf("seeding routine row: %w", err)
	}

	var planJSON json.RawMessage
	var version int64
	if err := tx.QueryRow(ctx,
		`SELECT plan, version FROM routines WHERE client_id = $1 FOR UPDATE`,
		clientID).Scan(&planJSON, &version); err != nil {
		return nil, 0, fmt.Errorf("locking routine: %w", err)
	}
	var current plan.WeeklyPlan
	if err := json.Unmarshal(planJSON, &current); err != nil {
		return nil, 0, fmt.Errorf("decoding live plan: %w", err)
	}
	return &current, version, nil
}

// applyPolicy computes the post-commit plan: a full overwrite, or the
// live plan with only the selected days replaced.
func applyPolicy(current *plan.WeeklyPlan, p CommitParams) (*plan.WeeklyPlan, error) {
	switch p.Policy {
	case PolicyOverwriteAll, PolicyRollback:
		return p.Plan, nil
	case PolicyOverwriteDays:
		if len(p.Days) == 0 {
			return nil, fmt.Errorf("overwrite_days commit with empty day list")
		}
		next := &plan.WeeklyPlan{Days: map[string]plan.Day{}}
		for k, d := range current.Days {
			next.Days[k] = d
		}
		for _, k := range p.Days {
			d, ok := p.Plan.Days[k]
			if !ok {
				return nil, fmt.Errorf("day %q selected but absent from the incoming plan", k)
			}
			next.Days[k] = d
		}
		return next, nil
	default:
		return nil, fmt.Errorf("unknown commit policy %q", p.Policy)
	}
}
