// Package jobs defines the import job model: states, progress stages,
// error codes and the transition rules the storage layer enforces.
package jobs

import (
	"time"

	"github.com/google/uuid"
)

// Job states.
const (
	StateQueued     = "queued"
	StateProcessing = "processing"
	StateReady      = "ready"
	StateFailed     = "failed"
	StateCommitting = "committing"
	StateCommitted  = "committed"
	StateRolledBack = "rolled_back"
	StateExpired    = "expired"
)

// Progress stages reported while a job is processing.
const (
	StageReceived   = "received"
	StageExtracting = "extracting"
	StageParsing    = "parsing"
	StageValidating = "validating"
	StageAdapting   = "adapting"
	StageDone       = "done"
)

// Job-level error codes.
const (
	ErrCodeUnsupportedSource = "unsupported_source_type"
	ErrCodeOversizedFile     = "oversized_file"
	ErrCodeMissingArtifact   = "missing_artifact"
	ErrCodeExtraction        = "extraction_failed"
	ErrCodeNoExercises       = "no_exercises_parsed"
	ErrCodePDFCoverage       = "pdf_coverage_below_minimum"
	ErrCodeImportDisabled    = "import_disabled"
	ErrCodeInternal          = "internal_error"
)

// Job is one import unit: one trainer, one client, one uploaded file.
type Job struct {
	ID           uuid.UUID  `json:"id"`
	TrainerID    int        `json:"trainer_id"`
	ClientID     int        `json:"client_id"`
	State        string     `json:"state"`
	Stage        string     `json:"stage"`
	SourceType   string     `json:"source_type"`
	FileName     string     `json:"file_name"`
	ContentHash  string     `json:"content_hash"`
	ErrorCode    *string    `json:"error_code,omitempty"`
	ErrorMessage *string    `json:"error_message,omitempty"`
	Attempts     int        `json:"attempts"`
	LeaseOwner   *string    `json:"lease_owner,omitempty"`
	LeaseUntil   *time.Time `json:"lease_until,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	ExpiresAt    time.Time  `json:"expires_at"`
}

// transitions lists the legal state edges. Expiry is reachable from
// every state and handled separately.
var transitions = map[string][]string{
	StateQueued:     {StateProcessing, StateFailed},
	StateProcessing: {StateReady, StateFailed, StateQueued},
	StateReady:      {StateCommitting, StateRolledBack},
	StateCommitting: {StateCommitted, StateReady},
	StateCommitted:  {StateRolledBack},
}

// CanTransition reports whether from → to is a legal edge.
func CanTransition(from, to string) bool {
	if to == StateExpired {
		return from != StateExpired
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Terminal reports states that accept no further worker activity.
func Terminal(state string) bool {
	switch state {
	case StateFailed, StateRolledBack, StateExpired:
		return true
	}
	return false
}
