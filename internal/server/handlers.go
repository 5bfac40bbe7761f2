package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/claude/planlift/internal/audit"
	"github.com/claude/planlift/internal/commit"
	"github.com/claude/planlift/internal/draft"
	"github.com/claude/planlift/internal/jobs"
	"github.com/claude/planlift/internal/planout"
	"github.com/claude/planlift/internal/review"
	"github.com/claude/planlift/internal/storage"
)

func (s *Server) handleListImports(w http.ResponseWriter, r *http.Request) {
	clientID, _ := strconv.Atoi(r.URL.Query().Get("client_id"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	list, err := s.db.ListJobs(r.Context(), trainerFrom(r), clientID, limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"jobs": list})
}

func (s *Server) handleGetImport(w http.ResponseWriter, r *http.Request) {
	job, ok := s.ownedJob(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"job": job})
}

func (s *Server) handleGetDraft(w http.ResponseWriter, r *http.Request) {
	job, ok := s.ownedJob(w, r)
	if !ok {
		return
	}
	rec, err := s.db.GetDraft(r.Context(), job.ID)
	if errors.Is(err, storage.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no draft yet"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// handlePatchDraft applies a trainer edit: the edited draft replaces the
// stored one wholesale and is re-validated, so issue state always
// reflects the current content.
func (s *Server) handlePatchDraft(w http.ResponseWriter, r *http.Request) {
	job, ok := s.ownedJob(w, r)
	if !ok {
		return
	}
	var req struct {
		ExpectedRevision int             `json:"expected_revision"`
		Draft            json.RawMessage `json:"draft"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}

	var d draft.Draft
	if err := json.Unmarshal(req.Draft, &d); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid draft: " + err.Error()})
		return
	}

	issues, stats := review.Evaluate(&d)
	_, planIssues := planout.FromDraft(&d)
	issues = append(issues, planIssues...)
	issuesJSON, _ := json.Marshal(issues)
	statsJSON, _ := json.Marshal(stats)

	rev, err := s.db.ReplaceDraft(r.Context(), job.ID, req.ExpectedRevision,
		req.Draft, issuesJSON, statsJSON, review.Blocking(issues))
	if errors.Is(err, storage.ErrVersionConflict) {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "draft was edited concurrently, reload"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	s.trail.Record(r.Context(), audit.Event{
		JobID: &job.ID, TrainerID: job.TrainerID, ClientID: job.ClientID,
		Type: audit.TypeDraftEdited, Payload: map[string]int{"revision": rev},
	})
	writeJSON(w, http.StatusOK, map[string]any{
		"revision": rev,
		"issues":   issues,
		"stats":    stats,
		"blocking": review.Blocking(issues),
	})
}

func (s *Server) handleCommit(w http.ResponseWriter, r *http.Request) {
	job, ok := s.ownedJob(w, r)
	if !ok {
		return
	}
	var req struct {
		Policy          string   `json:"policy"`
		Days            []string `json:"days,omitempty"`
		ExpectedVersion int64    `json:"expected_version"`
		IdempotencyKey  string   `json:"idempotency_key"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	if req.IdempotencyKey == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "idempotency_key is required"})
		return
	}

	res, err := s.commits.Commit(r.Context(), commit.Request{
		JobID:           job.ID,
		TrainerID:       job.TrainerID,
		ClientID:        job.ClientID,
		Policy:          req.Policy,
		Days:            req.Days,
		ExpectedVersion: req.ExpectedVersion,
		IdempotencyKey:  req.IdempotencyKey,
	})
	if err != nil {
		s.writeCommitError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleRollback(w http.ResponseWriter, r *http.Request) {
	job, ok := s.ownedJob(w, r)
	if !ok {
		return
	}
	var req struct {
		BackupID        uuid.UUID `json:"backup_id"`
		ExpectedVersion int64     `json:"expected_version"`
		IdempotencyKey  string    `json:"idempotency_key"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}

	res, err := s.commits.Rollback(r.Context(), commit.Request{
		JobID:           job.ID,
		TrainerID:       job.TrainerID,
		ClientID:        job.ClientID,
		ExpectedVersion: req.ExpectedVersion,
		IdempotencyKey:  req.IdempotencyKey,
	}, req.BackupID)
	if err != nil {
		s.writeCommitError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleAuditTrail(w http.ResponseWriter, r *http.Request) {
	job, ok := s.ownedJob(w, r)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	events, err := s.db.ListAuditEvents(r.Context(), job.ID, limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": events})
}

func (s *Server) handleGetRoutine(w http.ResponseWriter, r *http.Request) {
	clientID, err := strconv.Atoi(chi.URLParam(r, "clientID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid client id"})
		return
	}
	routine, err := s.db.GetRoutine(r.Context(), clientID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, routine)
}

func (s *Server) handleListBackups(w http.ResponseWriter, r *http.Request) {
	clientID, err := strconv.Atoi(chi.URLParam(r, "clientID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid client id"})
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	backups, err := s.db.ListBackups(r.Context(), clientID, limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"backups": backups})
}

// ownedJob loads the job from the URL and enforces trainer ownership.
func (s *Server) ownedJob(w http.ResponseWriter, r *http.Request) (*jobs.Job, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid job id"})
		return nil, false
	}
	job, err := s.db.GetJob(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "job not found"})
		return nil, false
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return nil, false
	}
	if job.TrainerID != trainerFrom(r) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "job not found"})
		return nil, false
	}
	return job, true
}

func (s *Server) writeCommitError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storage.ErrVersionConflict):
		writeJSON(w, http.StatusConflict, map[string]string{"error": "routine changed since preview, reload and retry"})
	case errors.Is(err, storage.ErrIdempotencyMismatch):
		writeJSON(w, http.StatusConflict, map[string]string{"error": "idempotency key already used with a different payload"})
	case errors.Is(err, commit.ErrBlocked):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": "draft has blocking issues"})
	case errors.Is(err, commit.ErrNotReady), errors.Is(err, storage.ErrBadState):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.Is(err, commit.ErrNotOwner), errors.Is(err, commit.ErrBadTarget):
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "forbidden"})
	case errors.Is(err, storage.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	default:
		s.log.Error("commit failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
