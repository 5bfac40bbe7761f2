package server

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/claude/planlift/internal/audit"
	"github.com/claude/planlift/internal/formats"
	"github.com/claude/planlift/internal/jobs"
	"github.com/claude/planlift/internal/storage"
)

// handleCreateImport accepts a multipart upload and enqueues a job.
// Re-uploading a byte-identical file for the same client while a live
// job exists returns that job instead of parsing twice.
func (s *Server) handleCreateImport(w http.ResponseWriter, r *http.Request) {
	if s.cfg.ImportDisabled {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "imports are disabled"})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.cfg.MaxUploadBytes); err != nil {
		writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "file exceeds upload limit"})
		return
	}
	clientID, err := strconv.Atoi(r.FormValue("client_id"))
	if err != nil || clientID <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "client_id is required"})
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "file is required"})
		return
	}
	defer file.Close()
	content, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "reading upload: " + err.Error()})
		return
	}

	sourceType := formats.Detect(header.Filename, content)
	s.enqueue(w, r, clientID, sourceType, header.Filename, content)
}

// handlePasteImport accepts raw routine text pasted from a chat.
func (s *Server) handlePasteImport(w http.ResponseWriter, r *http.Request) {
	if s.cfg.ImportDisabled {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "imports are disabled"})
		return
	}

	var req struct {
		ClientID int    `json:"client_id"`
		Text     string `json:"text"`
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	if req.ClientID <= 0 || req.Text == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "client_id and text are required"})
		return
	}

	s.enqueue(w, r, req.ClientID, formats.TypeText, "paste.txt", []byte(req.Text))
}

func (s *Server) enqueue(w http.ResponseWriter, r *http.Request, clientID int, sourceType, fileName string, content []byte) {
	trainerID := trainerFrom(r)
	sum := sha256.Sum256(content)
	hash := hex.EncodeToString(sum[:])

	if existing, err := s.db.FindActiveJobByHash(r.Context(), trainerID, clientID, hash); err == nil {
		writeJSON(w, http.StatusOK, map[string]any{"job": existing, "deduplicated": true})
		return
	} else if !errors.Is(err, storage.ErrNotFound) {
		s.log.Error("hash lookup failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	job := jobs.Job{
		ID:          uuid.New(),
		TrainerID:   trainerID,
		ClientID:    clientID,
		SourceType:  sourceType,
		FileName:    fileName,
		ContentHash: hash,
		ExpiresAt:   time.Now().Add(s.cfg.Retention),
	}
	if err := s.db.EnqueueJob(r.Context(), job); err != nil {
		s.log.Error("enqueue failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	if err := s.db.PutArtifact(r.Context(), storage.Artifact{
		JobID:     job.ID,
		MimeType:  sourceType,
		FileName:  fileName,
		Content:   content,
		ExpiresAt: job.ExpiresAt,
	}); err != nil {
		s.log.Error("storing artifact failed", "job_id", job.ID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	s.metrics.JobsEnqueued.Inc()
	s.trail.Record(r.Context(), audit.Event{
		JobID: &job.ID, TrainerID: trainerID, ClientID: clientID,
		Type: audit.TypeJobQueued,
		Payload: map[string]string{
			"source_type": sourceType, "file_name": fileName, "content_hash": hash,
		},
	})
	writeJSON(w, http.StatusAccepted, map[string]any{"job": job})
}
