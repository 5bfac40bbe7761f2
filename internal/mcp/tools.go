package mcp

import (
	"context"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/claude/planlift/internal/draft"
	"github.com/claude/planlift/internal/formats"
	"github.com/claude/planlift/internal/jobs"
	"github.com/claude/planlift/internal/planout"
	"github.com/claude/planlift/internal/review"
)

// --- Tool definitions ---

var toolListImportJobs = mcp.NewTool("list_import_jobs",
	mcp.WithDescription("List recent import jobs for the authenticated trainer, newest first."),
	mcp.WithNumber("client_id", mcp.Description("Filter by client. Omit for all clients.")),
	mcp.WithNumber("limit", mcp.Description("Maximum jobs to return. Defaults to 20.")),
)

var toolGetImportJob = mcp.NewTool("get_import_job",
	mcp.WithDescription("Get one import job: state, progress stage, source type and error details."),
	mcp.WithString("job_id", mcp.Required(), mcp.Description("Job UUID")),
)

var toolGetDraft = mcp.NewTool("get_draft",
	mcp.WithDescription("Get the parsed draft of a job: days, blocks, exercises with per-field confidence and provenance."),
	mcp.WithString("job_id", mcp.Required(), mcp.Description("Job UUID")),
)

var toolGetDraftIssues = mcp.NewTool("get_draft_issues",
	mcp.WithDescription("Get the validation issues and stats of a job's draft, including whether commit is blocked."),
	mcp.WithString("job_id", mcp.Required(), mcp.Description("Job UUID")),
)

var toolGetAuditTrail = mcp.NewTool("get_audit_trail",
	mcp.WithDescription("Get the audit trail of a job: queue, claim, parse outcome and every commit attempt."),
	mcp.WithString("job_id", mcp.Required(), mcp.Description("Job UUID")),
	mcp.WithNumber("limit", mcp.Description("Maximum events to return. Defaults to 100.")),
)

var toolGetRoutine = mcp.NewTool("get_routine",
	mcp.WithDescription("Get a client's live weekly routine with its version (needed for commits)."),
	mcp.WithNumber("client_id", mcp.Required(), mcp.Description("Client id")),
)

var toolParsePreview = mcp.NewTool("parse_preview",
	mcp.WithDescription("Parse routine text without creating a job. Returns the draft, its issues and the adapted weekly plan. Useful to check how coach shorthand like 'Press banca 3x8' will be read."),
	mcp.WithString("text", mcp.Required(), mcp.Description("Routine text, one exercise or heading per line")),
)

// --- Tool handlers ---

func (h *handlers) listImportJobs(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	clientID := req.GetInt("client_id", 0)
	limit := req.GetInt("limit", 20)
	trainerID := TrainerIDFromContext(ctx)

	list, err := h.db.ListJobs(ctx, trainerID, clientID, limit)
	if err != nil {
		h.log.Error("mcp list_import_jobs", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(list)
}

func (h *handlers) getImportJob(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	job, errRes := h.ownedJob(ctx, req)
	if errRes != nil {
		return errRes, nil
	}
	return jsonResult(job)
}

func (h *handlers) getDraft(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	job, errRes := h.ownedJob(ctx, req)
	if errRes != nil {
		return errRes, nil
	}
	rec, err := h.db.GetDraft(ctx, job.ID)
	if err != nil {
		return mcp.NewToolResultError("no draft for job"), nil
	}
	return jsonResult(map[string]any{"revision": rec.Revision, "draft": rec.Draft})
}

func (h *handlers) getDraftIssues(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	job, errRes := h.ownedJob(ctx, req)
	if errRes != nil {
		return errRes, nil
	}
	rec, err := h.db.GetDraft(ctx, job.ID)
	if err != nil {
		return mcp.NewToolResultError("no draft for job"), nil
	}
	return jsonResult(map[string]any{
		"issues":   rec.Issues,
		"stats":    rec.Stats,
		"blocking": rec.Blocking,
	})
}

func (h *handlers) getAuditTrail(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	job, errRes := h.ownedJob(ctx, req)
	if errRes != nil {
		return errRes, nil
	}
	events, err := h.db.ListAuditEvents(ctx, job.ID, req.GetInt("limit", 100))
	if err != nil {
		h.log.Error("mcp get_audit_trail", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(events)
}

func (h *handlers) getRoutine(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	clientID, err := req.RequireInt("client_id")
	if err != nil {
		return mcp.NewToolResultError("client_id parameter is required"), nil
	}
	routine, err := h.db.GetRoutine(ctx, clientID)
	if err != nil {
		h.log.Error("mcp get_routine", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(routine)
}

func (h *handlers) parsePreview(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError("text parameter is required"), nil
	}

	extraction, err := formats.Extract(formats.TypeText, []byte(text))
	if err != nil {
		return mcp.NewToolResultError("extraction failed: " + err.Error()), nil
	}
	d := draft.Build(extraction.Lines, draft.Options{
		SourceType:       formats.TypeText,
		ExtractorVersion: extraction.ExtractorVersion,
		ConfidenceBase:   extraction.ConfidenceBase,
	})
	issues, stats := review.Evaluate(d)
	weekly, planIssues := planout.FromDraft(d)
	issues = append(issues, planIssues...)

	return jsonResult(map[string]any{
		"draft":    d,
		"plan":     weekly,
		"issues":   issues,
		"stats":    stats,
		"blocking": review.Blocking(issues),
	})
}

// ownedJob parses job_id and enforces trainer ownership. A job owned by
// another trainer reads as not found.
func (h *handlers) ownedJob(ctx context.Context, req mcp.CallToolRequest) (*jobs.Job, *mcp.CallToolResult) {
	idStr, err := req.RequireString("job_id")
	if err != nil {
		return nil, mcp.NewToolResultError("job_id parameter is required")
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, mcp.NewToolResultError("invalid job_id")
	}
	job, err := h.db.GetJob(ctx, id)
	if err != nil || job.TrainerID != TrainerIDFromContext(ctx) {
		return nil, mcp.NewToolResultError("job not found")
	}
	return job, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	result, err := mcp.NewToolResultJSON(v)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}
