// Package mcp exposes the import pipeline to assistants: job inspection,
// draft and issue retrieval, audit trail queries and an offline parse
// preview.
package mcp

import (
	"context"
	"log/slog"

	"github.com/mark3labs/mcp-go/server"

	"github.com/claude/planlift/internal/storage"
)

type contextKey int

const trainerIDKey contextKey = iota

// TrainerIDFromContext extracts the trainer ID injected by the transport layer.
func TrainerIDFromContext(ctx context.Context) int {
	if id, ok := ctx.Value(trainerIDKey).(int); ok {
		return id
	}
	return 1
}

// WithTrainerID returns a context with the given trainer ID.
func WithTrainerID(ctx context.Context, trainerID int) context.Context {
	return context.WithValue(ctx, trainerIDKey, trainerID)
}

// New creates an MCP server with all tools registered.
func New(db *storage.DB, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("PlanLift", version,
		server.WithToolCapabilities(false),
		server.WithInstructions("PlanLift routine import server. Inspect import jobs, parsed drafts and their issues, query the audit trail, and preview how routine text parses. All data is scoped to the authenticated trainer."),
	)

	h := &handlers{db: db, log: log}

	s.AddTools(
		server.ServerTool{Tool: toolListImportJobs, Handler: h.listImportJobs},
		server.ServerTool{Tool: toolGetImportJob, Handler: h.getImportJob},
		server.ServerTool{Tool: toolGetDraft, Handler: h.getDraft},
		server.ServerTool{Tool: toolGetDraftIssues, Handler: h.getDraftIssues},
		server.ServerTool{Tool: toolGetAuditTrail, Handler: h.getAuditTrail},
		server.ServerTool{Tool: toolGetRoutine, Handler: h.getRoutine},
		server.ServerTool{Tool: toolParsePreview, Handler: h.parsePreview},
	)

	return s
}

// handlers holds dependencies for MCP tool handlers.
type handlers struct {
	db  *storage.DB
	log *slog.Logger
}
