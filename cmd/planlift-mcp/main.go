package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"github.com/mark3labs/mcp-go/server"

	"github.com/claude/planlift/internal/config"
	mcpserver "github.com/claude/planlift/internal/mcp"
	"github.com/claude/planlift/internal/storage"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	trainerID := flag.Int("trainer", 1, "trainer id for tool calls")
	flag.Parse()

	// stdout carries the MCP protocol; logs go to stderr.
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	db, err := storage.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Error("failed to connect database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	s := mcpserver.New(db, Version, log)

	log.Info("MCP server starting on stdio", "trainer", *trainerID)
	if err := server.ServeStdio(s, server.WithStdioContextFunc(func(ctx context.Context) context.Context {
		return mcpserver.WithTrainerID(ctx, *trainerID)
	})); err != nil {
		log.Error("mcp server error", "error", err)
		os.Exit(1)
	}
}
