package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/claude/planlift/internal/upload"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	serverURL := flag.String("server", "", "PlanLift server URL (e.g. https://planlift.tail1234.ts.net)")
	routinesPath := flag.String("path", "", "path to routines directory (one subdirectory per client id)")
	apiKey := flag.String("api-key", os.Getenv("PLANLIFT_AUTH_API_KEY"), "API key (defaults to PLANLIFT_AUTH_API_KEY)")
	trainerID := flag.Int("trainer", 1, "trainer id")
	dryRun := flag.Bool("dry-run", false, "scan and report but don't send to server")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Println("planlift-upload", Version)
		return
	}

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if *routinesPath == "" {
		fmt.Fprintf(os.Stderr, "Usage: planlift-upload -server <URL> -path <routines dir> [-trainer N] [-dry-run]\n\n")
		flag.PrintDefaults()
		os.Exit(1)
	}
	if !*dryRun {
		if *serverURL == "" {
			fmt.Fprintf(os.Stderr, "Error: -server is required (or use -dry-run)\n")
			os.Exit(1)
		}
		if *apiKey == "" {
			fmt.Fprintf(os.Stderr, "Error: -api-key or PLANLIFT_AUTH_API_KEY is required (or use -dry-run)\n")
			os.Exit(1)
		}
	}

	// Strip trailing slash from server URL
	*serverURL = strings.TrimRight(*serverURL, "/")

	info, err := os.Stat(*routinesPath)
	if err != nil || !info.IsDir() {
		log.Error("routines directory not found", "path", *routinesPath)
		os.Exit(1)
	}

	// Open state database
	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Error("failed to get home directory", "error", err)
		os.Exit(1)
	}
	stateDir := filepath.Join(homeDir, ".planlift-upload")

	state, err := upload.OpenStateDB(stateDir)
	if err != nil {
		log.Error("failed to open state database", "error", err)
		os.Exit(1)
	}
	defer state.Close()

	// Create client (nil-safe in dry-run mode)
	var client *upload.Client
	if !*dryRun {
		client = upload.NewClient(*serverURL, *apiKey, *trainerID)
	}

	if *dryRun {
		log.Info("DRY RUN mode — files will be scanned but not sent")
	}

	uploader := upload.New(client, state, *routinesPath, *dryRun, log)
	stats, err := uploader.Run()
	if err != nil {
		log.Error("upload failed", "error", err)
		printStats(stats)
		os.Exit(1)
	}

	printStats(stats)
	log.Info("upload complete")
}

func printStats(stats *upload.Stats) {
	fmt.Println()
	fmt.Println("=== Upload Summary ===")
	fmt.Printf("  Files total:        %d\n", stats.FilesTotal)
	fmt.Printf("  Files uploaded:     %d\n", stats.FilesUploaded)
	fmt.Printf("  Files skipped:      %d (already sent)\n", stats.FilesSkipped)
	fmt.Printf("  Files deduplicated: %d (server already had them)\n", stats.FilesDeduplicated)
	fmt.Printf("  Files unsupported:  %d\n", stats.FilesUnsupported)
	fmt.Printf("  Files errored:      %d\n", stats.FilesErrored)
	fmt.Println()
}
