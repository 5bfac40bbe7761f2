// Package upload is the client side of the import pipeline: it walks a
// directory of routine files, skips anything already sent, and POSTs the
// rest to the PlanLift server. Files live under one subdirectory per
// client, named by the numeric client id:
//
//	routines/
//	  101/lunes-a-viernes.txt
//	  101/bloque-fuerza.xlsx
//	  203/rutina.docx
package upload

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// Extensions the server knows how to extract.
var supportedExts = map[string]bool{
	".txt":  true,
	".csv":  true,
	".tsv":  true,
	".xlsx": true,
	".docx": true,
	".json": true,
}

// Stats tracks upload progress.
type Stats struct {
	FilesTotal        int
	FilesUploaded     int
	FilesSkipped      int
	FilesDeduplicated int
	FilesErrored      int
	FilesUnsupported  int
}

// Uploader walks a routines directory and POSTs new files to the server.
type Uploader struct {
	client *Client
	state  *StateDB
	root   string
	dryRun bool
	log    *slog.Logger
	stats  Stats
}

// New creates a new Uploader.
func New(client *Client, state *StateDB, root string, dryRun bool, log *slog.Logger) *Uploader {
	return &Uploader{
		client: client,
		state:  state,
		root:   root,
		dryRun: dryRun,
		log:    log,
	}
}

// Run executes the upload pass over every client directory.
func (u *Uploader) Run() (*Stats, error) {
	entries, err := os.ReadDir(u.root)
	if err != nil {
		return &u.stats, fmt.Errorf("reading %s: %w", u.root, err)
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		clientID, err := strconv.Atoi(entry.Name())
		if err != nil || clientID <= 0 {
			u.log.Warn("skipping non-client directory", "dir", entry.Name())
			continue
		}
		if err := u.processClientDir(filepath.Join(u.root, entry.Name()), clientID); err != nil {
			return &u.stats, fmt.Errorf("client %d: %w", clientID, err)
		}
	}

	return &u.stats, nil
}

// processClientDir uploads every new supported file in one client's directory.
func (u *Uploader) processClientDir(dir string, clientID int) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading %s: %w", dir, err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !supportedExts[strings.ToLower(filepath.Ext(name))] {
			u.stats.FilesUnsupported++
			continue
		}
		u.stats.FilesTotal++

		path := filepath.Join(dir, name)
		relPath, _ := filepath.Rel(u.root, path)

		info, err := entry.Info()
		if err != nil {
			u.log.Warn("stat failed", "file", path, "error", err)
			u.stats.FilesErrored++
			continue
		}
		hash, err := HashFile(path)
		if err != nil {
			u.log.Warn("hash failed", "file", path, "error", err)
			u.stats.FilesErrored++
			continue
		}

		uploaded, err := u.state.IsUploaded(relPath, info.Size(), hash)
		if err != nil {
			u.log.Warn("state check failed", "file", path, "error", err)
			u.stats.FilesErrored++
			continue
		}
		if uploaded {
			u.stats.FilesSkipped++
			continue
		}

		if u.dryRun {
			u.log.Info("dry-run: would upload", "file", relPath, "client_id", clientID)
			u.stats.FilesUploaded++
			continue
		}

		content, err := os.ReadFile(path)
		if err != nil {
			u.log.Warn("read failed", "file", path, "error", err)
			u.stats.FilesErrored++
			continue
		}

		result, err := u.client.SendFile(name, content, clientID)
		if err != nil {
			u.log.Warn("upload failed", "file", relPath, "error", err)
			u.stats.FilesErrored++
			continue
		}
		if result.Deduplicated {
			u.stats.FilesDeduplicated++
		} else {
			u.stats.FilesUploaded++
		}
		u.log.Info("uploaded", "file", relPath, "client_id", clientID,
			"job_id", result.Job.ID, "deduplicated", result.Deduplicated)

		if err := u.state.MarkUploaded(relPath, info.Size(), hash); err != nil {
			u.log.Warn("failed to mark uploaded", "file", relPath, "error", err)
		}
	}

	return nil
}
