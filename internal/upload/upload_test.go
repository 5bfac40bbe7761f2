package upload

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

type received struct {
	clientID string
	fileName string
	content  string
}

func importServer(t *testing.T, got *[]received) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/imports" {
			http.NotFound(w, r)
			return
		}
		if err := r.ParseMultipartForm(10 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		defer file.Close()
		content, _ := io.ReadAll(file)
		*got = append(*got, received{
			clientID: r.FormValue("client_id"),
			fileName: header.Filename,
			content:  string(content),
		})
		w.WriteHeader(http.StatusAccepted)
		json.NewEncoder(w).Encode(map[string]any{
			"job": map[string]string{"id": "3f0e8a1c-0000-0000-0000-000000000000", "state": "queued"},
		})
	}))
}

// TestRunUploadsNewFiles uploads every supported file once, keyed by the
// client directory it sits in.
func TestRunUploadsNewFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "101"), "rutina.txt", "Lunes\nPress banca 3x8\n")
	writeFile(t, filepath.Join(root, "203"), "bloque.txt", "Martes\nSentadilla 5x5\n")
	writeFile(t, filepath.Join(root, "203"), "notas.md", "ignored")
	writeFile(t, filepath.Join(root, "archive"), "old.txt", "not a client dir")

	var got []received
	srv := importServer(t, &got)
	defer srv.Close()

	state, err := OpenStateDB(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer state.Close()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	u := New(NewClient(srv.URL, "key", 1), state, root, false, log)
	stats, err := u.Run()
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if stats.FilesUploaded != 2 {
		t.Errorf("FilesUploaded = %d, want 2", stats.FilesUploaded)
	}
	if stats.FilesUnsupported != 1 {
		t.Errorf("FilesUnsupported = %d, want 1", stats.FilesUnsupported)
	}
	if len(got) != 2 {
		t.Fatalf("server received %d files, want 2", len(got))
	}
	if got[0].clientID != "101" || got[0].fileName != "rutina.txt" {
		t.Errorf("first upload = %s/%s, want 101/rutina.txt", got[0].clientID, got[0].fileName)
	}
	if got[1].clientID != "203" || got[1].content != "Martes\nSentadilla 5x5\n" {
		t.Errorf("second upload = %+v", got[1])
	}
}

// TestRunSkipsAlreadySent verifies that a second run re-sends nothing
// until a file changes.
func TestRunSkipsAlreadySent(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "101"), "rutina.txt", "Lunes\nPress banca 3x8\n")

	var got []received
	srv := importServer(t, &got)
	defer srv.Close()

	state, err := OpenStateDB(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer state.Close()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	u := New(NewClient(srv.URL, "key", 1), state, root, false, log)
	if _, err := u.Run(); err != nil {
		t.Fatal(err)
	}

	u = New(NewClient(srv.URL, "key", 1), state, root, false, log)
	stats, err := u.Run()
	if err != nil {
		t.Fatal(err)
	}
	if stats.FilesSkipped != 1 || stats.FilesUploaded != 0 {
		t.Errorf("second run: skipped = %d, uploaded = %d, want 1, 0", stats.FilesSkipped, stats.FilesUploaded)
	}
	if len(got) != 1 {
		t.Errorf("server received %d files total, want 1", len(got))
	}

	// Editing the file makes it eligible again
	writeFile(t, filepath.Join(root, "101"), "rutina.txt", "Lunes\nPress banca 4x8\n")
	u = New(NewClient(srv.URL, "key", 1), state, root, false, log)
	stats, err = u.Run()
	if err != nil {
		t.Fatal(err)
	}
	if stats.FilesUploaded != 1 {
		t.Errorf("after edit: uploaded = %d, want 1", stats.FilesUploaded)
	}
}

// TestRunDryRun parses the directory without contacting the server or
// recording state.
func TestRunDryRun(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "101"), "rutina.txt", "Lunes\nPress banca 3x8\n")

	state, err := OpenStateDB(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer state.Close()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	u := New(nil, state, root, true, log)
	stats, err := u.Run()
	if err != nil {
		t.Fatal(err)
	}
	if stats.FilesUploaded != 1 {
		t.Errorf("FilesUploaded = %d, want 1", stats.FilesUploaded)
	}

	path := filepath.Join(root, "101", "rutina.txt")
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	hash, err := HashFile(path)
	if err != nil {
		t.Fatal(err)
	}
	sent, err := state.IsUploaded(filepath.Join("101", "rutina.txt"), info.Size(), hash)
	if err != nil {
		t.Fatal(err)
	}
	if sent {
		t.Error("dry-run recorded upload state")
	}
}
