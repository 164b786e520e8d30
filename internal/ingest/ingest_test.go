package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/claims-tracker/constants"
	"github.com/joseph-ayodele/claims-tracker/internal/claim"
	"github.com/joseph-ayodele/claims-tracker/internal/entity"
	"github.com/joseph-ayodele/claims-tracker/internal/logging"
	"github.com/joseph-ayodele/claims-tracker/internal/pipeline"
)

func writeFiles(t *testing.T, root string, names ...string) {
	t.Helper()
	for _, n := range names {
		p := filepath.Join(root, n)
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestScanDirectory(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "b.pdf", "a.PNG", "notes.docx", "sub/c.txt", ".hidden/d.pdf", ".e.jpg")

	paths, stats, err := ScanDirectory(root, ScanOptions{SkipHidden: true})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		filepath.Join(root, "a.PNG"),
		filepath.Join(root, "b.pdf"),
		filepath.Join(root, "sub", "c.txt"),
	}
	if strings.Join(paths, ",") != strings.Join(want, ",") {
		t.Fatalf("paths = %v, want %v", paths, want)
	}
	if stats.Scanned != 4 || stats.Matched != 3 {
		t.Errorf("unexpected stats %+v", stats)
	}

	paths, _, err = ScanDirectory(root, ScanOptions{IncludeExts: []string{".PDF"}})
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) != 2 {
		t.Errorf("expected hidden and visible pdfs, got %v", paths)
	}
}

func TestScanDirectory_Errors(t *testing.T) {
	if _, _, err := ScanDirectory(" ", ScanOptions{}); err == nil {
		t.Error("expected error for empty root")
	}
	if _, _, err := ScanDirectory(filepath.Join(t.TempDir(), "missing"), ScanOptions{}); err == nil {
		t.Error("expected error for missing root")
	}
}

type fakeProc struct{}

func (fakeProc) ProcessFile(_ context.Context, path, _ string) (*pipeline.Outcome, error) {
	if strings.HasSuffix(path, "blank.txt") {
		return nil, errors.New("no text")
	}
	status := constants.StatusClean
	if strings.Contains(path, "fraud") {
		status = constants.StatusFraudulent
	}
	return &pipeline.Outcome{
		Claim:     &entity.Claim{ID: uuid.New(), Result: claim.Result{FraudStatus: status, FraudReason: "r"}},
		Persisted: true,
	}, nil
}

func TestRunner_RunDirectory(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "1.pdf", "2-fraud.png", "3-blank.txt", "skip.doc")

	r := NewRunner(fakeProc{}, RunnerConfig{Workers: 2, ProcessTimeout: time.Second}, logging.Discard())
	results, stats, err := r.RunDirectory(context.Background(), root, ScanOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if results[0].Status != constants.StatusClean || results[1].Status != constants.StatusFraudulent {
		t.Errorf("results out of order or wrong: %+v", results)
	}
	if results[2].Err == "" {
		t.Error("expected failure for blank document")
	}
	if stats.Succeeded != 2 || stats.Failed != 1 || stats.ByStatus[constants.StatusFraudulent] != 1 {
		t.Errorf("unexpected stats %+v", stats)
	}
}

func TestStartWatcher_EmitsNewDocuments(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "existing.pdf")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events, _, err := StartWatcher(ctx, WatchConfig{Roots: []string{root}, InitialScan: true, Debounce: 20 * time.Millisecond}, logging.Discard())
	if err != nil {
		t.Fatal(err)
	}

	expect := func(want string) {
		t.Helper()
		select {
		case got := <-events:
			if got != want {
				t.Fatalf("got event %q, want %q", got, want)
			}
		case <-time.After(3 * time.Second):
			t.Fatalf("timed out waiting for %q", want)
		}
	}
	expect(filepath.Join(root, "existing.pdf"))

	writeFiles(t, root, "ignored.docx", "new.png")
	expect(filepath.Join(root, "new.png"))

	cancel()
	for range events {
	}
}

func TestStartWatcher_RequiresRoots(t *testing.T) {
	if _, _, err := StartWatcher(context.Background(), WatchConfig{}, logging.Discard()); err == nil {
		t.Error("expected error without roots")
	}
}
