package reference

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/joseph-ayodele/claims-tracker/internal/logging"
)

func writeCSV(t *testing.T, path, body string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
}

const (
	hospitalsCSV = "HospitalName,Region,Pincode,AvgTreatmentCost\nCity Care,North,400001,1000\n"
	diseasesCSV  = "Disease,Treatment\nDiabetes,Insulin Therapy\n"
)

func TestStore_LoadOrEmptyFallsBackToEmpty(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(filepath.Join(dir, "nope.csv"), filepath.Join(dir, "nope2.csv"), logging.Discard())
	s.LoadOrEmpty()

	cur := s.Current()
	if cur == nil || cur.HospitalCount() != 0 || cur.DiseaseCount() != 0 {
		t.Fatalf("expected empty tables, got %+v", cur)
	}
}

func TestStore_ReloadSwapsSnapshot(t *testing.T) {
	dir := t.TempDir()
	hp, dp := filepath.Join(dir, "h.csv"), filepath.Join(dir, "d.csv")
	writeCSV(t, hp, hospitalsCSV)
	writeCSV(t, dp, diseasesCSV)

	s := NewStore(hp, dp, logging.Discard())
	s.LoadOrEmpty()
	before := s.Current()
	if before.HospitalCount() != 1 {
		t.Fatalf("expected 1 hospital, got %d", before.HospitalCount())
	}

	writeCSV(t, hp, hospitalsCSV+"Apollo,East,700001,500\n")
	if err := s.Reload(); err != nil {
		t.Fatal(err)
	}
	if s.Current().HospitalCount() != 2 {
		t.Errorf("expected 2 hospitals after reload")
	}
	if before.HospitalCount() != 1 {
		t.Error("old snapshot must stay unchanged")
	}

	// broken file keeps the previous snapshot
	writeCSV(t, hp, "garbage\n")
	if err := s.Reload(); err == nil {
		t.Fatal("expected reload error")
	}
	if s.Current().HospitalCount() != 2 {
		t.Error("failed reload must not replace the snapshot")
	}
	if s.Reloads() != 2 {
		t.Errorf("reloads = %d, want 2", s.Reloads())
	}
}

func TestStore_WatchReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	hp, dp := filepath.Join(dir, "h.csv"), filepath.Join(dir, "d.csv")
	writeCSV(t, hp, hospitalsCSV)
	writeCSV(t, dp, diseasesCSV)

	s := NewStore(hp, dp, logging.Discard())
	s.LoadOrEmpty()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Watch(ctx, 10*time.Millisecond) }()
	defer func() {
		cancel()
		<-done
	}()

	deadline := time.Now().Add(5 * time.Second)
	for s.Current().DiseaseCount() != 2 {
		if time.Now().After(deadline) {
			t.Fatal("watcher did not reload the disease table")
		}
		// rewrite until the watcher has registered and picked it up
		writeCSV(t, dp, diseasesCSV+"Cold,Rest\n")
		time.Sleep(50 * time.Millisecond)
	}
}

func TestStaticStore(t *testing.T) {
	s := NewStaticStore(nil)
	if s.Current() == nil {
		t.Fatal("static store must never return nil")
	}
	if err := s.Reload(); err == nil {
		t.Error("static store reload should fail")
	}
}
