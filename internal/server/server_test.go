package server

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/joseph-ayodele/claims-tracker/internal/claim"
	"github.com/joseph-ayodele/claims-tracker/internal/export"
	"github.com/joseph-ayodele/claims-tracker/internal/extract"
	"github.com/joseph-ayodele/claims-tracker/internal/fraud"
	"github.com/joseph-ayodele/claims-tracker/internal/logging"
	"github.com/joseph-ayodele/claims-tracker/internal/pipeline"
	"github.com/joseph-ayodele/claims-tracker/internal/reference"
	"github.com/joseph-ayodele/claims-tracker/internal/repository"
)

const cleanClaimText = `Hospital: City Care
Region: North
Pincode: 400001
Disease: Diabetes
Treatment: Insulin Therapy
Amount: ₹12,000
Patient Name: Ramesh Kumar
Claim No: CLM12345`

// fileText treats every document as plain text, whatever its extension.
type fileText struct{}

func (fileText) Extract(_ context.Context, path string) (extract.TextExtractionResult, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return extract.TextExtractionResult{}, err
	}
	return extract.TextExtractionResult{Text: string(b), Method: "pdf-text", Pages: 1, Confidence: 0.9}, nil
}

func testStore() *reference.Store {
	return reference.NewStaticStore(reference.NewTables(
		[]reference.HospitalRow{
			{HospitalName: "City Care", Region: "North", Pincode: "400001", AvgTreatmentCost: 10000},
			{HospitalName: "Apollo", Region: "South", Pincode: "600001", AvgTreatmentCost: 50000},
		},
		[]reference.DiseaseRow{
			{Disease: "Diabetes", Treatment: "Insulin Therapy, Diet Control"},
		},
	))
}

// newDeps wires a real pipeline over fake text extraction. withHistory adds an in-memory SQLite store.
func newDeps(t *testing.T, withHistory bool) Deps {
	t.Helper()
	log := logging.Discard()
	deps := Deps{Reference: testStore(), Logger: log}

	var saver pipeline.ClaimSaver
	if withHistory {
		db, err := repository.Open(context.Background(), repository.Config{DSN: ":memory:"}, log)
		if err != nil {
			t.Fatalf("open sqlite: %v", err)
		}
		t.Cleanup(db.Close)
		if err := db.Migrate(context.Background()); err != nil {
			t.Fatalf("migrate: %v", err)
		}
		repo := repository.NewClaimRepository(db, log)
		deps.Claims = repo
		deps.Exporter = export.NewService(repo, log)
		saver = repo
	}

	ex := pipeline.NewExtractStage(fileText{}, 5*time.Second, t.TempDir(), log)
	cl := pipeline.NewClassifyStage(claim.NewExtractor(), fraud.NewClassifier(fraud.DefaultOptions()), deps.Reference, saver, log)
	deps.Processor = pipeline.NewProcessor(log, ex, cl)
	return deps
}
