package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/joseph-ayodele/claims-tracker/constants"
	"github.com/joseph-ayodele/claims-tracker/internal/common"
	"github.com/joseph-ayodele/claims-tracker/internal/extract"
	"github.com/joseph-ayodele/claims-tracker/internal/logging"
)

type staticText string

func (s staticText) Extract(context.Context, string) (extract.TextExtractionResult, error) {
	return extract.TextExtractionResult{Text: string(s), Method: "plain-text", Confidence: 1}, nil
}

func writeDatasets(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	hp := filepath.Join(dir, "hospitals.csv")
	dp := filepath.Join(dir, "diseases.csv")
	if err := os.WriteFile(hp, []byte("HospitalName,Region,Pincode,AvgTreatmentCost\nCity Care,North,400001,10000\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(dp, []byte("Disease,Treatment\nDiabetes,\"Insulin Therapy, Diet Control\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	return hp, dp
}

func testConfig(t *testing.T) *common.Config {
	t.Helper()
	cfg := common.FromViper(common.NewViper())
	cfg.Reference.HospitalsPath, cfg.Reference.DiseasesPath = writeDatasets(t)
	cfg.Reference.Watch = false
	cfg.Database.DSN = ":memory:"
	cfg.OCR.TempDir = t.TempDir()
	return cfg
}

const text = `Hospital: City Care
Region: North
Pincode: 400001
Disease: Diabetes
Treatment: Insulin Therapy
Amount: 12000
Patient Name: Ramesh Kumar
Claim No: CLM12345`

func TestNew_WiresPipelineWithHistory(t *testing.T) {
	ctx := context.Background()
	a, err := New(ctx, testConfig(t), logging.Discard(), Options{TextExtractor: staticText(text)})
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()

	if a.Reference.Current().HospitalCount() != 1 || a.Claims == nil || a.Cache == nil {
		t.Fatalf("unexpected wiring %+v", a)
	}
	out, err := a.Processor.ProcessDocument(ctx, "claim.pdf", []byte("%PDF"))
	if err != nil {
		t.Fatal(err)
	}
	if out.Claim.FraudStatus != constants.StatusClean || !out.Persisted {
		t.Errorf("unexpected outcome %+v", out.Claim)
	}
	deps := a.ServerDeps()
	if deps.Claims == nil || deps.Exporter == nil {
		t.Error("server deps should expose history")
	}
}

func TestNew_NoHistory(t *testing.T) {
	cfg := testConfig(t)
	cfg.Reference.HospitalsPath = filepath.Join(t.TempDir(), "missing.xlsx")
	a, err := New(context.Background(), cfg, logging.Discard(), Options{NoHistory: true, TextExtractor: staticText(text)})
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()

	if a.Claims != nil || a.ServerDeps().Claims != nil {
		t.Error("history should be disabled")
	}
	if a.Reference.Current().HospitalCount() != 0 {
		t.Error("missing dataset should leave empty tables")
	}
	out, err := a.Processor.ClassifyText(context.Background(), text, "t")
	if err != nil {
		t.Fatal(err)
	}
	if out.Claim.FraudStatus != constants.StatusFraudulent {
		t.Errorf("empty tables must reject the hospital, got %s", out.Claim.FraudStatus)
	}
}
