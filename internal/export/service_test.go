package export

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/claims-tracker/constants"
	"github.com/joseph-ayodele/claims-tracker/internal/claim"
	"github.com/joseph-ayodele/claims-tracker/internal/entity"
	"github.com/joseph-ayodele/claims-tracker/internal/logging"
	"github.com/joseph-ayodele/claims-tracker/internal/repository"
)

type stubRepo struct {
	claims     []*entity.Claim
	lastFilter repository.ListFilter
}

func (s *stubRepo) Save(context.Context, *entity.Claim) error { return nil }
func (s *stubRepo) Get(context.Context, uuid.UUID) (*entity.Claim, error) {
	return nil, nil
}
func (s *stubRepo) List(_ context.Context, f repository.ListFilter) ([]*entity.Claim, error) {
	s.lastFilter = f
	return s.claims, nil
}
func (s *stubRepo) Stats(context.Context) (repository.Stats, error) {
	return repository.Stats{
		Total:       1,
		TotalAmount: 12000,
		ByStatus: map[constants.FraudStatus]repository.StatusStats{
			constants.StatusClean: {Count: 1, TotalAmount: 12000},
		},
	}, nil
}

func sampleClaims() []*entity.Claim {
	return []*entity.Claim{{
		ID:         uuid.New(),
		SourceName: "claim.pdf",
		CreatedAt:  time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
		Result: claim.Result{
			Record:      claim.Record{Hospital: "City Care", Amount: 12000, PatientName: "Ramesh Kumar", ClaimID: "CLM12345"},
			FraudStatus: constants.StatusClean,
			FraudReason: "All checks passed - claim appears legitimate",
		},
	}}
}

func TestExportClaimsXLSX(t *testing.T) {
	repo := &stubRepo{claims: sampleClaims()}
	svc := NewService(repo, logging.Discard())

	b, err := svc.ExportClaimsXLSX(context.Background(), repository.ListFilter{Status: constants.StatusClean})
	if err != nil {
		t.Fatal(err)
	}
	if repo.lastFilter.Limit != MaxExportRows || repo.lastFilter.Status != constants.StatusClean {
		t.Errorf("unexpected filter %+v", repo.lastFilter)
	}

	f, err := excelize.OpenReader(bytes.NewReader(b))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	rows, err := f.GetRows(claimsSheet)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected header + 1 row, got %d", len(rows))
	}
	if rows[1][0] != "CLM12345" || rows[1][7] != "12000" || rows[1][8] != "clean" {
		t.Errorf("unexpected data row %v", rows[1])
	}

	summary, err := f.GetRows(summarySheet)
	if err != nil {
		t.Fatal(err)
	}
	if len(summary) != 5 || summary[4][0] != "all" || summary[4][2] != "12000" {
		t.Errorf("unexpected summary %v", summary)
	}
}

func TestWriteClaims(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteClaims(&buf, sampleClaims()); err != nil {
		t.Fatal(err)
	}
	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if idx, _ := f.GetSheetIndex(summarySheet); idx != -1 {
		t.Error("batch workbooks carry no summary sheet")
	}
	rows, _ := f.GetRows(claimsSheet)
	if len(rows) != 2 || rows[0][0] != "Claim ID" {
		t.Errorf("unexpected rows %v", rows)
	}
}
