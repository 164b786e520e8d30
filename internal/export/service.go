package export

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/claims-tracker/constants"
	"github.com/joseph-ayodele/claims-tracker/internal/entity"
	"github.com/joseph-ayodele/claims-tracker/internal/repository"
)

const (
	claimsSheet  = "Claims"
	summarySheet = "Summary"
	// MaxExportRows bounds a single workbook.
	MaxExportRows = 10000
)

// Service is a tiny façade over the claim repository that produces XLSX bytes for exports.
type Service struct {
	claimsRepo repository.ClaimRepository
	logger     *slog.Logger
}

func NewService(repo repository.ClaimRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{claimsRepo: repo, logger: logger}
}

// ExportClaimsXLSX returns a workbook with the stored claims matching f.
func (s *Service) ExportClaimsXLSX(ctx context.Context, f repository.ListFilter) ([]byte, error) {
	start := time.Now()
	if f.Limit <= 0 || f.Limit > MaxExportRows {
		f.Limit = MaxExportRows
	}
	claims, err := s.claimsRepo.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("query claims: %w", err)
	}
	st, err := s.claimsRepo.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("claim stats: %w", err)
	}

	wb, err := Build(claims, &st)
	if err != nil {
		return nil, err
	}
	defer wb.Close()
	buf, err := wb.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"status", f.Status,
		"rows", len(claims),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

// WriteClaims writes claims (for example a batch run) as a workbook to w.
func WriteClaims(w io.Writer, claims []*entity.Claim) error {
	wb, err := Build(claims, nil)
	if err != nil {
		return err
	}
	defer wb.Close()
	if _, err := wb.WriteTo(w); err != nil {
		return fmt.Errorf("xlsx write: %w", err)
	}
	return nil
}

var headers = []string{
	"Claim ID",
	"Patient Name",
	"Hospital",
	"Region",
	"Pincode",
	"Disease",
	"Treatment",
	"Amount",
	"Fraud Status",
	"Fraud Reason",
	"Rule",
	"Source",
	"Processed At",
}

// Build lays out the claims sheet and, when stats are given, a summary sheet.
func Build(claims []*entity.Claim, stats *repository.Stats) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), claimsSheet); err != nil {
		_ = f.Close()
		return nil, err
	}

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(claimsSheet, cell, h)
	}
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		_ = f.SetRowStyle(claimsSheet, 1, 1, style)
	}

	row := 2
	for _, c := range claims {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(claimsSheet, cell, v)
		}
		write(1, c.ClaimID)
		write(2, c.PatientName)
		write(3, c.Hospital)
		write(4, c.Region)
		write(5, c.Pincode)
		write(6, c.Disease)
		write(7, c.Treatment)
		write(8, c.Amount)
		write(9, string(c.FraudStatus))
		write(10, truncate(c.FraudReason, 140))
		write(11, c.FraudRule)
		write(12, c.SourceName)
		if !c.CreatedAt.IsZero() {
			write(13, c.CreatedAt.UTC().Format(time.RFC3339))
		}
		row++
	}

	// Widen a few columns
	_ = f.SetColWidth(claimsSheet, "A", "A", 14) // claim id
	_ = f.SetColWidth(claimsSheet, "B", "C", 24) // patient, hospital
	_ = f.SetColWidth(claimsSheet, "D", "E", 10) // region, pincode
	_ = f.SetColWidth(claimsSheet, "F", "G", 22) // disease, treatment
	_ = f.SetColWidth(claimsSheet, "H", "I", 12) // amount, status
	_ = f.SetColWidth(claimsSheet, "J", "J", 56) // reason
	_ = f.SetColWidth(claimsSheet, "K", "M", 22)

	if stats != nil {
		if err := writeSummary(f, stats); err != nil {
			_ = f.Close()
			return nil, err
		}
	}
	return f, nil
}

func writeSummary(f *excelize.File, st *repository.Stats) error {
	if _, err := f.NewSheet(summarySheet); err != nil {
		return err
	}
	rows := [][]any{{"Status", "Claims", "Total Amount"}}
	for _, s := range constants.Statuses() {
		b := st.ByStatus[s]
		rows = append(rows, []any{string(s), b.Count, b.TotalAmount})
	}
	rows = append(rows, []any{"all", st.Total, st.TotalAmount})
	for i, r := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(summarySheet, cell, &r); err != nil {
			return err
		}
	}
	return f.SetColWidth(summarySheet, "A", "C", 16)
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:n]
	}
	return s[:n-1] + "…"
}
