// Package server exposes the claims pipeline over HTTP (echo) and gRPC.
package server

import (
	"context"
	"log/slog"

	"github.com/joseph-ayodele/claims-tracker/internal/entity"
	"github.com/joseph-ayodele/claims-tracker/internal/pipeline"
	"github.com/joseph-ayodele/claims-tracker/internal/reference"
	"github.com/joseph-ayodele/claims-tracker/internal/repository"
)

// ClaimProcessor is the part of pipeline.Processor the transports call.
type ClaimProcessor interface {
	ProcessDocument(ctx context.Context, name string, data []byte) (*pipeline.Outcome, error)
	ClassifyText(ctx context.Context, text, sourceName string) (*pipeline.Outcome, error)
	ClassifyRecord(ctx context.Context, c *entity.Claim) *pipeline.Outcome
}

// ClaimExporter renders stored claims as a spreadsheet. export.Service satisfies it.
type ClaimExporter interface {
	ExportClaimsXLSX(ctx context.Context, f repository.ListFilter) ([]byte, error)
}

// Deps are shared by the HTTP and gRPC servers. Claims and Exporter are nil
// when claim history is disabled.
type Deps struct {
	Processor ClaimProcessor
	Reference *reference.Store
	Claims    repository.ClaimRepository
	Exporter  ClaimExporter
	Logger    *slog.Logger
}

func (d Deps) logger() *slog.Logger {
	if d.Logger == nil {
		return slog.Default()
	}
	return d.Logger
}

// HealthReport is returned by both health endpoints.
type HealthReport struct {
	Status         string `json:"status"`
	HospitalsCount int    `json:"hospitals_count"`
	DiseasesCount  int    `json:"diseases_count"`
	HistoryEnabled bool   `json:"history_enabled"`
}

func (d Deps) health() HealthReport {
	t := d.Reference.Current()
	return HealthReport{
		Status:         "healthy",
		HospitalsCount: t.HospitalCount(),
		DiseasesCount:  t.DiseaseCount(),
		HistoryEnabled: d.Claims != nil,
	}
}
