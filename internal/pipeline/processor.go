// Package pipeline runs a claim document through text extraction, field
// extraction and fraud classification, and records the outcome.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/claims-tracker/internal/common"
	"github.com/joseph-ayodele/claims-tracker/internal/entity"
	"github.com/joseph-ayodele/claims-tracker/internal/extract"
)

// ClaimSaver persists classified claims. repository.ClaimRepository satisfies it.
type ClaimSaver interface {
	Save(ctx context.Context, c *entity.Claim) error
}

// Outcome is what a caller gets back for one document.
type Outcome struct {
	Claim      *entity.Claim
	Extraction *extract.TextExtractionResult // nil for text and record input
	Persisted  bool
}

// Processor coordinates text extraction then classification.
type Processor struct {
	logger   *slog.Logger
	extract  *ExtractStage
	classify *ClassifyStage
}

func NewProcessor(logger *slog.Logger, ex *ExtractStage, cl *ClassifyStage) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{logger: logger, extract: ex, classify: cl}
}

// ProcessFile extracts text from a document on disk and classifies it.
// sourceName is recorded with the claim; it defaults to the path.
func (p *Processor) ProcessFile(ctx context.Context, path, sourceName string) (*Outcome, error) {
	if sourceName == "" {
		sourceName = path
	}
	start := time.Now()
	res, err := p.extract.Run(ctx, path)
	if err != nil {
		p.logger.Error("processor.extract.failed", "source", sourceName, "request_id", common.RequestIDFromContext(ctx), "err", err)
		return nil, err
	}
	p.logger.Info("processor.extract.ok",
		"source", sourceName,
		"method", res.Method,
		"pages", res.Pages,
		"confidence", res.Confidence,
		"cached", res.Cached,
	)

	out := p.classify.RunText(ctx, res.Text, sourceName, res.Method)
	out.Extraction = &res
	p.logger.Info("processor.classify.ok",
		"source", sourceName,
		"request_id", common.RequestIDFromContext(ctx),
		"claim_id", out.Claim.ID,
		"status", out.Claim.FraudStatus,
		"rule", out.Claim.FraudRule,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}

// ProcessDocument stores an uploaded document in a temporary file named after
// its original name, then runs ProcessFile. The temporary file is always removed.
func (p *Processor) ProcessDocument(ctx context.Context, name string, data []byte) (*Outcome, error) {
	path, cleanup, err := p.extract.Stage(name, data)
	if err != nil {
		return nil, err
	}
	defer cleanup()
	return p.ProcessFile(ctx, path, name)
}

// ClassifyText runs field extraction and classification on already extracted text.
func (p *Processor) ClassifyText(ctx context.Context, text, sourceName string) (*Outcome, error) {
	if err := requireText(text); err != nil {
		return nil, err
	}
	return p.classify.RunText(ctx, text, sourceName, "text"), nil
}

// ClassifyRecord classifies a structured record, skipping field extraction.
func (p *Processor) ClassifyRecord(ctx context.Context, c *entity.Claim) *Outcome {
	if c.SourceName == "" {
		c.SourceName = "json"
	}
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return p.classify.RunRecord(ctx, c)
}
