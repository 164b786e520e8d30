package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/claims-tracker/internal/claim"
	"github.com/joseph-ayodele/claims-tracker/internal/entity"
	"github.com/joseph-ayodele/claims-tracker/internal/fraud"
	"github.com/joseph-ayodele/claims-tracker/internal/reference"
)

// ClassifyStage turns text into a record, classifies it against the current
// reference snapshot and saves the result when a saver is configured.
type ClassifyStage struct {
	Fields     *claim.Extractor
	Classifier *fraud.Classifier
	Reference  *reference.Store
	Saver      ClaimSaver // optional
	Logger     *slog.Logger
}

func NewClassifyStage(fields *claim.Extractor, cl *fraud.Classifier, ref *reference.Store, saver ClaimSaver, logger *slog.Logger) *ClassifyStage {
	if logger == nil {
		logger = slog.Default()
	}
	if fields == nil {
		fields = claim.NewExtractor()
	}
	return &ClassifyStage{Fields: fields, Classifier: cl, Reference: ref, Saver: saver, Logger: logger}
}

// RunText extracts fields from text and classifies them.
func (s *ClassifyStage) RunText(ctx context.Context, text, sourceName, method string) *Outcome {
	rec := s.Fields.Extract(text)
	s.Logger.Debug("pipeline.fields.extracted",
		"source", sourceName,
		"hospital", rec.Hospital,
		"disease", rec.Disease,
		"treatment", rec.Treatment,
		"amount", rec.Amount,
		"claim_id", rec.ClaimID,
	)
	c := &entity.Claim{
		ID:               uuid.New(),
		SourceName:       sourceName,
		ExtractionMethod: method,
		Result:           claim.Result{Record: rec},
	}
	return s.RunRecord(ctx, c)
}

// RunRecord classifies c.Record in place and persists it. A failed save is
// logged and reported through Outcome.Persisted; the verdict is still returned.
func (s *ClassifyStage) RunRecord(ctx context.Context, c *entity.Claim) *Outcome {
	tables := s.Reference.Current()
	c.Result = s.Classifier.Apply(c.Record, tables)
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}

	out := &Outcome{Claim: c}
	if s.Saver == nil {
		return out
	}
	if err := s.Saver.Save(ctx, c); err != nil {
		s.Logger.Error("pipeline.save.failed", "claim_id", c.ID, "error", err)
		return out
	}
	out.Persisted = true
	return out
}
