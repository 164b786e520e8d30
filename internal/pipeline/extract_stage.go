package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joseph-ayodele/claims-tracker/constants"
	"github.com/joseph-ayodele/claims-tracker/internal/common"
	"github.com/joseph-ayodele/claims-tracker/internal/extract"
)

// LowConfidenceThreshold marks OCR output that is probably not a claim form.
const LowConfidenceThreshold = 0.5

// ExtractStage runs the text extractor under a bounded timeout and maps its
// failures onto the input/internal error split callers rely on.
type ExtractStage struct {
	TextExtractor extract.TextExtractor
	Timeout       time.Duration
	TempDir       string
	Logger        *slog.Logger
}

func NewExtractStage(tx extract.TextExtractor, timeout time.Duration, tempDir string, logger *slog.Logger) *ExtractStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExtractStage{TextExtractor: tx, Timeout: timeout, TempDir: tempDir, Logger: logger}
}

// Run extracts text from path.
//
// Unsupported extensions and empty text are input errors. An extractor that
// fails outright (corrupt file, OCR exit status) also counts as "no text",
// since the document is what could not be read. Timeouts and cancellation
// stay internal errors.
func (s *ExtractStage) Run(ctx context.Context, path string) (extract.TextExtractionResult, error) {
	ext := constants.NormalizeExt(filepath.Ext(path))
	if !constants.IsAllowedExt(ext) {
		return extract.TextExtractionResult{}, common.NewAppError(common.CodeBadDocument,
			fmt.Sprintf("file type %q is not supported", ext), common.ErrUnsupportedFormat)
	}

	ctx, cancel := common.WithTimeout(ctx, s.Timeout)
	defer cancel()

	res, err := s.TextExtractor.Extract(ctx, path)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) || ctx.Err() != nil {
			return res, common.NewAppError(common.CodeExtraction, "text extraction did not finish", errors.Join(err, ctx.Err()))
		}
		s.Logger.Warn("pipeline.extract.failed", "path", path, "error", err, "warnings", res.Warnings)
		return res, common.NewAppError(common.CodeBadDocument, "could not read document", errors.Join(common.ErrNoText, err))
	}
	if err := requireText(res.Text); err != nil {
		return res, err
	}
	if res.Confidence > 0 && res.Confidence < LowConfidenceThreshold {
		s.Logger.Warn("pipeline.extract.low_confidence", "path", path, "method", res.Method, "conf", res.Confidence)
	}
	return res, nil
}

// Stage writes data to a fresh temporary file that keeps the upload's extension.
func (s *ExtractStage) Stage(name string, data []byte) (string, func(), error) {
	ext := constants.NormalizeExt(filepath.Ext(name))
	if !constants.IsAllowedExt(ext) {
		return "", func() {}, common.NewAppError(common.CodeBadDocument,
			fmt.Sprintf("file type %q is not supported", ext), common.ErrUnsupportedFormat)
	}
	f, err := os.CreateTemp(s.TempDir, "claim-*."+ext)
	if err != nil {
		return "", func() {}, fmt.Errorf("create temp file: %w", err)
	}
	path := f.Name()
	cleanup := func() {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			s.Logger.Warn("failed to remove temp file", "path", path, "error", err)
		}
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		cleanup()
		return "", func() {}, fmt.Errorf("write temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", func() {}, fmt.Errorf("close temp file: %w", err)
	}
	return path, cleanup, nil
}

func requireText(text string) error {
	if strings.TrimSpace(text) == "" {
		return common.NewAppError(common.CodeBadDocument, "no text could be extracted from the document", common.ErrNoText)
	}
	return nil
}
