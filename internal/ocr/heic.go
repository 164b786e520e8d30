package ocr

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Phone photos of claim forms often arrive as HEIC, which tesseract cannot read.
func isHEIC(ext string) bool {
	return ext == "heic" || ext == "heif"
}

// convertHEICtoPNG converts in to a PNG inside a fresh temp directory.
// The returned cleanup removes that directory and is never nil.
func (e *Extractor) convertHEICtoPNG(ctx context.Context, in string) (string, []string, func(), error) {
	tmpDir, err := os.MkdirTemp(e.cfg.TempDir, "claims-heic-*")
	if err != nil {
		return "", nil, func() {}, err
	}
	cleanup := func() { _ = os.RemoveAll(tmpDir) }
	out := filepath.Join(tmpDir, "page.png")

	var args []string
	switch e.cfg.HeicConverter {
	case "heif-convert", "magick":
		args = []string{in, out}
	case "sips":
		args = []string{"-s", "format", "png", in, "--out", out}
	default:
		return "", nil, cleanup, fmt.Errorf("HEIC not supported: set HeicConverter to one of: heif-convert | magick | sips")
	}
	if _, errb, err := e.runner.Run(ctx, e.cfg.HeicConverter, args...); err != nil {
		return "", []string{string(errb)}, cleanup, fmt.Errorf("%s convert failed: %w", e.cfg.HeicConverter, err)
	}
	if _, statErr := os.Stat(out); statErr != nil {
		return "", nil, cleanup, fmt.Errorf("HEIC conversion produced no output: %v", statErr)
	}
	e.logger.Debug("converted heic to png", "in", in, "converter", e.cfg.HeicConverter)
	return out, nil, cleanup, nil
}
