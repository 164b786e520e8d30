package ocr

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/joseph-ayodele/claims-tracker/constants"
)

func (e *Extractor) extractImage(ctx context.Context, path string) (ExtractionResult, error) {
	var warn []string
	if isHEIC(constants.NormalizeExt(filepath.Ext(path))) {
		png, w, cleanup, err := e.convertHEICtoPNG(ctx, path)
		defer cleanup()
		if err != nil {
			return ExtractionResult{SourceType: constants.IMAGE, Warnings: w}, err
		}
		path = png
	}

	txt, ocrWarn, err := e.tesseractOCR(ctx, path)
	warn = append(warn, ocrWarn...)
	if err != nil {
		return ExtractionResult{SourceType: constants.IMAGE, Warnings: warn}, err
	}
	txt = Normalize(txt)
	return ExtractionResult{
		Text:       txt,
		Pages:      1,
		SourceType: constants.IMAGE,
		Method:     "image-ocr",
		Language:   e.cfg.TesseractLang,
		Warnings:   warn,
		Confidence: heuristicConfidence(txt),
	}, nil
}

func (e *Extractor) tesseractOCR(ctx context.Context, path string) (string, []string, error) {
	// tesseract <file> stdout -l <lang>
	args := []string{path, "stdout", "-l", e.cfg.TesseractLang}
	if e.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", e.cfg.TessdataDir)
	}

	out, errb, err := e.runner.Run(ctx, e.cfg.Tesseract, args...)
	if err != nil {
		return "", []string{string(errb)}, fmt.Errorf("tesseract: %w", err)
	}
	return string(out), nil, nil
}
