package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var ocrCmd = &cobra.Command{
	Use:   "ocr <file>",
	Short: "Print the text extracted from a document without classifying it",
	Args:  cobra.ExactArgs(1),
	RunE:  runOCR,
}

func init() {
	rootCmd.AddCommand(ocrCmd)
}

func runOCR(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	noHistory = true
	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	start := time.Now()
	res, err := a.Text.Extract(ctx, args[0])
	if err != nil {
		return fmt.Errorf("text extraction failed: %w", err)
	}
	a.Logger.Info("text extraction OK",
		"method", res.Method,
		"pages", res.Pages,
		"bytes", len(res.Text),
		"confidence", res.Confidence,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	fmt.Fprintln(cmd.OutOrStdout(), res.Text)
	return nil
}
