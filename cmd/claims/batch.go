package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/claims-tracker/constants"
	"github.com/joseph-ayodele/claims-tracker/internal/entity"
	"github.com/joseph-ayodele/claims-tracker/internal/export"
	"github.com/joseph-ayodele/claims-tracker/internal/ingest"
)

var batchOpts struct {
	dir        string
	out        string
	workers    int
	timeout    time.Duration
	skipHidden bool
	exts       []string
}

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Classify every claim document in a directory and write an XLSX report",
	RunE:  runBatch,
}

func init() {
	f := batchCmd.Flags()
	f.StringVar(&batchOpts.dir, "dir", "", "Directory to process claim documents from (required)")
	f.StringVar(&batchOpts.out, "out", "", "Output XLSX file path (defaults to claims.xlsx next to --dir)")
	f.IntVar(&batchOpts.workers, "workers", 4, "Number of concurrent workers")
	f.DurationVar(&batchOpts.timeout, "timeout", 3*time.Minute, "Per-document processing timeout")
	f.BoolVar(&batchOpts.skipHidden, "skip-hidden", true, "Skip hidden files and directories")
	f.StringSliceVar(&batchOpts.exts, "ext", nil, "Extensions to include (default: all supported)")
	_ = batchCmd.MarkFlagRequired("dir")
	rootCmd.AddCommand(batchCmd)
}

func runBatch(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if batchOpts.out == "" {
		batchOpts.out = filepath.Join(filepath.Dir(filepath.Clean(batchOpts.dir)), "claims.xlsx")
	}
	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	runner := ingest.NewRunner(a.Processor, ingest.RunnerConfig{
		Workers:        batchOpts.workers,
		ProcessTimeout: batchOpts.timeout,
	}, a.Logger)
	results, stats, err := runner.RunDirectory(ctx, batchOpts.dir, ingest.ScanOptions{
		IncludeExts: batchOpts.exts,
		SkipHidden:  batchOpts.skipHidden,
	})
	if err != nil {
		return err
	}

	claims := make([]*entity.Claim, 0, len(results))
	for _, r := range results {
		if r.Err != "" {
			printError("%s: %s\n", r.Path, r.Err)
			continue
		}
		claims = append(claims, r.Claim)
	}

	f, err := os.Create(batchOpts.out)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	if err := export.WriteClaims(f, claims); err != nil {
		_ = f.Close()
		return fmt.Errorf("write report: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close report: %w", err)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Batch complete: %d matched, %d classified, %d failed\n", stats.Matched, stats.Succeeded, stats.Failed)
	for _, st := range constants.Statuses() {
		fmt.Fprintf(w, "  %-10s %d\n", st, stats.ByStatus[st])
	}
	fmt.Fprintf(w, "Report written to %s\n", batchOpts.out)
	return nil
}
