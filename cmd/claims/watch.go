package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/claims-tracker/internal/ingest"
)

var watchOpts struct {
	dir      string
	workers  int
	debounce time.Duration
	existing bool
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Classify claim documents as they are dropped into a directory",
	RunE:  runWatch,
}

func init() {
	f := watchCmd.Flags()
	f.StringVar(&watchOpts.dir, "dir", "", "Directory to watch recursively (required)")
	f.IntVar(&watchOpts.workers, "workers", 2, "Number of concurrent workers")
	f.DurationVar(&watchOpts.debounce, "debounce", 500*time.Millisecond, "Quiet period before a changed file is processed")
	f.BoolVar(&watchOpts.existing, "existing", false, "Also classify files already in the directory")
	_ = watchCmd.MarkFlagRequired("dir")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	a.WatchReference(ctx)

	w := cmd.OutOrStdout()
	runner := ingest.NewRunner(a.Processor, ingest.RunnerConfig{Workers: watchOpts.workers, ProcessTimeout: a.Config.OCR.Timeout}, a.Logger)
	return runner.Watch(ctx, ingest.WatchConfig{
		Roots:       []string{watchOpts.dir},
		InitialScan: watchOpts.existing,
		Debounce:    watchOpts.debounce,
	}, func(r ingest.FileResult) {
		if r.Err != "" {
			printError("%s: %s\n", r.Path, r.Err)
			return
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", r.Path, r.Status, r.Reason)
	})
}
