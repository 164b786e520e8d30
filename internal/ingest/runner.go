package ingest

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/claims-tracker/internal/async"
	"github.com/joseph-ayodele/claims-tracker/internal/pipeline"
)

// RunnerConfig sizes the worker queue behind a batch or watch run.
type RunnerConfig struct {
	Workers        int
	ProcessTimeout time.Duration
}

// Runner feeds documents through the claims pipeline on a bounded worker queue.
type Runner struct {
	proc   async.FileProcessor
	cfg    RunnerConfig
	logger *slog.Logger
}

func NewRunner(proc async.FileProcessor, cfg RunnerConfig, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{proc: proc, cfg: cfg, logger: logger}
}

func (r *Runner) newQueue(onResult async.ResultHandler) *async.ProcessorQueue {
	return async.NewProcessorQueue(r.proc, r.logger,
		async.WithWorkers(r.cfg.Workers),
		async.WithProcessTimeout(r.cfg.ProcessTimeout),
		async.WithResultHandler(onResult),
	)
}

// RunDirectory classifies every claim document under root and returns results in path order.
func (r *Runner) RunDirectory(ctx context.Context, root string, opts ScanOptions) ([]FileResult, DirStats, error) {
	paths, stats, err := ScanDirectory(root, opts)
	if err != nil {
		return nil, stats, err
	}
	r.logger.Info("batch.start", "root", root, "matched", stats.Matched)

	var mu sync.Mutex
	byPath := make(map[string]FileResult, len(paths))
	q := r.newQueue(func(job async.Job, out *pipeline.Outcome, err error) {
		res := toResult(job.Path, out, err)
		mu.Lock()
		byPath[job.Path] = res
		mu.Unlock()
	})

	for _, p := range paths {
		if err := q.Enqueue(ctx, async.Job{Path: p, SourceName: filepath.Base(p), TraceID: uuid.NewString()}); err != nil {
			mu.Lock()
			byPath[p] = FileResult{Path: p, Err: err.Error()}
			mu.Unlock()
		}
	}
	q.Shutdown(ctx)

	mu.Lock()
	defer mu.Unlock()
	results := make([]FileResult, 0, len(paths))
	for _, p := range paths {
		res, ok := byPath[p]
		if !ok {
			res = FileResult{Path: p, Err: "not processed: batch interrupted"}
		}
		stats.record(res)
		results = append(results, res)
	}
	r.logger.Info("batch.done", "root", root, "succeeded", stats.Succeeded, "failed", stats.Failed)
	return results, stats, nil
}

// Watch classifies documents as they appear under cfg.Roots until ctx is done.
// onResult, if set, is called for every processed file.
func (r *Runner) Watch(ctx context.Context, cfg WatchConfig, onResult func(FileResult)) error {
	events, errs, err := StartWatcher(ctx, cfg, r.logger)
	if err != nil {
		return err
	}
	q := r.newQueue(func(job async.Job, out *pipeline.Outcome, err error) {
		if onResult != nil {
			onResult(toResult(job.Path, out, err))
		}
	})
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		q.Shutdown(shutdownCtx)
	}()

	r.logger.Info("watch.start", "roots", cfg.Roots)
	for {
		select {
		case p, ok := <-events:
			if !ok {
				return nil
			}
			if err := q.Enqueue(ctx, async.Job{Path: p, SourceName: filepath.Base(p), TraceID: uuid.NewString()}); err != nil {
				r.logger.Warn("watch.enqueue.failed", "path", p, "error", err)
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			r.logger.Warn("watch.error", "error", err)
		case <-ctx.Done():
			return nil
		}
	}
}

func toResult(path string, out *pipeline.Outcome, err error) FileResult {
	if err != nil {
		return FileResult{Path: path, Err: err.Error()}
	}
	c := out.Claim
	return FileResult{
		Path:      path,
		ClaimID:   c.ID,
		Status:    c.FraudStatus,
		Reason:    c.FraudReason,
		Persisted: out.Persisted,
		Claim:     c,
	}
}
