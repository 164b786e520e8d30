package reference

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Store owns the current Tables snapshot. Readers call Current and keep the
// pointer for the whole classification; Reload swaps in a fresh snapshot.
type Store struct {
	hospitalsPath string
	diseasesPath  string
	current       atomic.Pointer[Tables]
	reloads       atomic.Int64
	logger        *slog.Logger
}

func NewStore(hospitalsPath, diseasesPath string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{hospitalsPath: hospitalsPath, diseasesPath: diseasesPath, logger: logger}
	s.current.Store(NewTables(nil, nil))
	return s
}

// NewStaticStore wraps prebuilt tables. It has no dataset paths, so Reload and Watch fail.
func NewStaticStore(t *Tables) *Store {
	s := &Store{logger: slog.Default()}
	if t == nil {
		t = NewTables(nil, nil)
	}
	s.current.Store(t)
	return s
}

// Current returns the active snapshot. Never nil.
func (s *Store) Current() *Tables {
	return s.current.Load()
}

// Reloads reports how many successful reloads happened.
func (s *Store) Reloads() int64 { return s.reloads.Load() }

// Reload reads both datasets and swaps the snapshot. On error the previous
// snapshot stays active.
func (s *Store) Reload() error {
	if s.hospitalsPath == "" || s.diseasesPath == "" {
		return errors.New("reference store has no dataset paths")
	}
	start := time.Now()
	t, err := Load(s.hospitalsPath, s.diseasesPath)
	if err != nil {
		return err
	}
	s.current.Store(t)
	s.reloads.Add(1)
	s.logger.Info("reference.reload.ok",
		"hospitals", t.HospitalCount(),
		"diseases", t.DiseaseCount(),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// LoadOrEmpty performs the startup load. A failure is logged and leaves empty
// tables installed, so every claim fails the hospital and disease checks
// instead of the process refusing to start.
func (s *Store) LoadOrEmpty() {
	if err := s.Reload(); err != nil {
		s.logger.Warn("reference datasets unavailable, starting with empty tables",
			"hospitals_path", s.hospitalsPath,
			"diseases_path", s.diseasesPath,
			"error", err,
		)
		s.current.Store(NewTables(nil, nil))
	}
}

// Watch reloads the snapshot whenever either dataset file changes. It blocks
// until ctx is done. Events are debounced since spreadsheet tools write in bursts.
func (s *Store) Watch(ctx context.Context, debounce time.Duration) error {
	if s.hospitalsPath == "" || s.diseasesPath == "" {
		return errors.New("reference store has no dataset paths")
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fsnotify watcher: %w", err)
	}
	defer w.Close()

	// Watch the directories: editors replace files by rename, which drops a file watch.
	targets := map[string]struct{}{}
	dirs := map[string]struct{}{}
	for _, p := range []string{s.hospitalsPath, s.diseasesPath} {
		abs, err := filepath.Abs(p)
		if err != nil {
			return err
		}
		targets[abs] = struct{}{}
		dirs[filepath.Dir(abs)] = struct{}{}
	}
	for d := range dirs {
		if err := w.Add(d); err != nil {
			return fmt.Errorf("watch %s: %w", d, err)
		}
	}

	var timer *time.Timer
	fire := make(chan struct{}, 1)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case e, ok := <-w.Events:
			if !ok {
				return nil
			}
			abs, _ := filepath.Abs(e.Name)
			if _, hit := targets[abs]; !hit {
				continue
			}
			if e.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounce, func() {
				select {
				case fire <- struct{}{}:
				default:
				}
			})
		case <-fire:
			if err := s.Reload(); err != nil {
				s.logger.Warn("reference.reload.failed, keeping previous snapshot", "error", err)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			s.logger.Error("reference watcher error", "error", err)
		}
	}
}
