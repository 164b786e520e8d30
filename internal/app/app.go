// Package app assembles the claims pipeline and its supporting services from a Config.
package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/claims-tracker/internal/claim"
	"github.com/joseph-ayodele/claims-tracker/internal/common"
	"github.com/joseph-ayodele/claims-tracker/internal/export"
	"github.com/joseph-ayodele/claims-tracker/internal/extract"
	"github.com/joseph-ayodele/claims-tracker/internal/fraud"
	"github.com/joseph-ayodele/claims-tracker/internal/ocr"
	"github.com/joseph-ayodele/claims-tracker/internal/pipeline"
	"github.com/joseph-ayodele/claims-tracker/internal/reference"
	"github.com/joseph-ayodele/claims-tracker/internal/repository"
	"github.com/joseph-ayodele/claims-tracker/internal/server"
)

// ReferenceDebounce coalesces the write bursts spreadsheet tools produce on save.
const ReferenceDebounce = 500 * time.Millisecond

type Options struct {
	// NoHistory skips the database even when a DSN is configured.
	NoHistory bool
	// TextExtractor replaces the OCR toolchain, mainly in tests.
	TextExtractor extract.TextExtractor
}

// App holds the wired components. DB, Claims and Exporter are nil when history is off.
type App struct {
	Config    *common.Config
	Logger    *slog.Logger
	Reference *reference.Store
	Cache     *extract.CachingExtractor
	Text      extract.TextExtractor
	Processor *pipeline.Processor
	DB        *repository.DB
	Claims    repository.ClaimRepository
	Exporter  *export.Service
}

func New(ctx context.Context, cfg *common.Config, logger *slog.Logger, opts Options) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	a := &App{Config: cfg, Logger: logger}

	a.Reference = reference.NewStore(cfg.Reference.HospitalsPath, cfg.Reference.DiseasesPath, logger)
	a.Reference.LoadOrEmpty()
	t := a.Reference.Current()
	logger.Info("reference datasets loaded", "hospitals", t.HospitalCount(), "diseases", t.DiseaseCount())

	var saver pipeline.ClaimSaver
	if cfg.Database.DSN != "" && !opts.NoHistory {
		db, err := repository.Open(ctx, repository.Config{
			DSN:             cfg.Database.DSN,
			MaxConns:        cfg.Database.MaxConns,
			MinConns:        cfg.Database.MinConns,
			MaxConnLifetime: cfg.Database.MaxConnLifetime,
			MaxConnIdleTime: cfg.Database.MaxConnIdleTime,
			DialTimeout:     cfg.Database.DialTimeout,
		}, logger)
		if err != nil {
			return nil, common.NewAppError(common.CodeStorage, "open claim history", err)
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, common.NewAppError(common.CodeStorage, "migrate claim history", err)
		}
		a.DB = db
		a.Claims = repository.NewClaimRepository(db, logger)
		a.Exporter = export.NewService(a.Claims, logger)
		saver = a.Claims
	} else {
		logger.Info("claim history disabled")
	}

	tx := opts.TextExtractor
	if tx == nil {
		tx = extract.NewOCRAdapter(ocr.NewExtractor(ocr.Config{
			TesseractLang: cfg.OCR.Lang,
			DPI:           cfg.OCR.DPI,
			MaxPages:      cfg.OCR.MaxPages,
			TessdataDir:   cfg.OCR.TessdataDir,
			TempDir:       cfg.OCR.TempDir,
			HeicConverter: cfg.OCR.HeicConverter,
		}, logger), logger)
	}
	if cfg.Cache.TTL > 0 {
		a.Cache = extract.NewCachingExtractor(tx, cfg.Cache.TTL, cfg.Cache.CleanupInterval, logger)
		tx = a.Cache
	}

	a.Text = tx

	ex := pipeline.NewExtractStage(tx, cfg.OCR.Timeout, cfg.OCR.TempDir, logger)
	cl := pipeline.NewClassifyStage(claim.NewExtractor(), fraud.NewClassifier(fraud.OptionsFromConfig(cfg.Fraud)), a.Reference, saver, logger)
	a.Processor = pipeline.NewProcessor(logger, ex, cl)
	return a, nil
}

// WatchReference reloads the datasets on change until ctx is done, when enabled in config.
func (a *App) WatchReference(ctx context.Context) {
	if !a.Config.Reference.Watch {
		return
	}
	go func() {
		if err := a.Reference.Watch(ctx, ReferenceDebounce); err != nil {
			a.Logger.Warn("reference watch stopped", "error", err)
		}
	}()
}

// ServerDeps exposes the components the transports need.
func (a *App) ServerDeps() server.Deps {
	d := server.Deps{
		Processor: a.Processor,
		Reference: a.Reference,
		Logger:    a.Logger,
	}
	// keep nil interfaces nil so the servers can tell history is off
	if a.Claims != nil {
		d.Claims = a.Claims
		d.Exporter = a.Exporter
	}
	return d
}

func (a *App) Close() {
	if a.DB != nil {
		a.DB.Close()
	}
}
