package main

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/claims-tracker/internal/app"
	"github.com/joseph-ayodele/claims-tracker/internal/common"
	"github.com/joseph-ayodele/claims-tracker/internal/logging"
)

var (
	configPath string
	logFormat  string
	logLevel   string
	noHistory  bool
	inmem      bool
)

var rootCmd = &cobra.Command{
	Use:           "claims",
	Short:         "Insurance claim field extraction and fraud screening",
	Long:          "Extracts claim fields from PDFs, images and text files and classifies each claim as clean, suspicious or fraudulent.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "Path to a YAML config file (env CLAIMS_* overrides)")
	pf.StringVar(&logFormat, "log-format", "", "Log format: text or json (overrides config)")
	pf.StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides config)")
	pf.BoolVar(&noHistory, "no-history", false, "Do not store classified claims")
	pf.BoolVar(&inmem, "inmem", false, "Use an in-memory SQLite history for this run")
}

// loadConfig applies the command line overrides on top of LoadConfig.
func loadConfig() (*common.Config, error) {
	cfg, err := common.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	if logFormat != "" {
		cfg.Log.Format = logFormat
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if inmem {
		cfg.Database.DSN = ":memory:"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setup(ctx context.Context) (*app.App, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger := logging.New(cfg.Log.Format, cfg.Log.Level)
	slog.SetDefault(logger)
	return app.New(ctx, cfg, logger, app.Options{NoHistory: noHistory})
}
