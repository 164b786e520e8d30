package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"

	"github.com/joseph-ayodele/claims-tracker/internal/app"
	"github.com/joseph-ayodele/claims-tracker/internal/common"
	"github.com/joseph-ayodele/claims-tracker/internal/logging"
	"github.com/joseph-ayodele/claims-tracker/internal/server"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	cfg, err := common.LoadConfig(*configPath)
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(2)
	}

	logger := logging.New(cfg.Log.Format, cfg.Log.Level)
	slog.SetDefault(logger)
	logger.Info("starting claimsd", "config", cfg.String())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger, app.Options{})
	if err != nil {
		logger.Error("failed to initialize", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	if a.DB != nil {
		if err := a.DB.HealthCheck(ctx, 5*time.Second); err != nil {
			logger.Error("failed to ping database", "error", err)
			os.Exit(1)
		}
	}
	a.WatchReference(ctx)

	deps := a.ServerDeps()

	// gRPC server
	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		logger.Error("failed to listen on address", "addr", cfg.Server.GRPCAddr, "error", err)
		os.Exit(1)
	}
	// documents arrive base64 encoded, so allow twice the upload limit
	maxMsg := 2 * cfg.Server.MaxUploadMB << 20
	grpcServer, healthServer := server.NewGRPCServer(deps, grpc.MaxRecvMsgSize(maxMsg))
	go func() {
		logger.Info("grpc server listening", "addr", cfg.Server.GRPCAddr)
		if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			logger.Error("gRPC serve error", "error", err)
			stop()
		}
	}()

	// HTTP server
	httpServer := server.NewHTTPServer(server.HTTPConfig{
		RatePerSec:     cfg.Server.RatePerSec,
		RateBurst:      cfg.Server.RateBurst,
		MaxUploadMB:    cfg.Server.MaxUploadMB,
		RequestTimeout: cfg.Server.RequestTimeout,
	}, deps)
	go func() {
		if err := httpServer.Start(cfg.Server.HTTPAddr); err != nil {
			logger.Error("http serve error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	healthServer.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", "error", err)
	}
	grpcServer.GracefulStop()
	logger.Info("stopped")
}
