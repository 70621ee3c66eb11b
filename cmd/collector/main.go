package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/riskibarqy/matchstats/internal/app"
	"github.com/riskibarqy/matchstats/internal/config"
	"github.com/riskibarqy/matchstats/internal/observability"
	"github.com/riskibarqy/matchstats/internal/platform/logging"
	"github.com/riskibarqy/matchstats/internal/usecase"
)

const shutdownTimeout = 10 * time.Second

func main() {
	once := flag.Bool("once", false, "run a single collection and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err == nil {
		err = cfg.ValidateCollector()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewJSON(cfg.LogLevel).With("service", cfg.ServiceName+"-collector")
	logging.SetDefault(logger)
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, *once, logger); err != nil {
		logger.Error("collector exited", "error", err)
		_ = logger.Sync()
		os.Exit(1)
	}
}

func run(cfg config.Config, once bool, logger *logging.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.InitUptrace(cfg, logger)
	if err != nil {
		return fmt.Errorf("init uptrace: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			logger.Warn("uptrace shutdown failed", "error", err)
		}
	}()

	stopProfiling, err := observability.InitPyroscope(cfg, logger)
	if err != nil {
		return fmt.Errorf("init pyroscope: %w", err)
	}
	defer func() {
		if err := stopProfiling(); err != nil {
			logger.Warn("pyroscope stop failed", "error", err)
		}
	}()

	if cfg.DBAutoMigrate {
		if err := app.ApplyMigrations(cfg.DBURL, logger); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}

	db, err := app.OpenDatabase(ctx, cfg.DBURL, cfg.ServiceName+"-collector")
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Warn("close database failed", "error", err)
		}
	}()

	var recorder usecase.CollectionRecorder
	var metricsHandler http.Handler
	if cfg.MetricsEnabled {
		metrics := observability.NewMetrics()
		recorder = metrics
		metricsHandler = metrics.Handler()
	}
	diagnostics, err := startDiagnostics(cfg, metricsHandler, logger)
	if err != nil {
		return err
	}
	defer func() {
		for _, srv := range diagnostics {
			if err := observability.StopDiagnosticsServer(srv, logger, shutdownTimeout); err != nil {
				logger.Warn("diagnostics shutdown failed", "error", err)
			}
		}
	}()

	collector, err := app.NewCollector(cfg, db, recorder, logger)
	if err != nil {
		return err
	}

	if once {
		collector.RunOnce(ctx)
		return nil
	}
	return collector.Run(ctx)
}

// startDiagnostics shares one listener when pprof and metrics use the same address.
func startDiagnostics(cfg config.Config, metrics http.Handler, logger *logging.Logger) ([]*http.Server, error) {
	if cfg.PprofEnabled && metrics != nil && cfg.PprofAddr == cfg.MetricsAddr {
		srv, err := observability.StartDiagnosticsServer(observability.DiagnosticsOptions{
			Addr:    cfg.MetricsAddr,
			Pprof:   true,
			Metrics: metrics,
		}, logger)
		if err != nil {
			return nil, err
		}
		return []*http.Server{srv}, nil
	}

	var out []*http.Server
	if cfg.PprofEnabled {
		srv, err := observability.StartDiagnosticsServer(observability.DiagnosticsOptions{Addr: cfg.PprofAddr, Pprof: true}, logger)
		if err != nil {
			return nil, err
		}
		out = append(out, srv)
	}
	if metrics != nil {
		srv, err := observability.StartDiagnosticsServer(observability.DiagnosticsOptions{Addr: cfg.MetricsAddr, Metrics: metrics}, logger)
		if err != nil {
			return out, err
		}
		out = append(out, srv)
	}
	return out, nil
}
