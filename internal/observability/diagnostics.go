package observability

import (
	"context"
	"errors"
	"net/http"
	"net/http/pprof"
	"strings"
	"time"

	"github.com/riskibarqy/matchstats/internal/platform/logging"
)

// DiagnosticsOptions selects what a diagnostics listener serves.
type DiagnosticsOptions struct {
	Addr    string
	Pprof   bool
	Metrics http.Handler
}

// StartDiagnosticsServer serves pprof and/or /metrics on a side listener. It returns nil when nothing is enabled.
func StartDiagnosticsServer(opts DiagnosticsOptions, logger *logging.Logger) (*http.Server, error) {
	if logger == nil {
		logger = logging.Default()
	}

	if !opts.Pprof && opts.Metrics == nil {
		logger.Info("diagnostics server disabled", "reason", "PPROF_ENABLED=false and METRICS_ENABLED=false")
		return nil, nil
	}
	if strings.TrimSpace(opts.Addr) == "" {
		return nil, errors.New("diagnostics server address is empty")
	}

	mux := http.NewServeMux()
	if opts.Pprof {
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	}
	if opts.Metrics != nil {
		mux.Handle("/metrics", opts.Metrics)
	}

	srv := &http.Server{
		Addr:              opts.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("diagnostics server starting", "addr", opts.Addr, "pprof", opts.Pprof, "metrics", opts.Metrics != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("diagnostics server failed", "error", err)
		}
	}()

	return srv, nil
}

func StopDiagnosticsServer(srv *http.Server, logger *logging.Logger, timeout time.Duration) error {
	if srv == nil {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return err
	}
	logger.Info("diagnostics server stopped", "addr", srv.Addr)

	return nil
}
