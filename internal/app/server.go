package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vk/reconfgrid/internal/ctxlog"
)

// metricsServer exposes the executor metrics while a reconfiguration runs.
type metricsServer struct {
	server *http.Server
	addr   net.Addr
}

// healthHandler answers liveness probes.
func (a *App) healthHandler(w http.ResponseWriter, r *http.Request) {
	a.logger.Debug("Health check endpoint hit.", "remote_addr", r.RemoteAddr, "path", r.URL.Path)
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "OK")
}

// startMetricsServer serves /health and /metrics on addr until close.
func (a *App) startMetricsServer(ctx context.Context, addr string) (*metricsServer, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Configuring metrics server.")

	mux := http.NewServeMux()
	mux.HandleFunc("/health", a.healthHandler)
	mux.Handle("/metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}))

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	s := &metricsServer{
		server: &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second},
		addr:   listener.Addr(),
	}

	go func() {
		logger.Info("Metrics server starting.", "address", fmt.Sprintf("http://%s/metrics", s.addr))
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Metrics server failed unexpectedly.", "error", err)
		}
	}()
	return s, nil
}

func (s *metricsServer) close(ctx context.Context) {
	logger := ctxlog.FromContext(ctx)
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if err := s.server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Metrics server shutdown failed.", "error", err)
		return
	}
	logger.Debug("Metrics server shut down gracefully.")
}
