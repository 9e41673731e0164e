// Package metrics exposes Prometheus metrics on their own listener,
// separate from the CORS-enabled control API (internal/api), so a
// cluster liveness probe that only ever reaches the metrics port can
// still read the engine's run state without going through the control
// surface's CORS/recovery middleware stack.
package metrics

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/kryofly/freqtrade/internal/config"
)

// StatusProvider is the subset of internal/live.Engine the metrics
// server needs to report run state on /health, kept narrow so this
// package doesn't import internal/live (mirrors internal/api's
// Controller / internal/notify/telegram's Controller).
type StatusProvider interface {
	Status() string
}

// Server exposes /metrics and /health on a dedicated port.
type Server struct {
	port   int
	status StatusProvider
	server *http.Server
	mux    *http.ServeMux
	log    zerolog.Logger
}

// NewServer creates a metrics server. status may be nil, in which case
// /health omits the engine_status field (e.g. before the live engine
// exists, such as during a backtest or hyperopt run).
func NewServer(port int, log zerolog.Logger, status StatusProvider) *Server {
	return &Server{
		port:   port,
		status: status,
		log:    log.With().Str("component", "metrics_server").Logger(),
	}
}

// Start starts the metrics HTTP server
func (s *Server) Start() error {
	s.mux = http.NewServeMux()

	// Prometheus metrics endpoint
	s.mux.Handle("/metrics", promhttp.Handler())

	// Health check endpoint with detailed JSON response
	s.mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)

		health := map[string]interface{}{
			"status":    "healthy",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"version":   config.Version,
		}
		if s.status != nil {
			health["engine_status"] = s.status.Status()
		}

		json.NewEncoder(w).Encode(health)
	})

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      s.mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.log.Info().Int("port", s.port).Msg("Starting metrics server")

	// Start in goroutine
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.Error().Err(err).Msg("Metrics server error")
		}
	}()

	return nil
}

// Shutdown gracefully shuts down the metrics server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}

	s.log.Info().Msg("Shutting down metrics server")

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown metrics server: %w", err)
	}

	s.log.Info().Msg("Metrics server shutdown complete")
	return nil
}

// RegisterHandler registers a custom HTTP handler
func (s *Server) RegisterHandler(pattern string, handler http.HandlerFunc) {
	if s.mux != nil {
		s.mux.HandleFunc(pattern, handler)
	}
}
