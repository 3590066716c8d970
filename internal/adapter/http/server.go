package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/weather-report/internal/domain"
	"github.com/couchcryptid/weather-report/internal/report"
)

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// ReportGenerator runs a full report pass and writes the document to w.
type ReportGenerator interface {
	RunWith(ctx context.Context, renderer report.Renderer, w io.Writer) (domain.Report, error)
}

// Server exposes health, readiness, metrics, and report HTTP endpoints.
type Server struct {
	httpServer *http.Server
	generator  ReportGenerator
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics, /report,
// and /report.json routes.
func NewServer(addr string, gen ReportGenerator, ready ReadinessChecker, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		generator: gen,
		logger:    logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /report", s.handleReport(report.NewMarkdown()))
	mux.HandleFunc("GET /report.json", s.handleReport(report.JSONRenderer{}))

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

// handleReport regenerates the report for every request. The document is
// buffered so a failed run produces a JSON error instead of a truncated body.
func (s *Server) handleReport(renderer report.Renderer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var buf bytes.Buffer
		rep, err := s.generator.RunWith(r.Context(), renderer, &buf)
		if err != nil {
			status := statusFor(err)
			s.logger.Error("report request failed", "error", err, "status", status, "format", renderer.Format())
			writeJSON(w, status, map[string]string{"error": err.Error()})
			return
		}

		w.Header().Set("Content-Type", renderer.ContentType())
		w.Header().Set("X-Report-Run-Id", rep.RunID)
		w.WriteHeader(http.StatusOK)
		buf.WriteTo(w) //nolint:errcheck // client went away
	}
}

// statusFor maps data problems to 422 and everything else to 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrMalformedRow),
		errors.Is(err, domain.ErrDuplicateDate),
		errors.Is(err, domain.ErrEmptyDataset),
		errors.Is(err, domain.ErrMissingSectionData):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort health response
}
