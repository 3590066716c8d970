package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/weather-report/internal/adapter/csvfile"
	httpadapter "github.com/couchcryptid/weather-report/internal/adapter/http"
	"github.com/couchcryptid/weather-report/internal/pipeline"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the report over HTTP",
		Long: `Start an HTTP server that regenerates the report on every request
(/report, /report.json) and exposes /healthz, /readyz, and /metrics.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runServe(cmd.Context())
		},
	}
}

func (a *app) runServe(parent context.Context) error {
	renderer, err := a.renderer()
	if err != nil {
		return err
	}

	// Sinks are left to "generate"; serving only reads.
	p := pipeline.New(
		csvfile.NewLoader(a.cfg.InputPath, a.logger),
		pipeline.NewReportBuilder(a.cfg.ReportTitle, a.cfg.PlotDir, a.cfg.PlotFiles, a.logger),
		renderer,
		nil,
		a.logger,
		a.metrics,
	)

	srv := httpadapter.NewServer(a.cfg.HTTPAddr, p, p, a.logger)

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// A first pass marks the service ready when the dataset is usable.
	if _, err := p.Run(ctx, io.Discard); err != nil {
		a.logger.Warn("initial report failed, not ready", "error", err)
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return err
		}
	}
	a.logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", "error", err)
	}

	a.logger.Info("shutdown complete")
	return nil
}
