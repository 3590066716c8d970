// Command weatherreport loads a daily weather CSV, aggregates it, and renders
// a statistics report. It can also serve the report over HTTP.
package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/weather-report/internal/config"
	"github.com/couchcryptid/weather-report/internal/observability"
)

// app carries the state shared by every subcommand once config is loaded.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *observability.Metrics

	stdout     io.Writer
	newMetrics func() *observability.Metrics
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "weatherreport",
		Short: "Weather statistics report generator",
		Long: `weatherreport reads daily weather records (date, temperature, rainfall, humidity),
computes overall and grouped statistics, and renders a Markdown or JSON report.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	root.PersistentFlags().String("input", "", "input CSV path (overrides INPUT_PATH)")
	root.PersistentFlags().String("output", "", "report output path, - for stdout (overrides REPORT_PATH)")
	root.PersistentFlags().String("format", "", "report format: markdown or json (overrides REPORT_FORMAT)")

	root.AddCommand(
		newGenerateCmd(a),
		newStatsCmd(a),
		newServeCmd(a),
		newHistoryCmd(a),
	)
	return root
}

// setup loads configuration, applies flag overrides, and builds logging and metrics.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if v, _ := flags.GetString("input"); v != "" {
		cfg.InputPath = v
	}
	if v, _ := flags.GetString("output"); v != "" {
		cfg.ReportPath = v
	}
	if v, _ := flags.GetString("format"); v != "" {
		cfg.ReportFormat = strings.ToLower(v)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = observability.NewLogger(cfg)
	a.metrics = a.newMetrics()
	return nil
}

func main() {
	a := &app{stdout: os.Stdout, newMetrics: observability.NewMetrics}

	if err := newRootCmd(a).ExecuteContext(context.Background()); err != nil {
		logger := a.logger
		if logger == nil {
			logger = slog.Default()
		}
		logger.Error("weatherreport failed", "error", err)
		os.Exit(1)
	}
}
