package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/weather-report/internal/adapter/archive"
	"github.com/couchcryptid/weather-report/internal/adapter/csvfile"
	kafkaadapter "github.com/couchcryptid/weather-report/internal/adapter/kafka"
	"github.com/couchcryptid/weather-report/internal/adapter/tablecsv"
	"github.com/couchcryptid/weather-report/internal/pipeline"
	"github.com/couchcryptid/weather-report/internal/report"
)

func newGenerateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "generate",
		Short: "Generate the weather report",
		Long: `Load the input dataset, compute statistics, render the report, deliver it to
the configured sinks (Kafka, SQL archive, CSV tables), and write the document.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runGenerate(cmd.Context())
		},
	}
}

func (a *app) runGenerate(ctx context.Context) error {
	renderer, err := a.renderer()
	if err != nil {
		return err
	}

	sinks, closeSinks, err := a.buildSinks(ctx)
	if err != nil {
		return err
	}
	defer closeSinks()

	p := pipeline.New(
		csvfile.NewLoader(a.cfg.InputPath, a.logger),
		pipeline.NewReportBuilder(a.cfg.ReportTitle, a.cfg.PlotDir, a.cfg.PlotFiles, a.logger),
		renderer,
		sinks,
		a.logger,
		a.metrics,
	)

	var buf bytes.Buffer
	rep, err := p.Run(ctx, &buf)
	if err != nil {
		return err
	}
	if err := writeOutput(a.cfg.ReportPath, a.stdout, buf.Bytes()); err != nil {
		return err
	}

	a.logger.Info("report written", "path", a.cfg.ReportPath, "run_id", rep.RunID, "bytes", buf.Len())
	return nil
}

func (a *app) renderer() (report.Renderer, error) {
	format, err := report.ParseFormat(a.cfg.ReportFormat)
	if err != nil {
		return nil, err
	}
	return report.New(format)
}

// buildSinks creates the optional report sinks in delivery order. The returned
// func closes whatever was opened.
func (a *app) buildSinks(ctx context.Context) ([]pipeline.Sink, func(), error) {
	var (
		sinks   []pipeline.Sink
		closers []io.Closer
	)
	closeAll := func() {
		for _, c := range closers {
			if err := c.Close(); err != nil {
				a.logger.Error("close sink", "error", err)
			}
		}
	}

	if a.cfg.KafkaEnabled {
		pub := kafkaadapter.NewPublisher(a.cfg, a.logger)
		sinks = append(sinks, pub)
		closers = append(closers, pub)
		a.logger.Info("kafka publishing enabled", "topic", a.cfg.KafkaTopic, "brokers", a.cfg.KafkaBrokers)
	}

	if a.cfg.ArchiveDSN != "" {
		store, err := archive.Open(ctx, a.cfg.ArchiveDriver, a.cfg.ArchiveDSN, a.logger)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		sinks = append(sinks, store)
		closers = append(closers, store)
		a.logger.Info("report archive enabled", "driver", a.cfg.ArchiveDriver)
	}

	if a.cfg.TableExportDir != "" {
		sinks = append(sinks, tablecsv.NewExporter(a.cfg.TableExportDir, a.logger))
		a.logger.Info("table export enabled", "dir", a.cfg.TableExportDir)
	}

	return sinks, closeAll, nil
}

// writeOutput writes the finished document to path, or to stdout for "-".
func writeOutput(path string, stdout io.Writer, data []byte) error {
	if path == "-" {
		_, err := stdout.Write(data)
		return err
	}
	if path == "" {
		return errors.New("no output path")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
