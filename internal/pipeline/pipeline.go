package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/weather-report/internal/domain"
	"github.com/couchcryptid/weather-report/internal/observability"
	"github.com/couchcryptid/weather-report/internal/report"
)

// DatasetLoader reads the input table into a Dataset.
type DatasetLoader interface {
	Load(ctx context.Context) (*domain.Dataset, error)
	Source() string
}

// Aggregator turns a Dataset into a Report ready for rendering.
type Aggregator interface {
	Build(ctx context.Context, ds *domain.Dataset, source string) (domain.Report, error)
}

// Sink receives every successfully rendered report, e.g. a message topic or an archive.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, r *domain.Report) error
}

// Pipeline orchestrates the load-aggregate-render run.
type Pipeline struct {
	loader     DatasetLoader
	aggregator Aggregator
	renderer   report.Renderer
	sinks      []Sink
	logger     *slog.Logger
	metrics    *observability.Metrics
	ready      atomic.Bool
}

// New creates a Pipeline with the given stages and observability. Sinks run in order.
func New(l DatasetLoader, a Aggregator, r report.Renderer, sinks []Sink, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		loader:     l,
		aggregator: a,
		renderer:   r,
		sinks:      sinks,
		logger:     logger,
		metrics:    metrics,
	}
}

// CheckReadiness returns nil once a report has been produced,
// or an error describing why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("no report has been generated yet")
	}
	return nil
}

// Run produces the report with the configured renderer and writes it to w.
func (p *Pipeline) Run(ctx context.Context, w io.Writer) (domain.Report, error) {
	return p.RunWith(ctx, p.renderer, w)
}

// RunWith loads the dataset, aggregates it, renders the document, hands the
// report to every sink, and only then writes the document to w. Any failure
// aborts the run before w is touched.
func (p *Pipeline) RunWith(ctx context.Context, renderer report.Renderer, w io.Writer) (domain.Report, error) {
	start := time.Now()

	ds, err := p.loader.Load(ctx)
	if err != nil {
		p.metrics.LoadFailures.WithLabelValues(loadFailureKind(err)).Inc()
		p.logger.Error("load dataset failed", "error", err, "source", p.loader.Source())
		return domain.Report{}, err
	}
	p.metrics.RecordsLoaded.Add(float64(ds.Len()))

	rep, err := p.aggregator.Build(ctx, ds, p.loader.Source())
	if err != nil {
		p.metrics.RenderFailures.Inc()
		p.logger.Error("aggregate dataset failed", "error", err, "records", ds.Len())
		return domain.Report{}, fmt.Errorf("aggregate: %w", err)
	}

	var buf bytes.Buffer
	if err := renderer.Render(&buf, &rep); err != nil {
		p.metrics.RenderFailures.Inc()
		p.logger.Error("render report failed", "error", err, "run_id", rep.RunID)
		return domain.Report{}, fmt.Errorf("render %s: %w", renderer.Format(), err)
	}

	for _, s := range p.sinks {
		if err := s.Deliver(ctx, &rep); err != nil {
			p.metrics.SinkFailures.WithLabelValues(s.Name()).Inc()
			p.logger.Error("deliver report failed", "error", err, "sink", s.Name(), "run_id", rep.RunID)
			return domain.Report{}, fmt.Errorf("%s sink: %w", s.Name(), err)
		}
	}

	if _, err := buf.WriteTo(w); err != nil {
		return domain.Report{}, fmt.Errorf("write report: %w", err)
	}

	elapsed := time.Since(start)
	p.metrics.ReportsRendered.WithLabelValues(string(renderer.Format())).Inc()
	p.metrics.RunDuration.Observe(elapsed.Seconds())
	p.metrics.LastSuccessfulRun.Set(float64(rep.GeneratedAt.Unix()))
	p.ready.Store(true)

	p.logger.Info("report generated",
		"run_id", rep.RunID,
		"records", rep.Overall.Count,
		"format", renderer.Format(),
		"sinks", len(p.sinks),
		"duration", elapsed,
	)
	return rep, nil
}

// loadFailureKind classifies a load error for the load_failures_total metric.
func loadFailureKind(err error) string {
	switch {
	case errors.Is(err, domain.ErrMalformedRow):
		return "malformed_row"
	case errors.Is(err, domain.ErrDuplicateDate):
		return "duplicate_date"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "io"
	}
}
