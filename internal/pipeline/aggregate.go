package pipeline

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/weather-report/internal/domain"
	"github.com/couchcryptid/weather-report/internal/report"
)

// ReportBuilder implements Aggregator using the domain aggregation functions
// and plot references resolved against the plot directory.
type ReportBuilder struct {
	title     string
	plotDir   string
	plotFiles []string
	logger    *slog.Logger
}

// NewReportBuilder creates a ReportBuilder. Pass no plot files to produce a
// report without plot references.
func NewReportBuilder(title, plotDir string, plotFiles []string, logger *slog.Logger) *ReportBuilder {
	return &ReportBuilder{
		title:     title,
		plotDir:   plotDir,
		plotFiles: plotFiles,
		logger:    logger,
	}
}

func (b *ReportBuilder) Build(ctx context.Context, ds *domain.Dataset, source string) (domain.Report, error) {
	if err := ctx.Err(); err != nil {
		return domain.Report{}, err
	}

	plots := report.ResolvePlots(b.plotDir, b.plotFiles)
	for _, p := range plots {
		if !p.Exists {
			b.logger.Warn("plot image not found, referencing anyway", "plot", p.Name, "path", p.Path)
		}
	}

	return domain.BuildReport(ds, domain.ReportOptions{
		Title:  b.title,
		Source: source,
		Plots:  plots,
	})
}
