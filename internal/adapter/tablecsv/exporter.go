// Package tablecsv exports report aggregates as CSV summary tables.
package tablecsv

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/couchcryptid/weather-report/internal/domain"
)

// Exporter writes one "<dimension>_summary.csv" per aggregation plus
// "overall_summary.csv" into a directory. It implements pipeline.Sink.
type Exporter struct {
	dir    string
	logger *slog.Logger
}

func NewExporter(dir string, logger *slog.Logger) *Exporter {
	return &Exporter{dir: dir, logger: logger}
}

func (e *Exporter) Name() string { return "table_export" }

// Deliver writes every available table. Files are replaced atomically.
func (e *Exporter) Deliver(ctx context.Context, r *domain.Report) error {
	if err := r.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return fmt.Errorf("table export dir: %w", err)
	}

	tables := map[string]dataframe.DataFrame{
		"overall": OverallFrame(*r.Overall),
	}
	for _, agg := range []*domain.AggregationResult{r.Yearly, r.Monthly, r.YearMonth} {
		if agg != nil {
			tables[agg.Dimension] = GroupFrame(*agg)
		}
	}

	for name, df := range tables {
		if err := ctx.Err(); err != nil {
			return err
		}
		path := filepath.Join(e.dir, name+"_summary.csv")
		if err := writeFrame(path, df); err != nil {
			return err
		}
		e.logger.Debug("table exported", "path", path, "rows", df.Nrow())
	}
	e.logger.Info("tables exported", "dir", e.dir, "tables", len(tables), "run_id", r.RunID)
	return nil
}

// GroupFrame converts an aggregation into a data frame with one row per group.
func GroupFrame(agg domain.AggregationResult) dataframe.DataFrame {
	n := len(agg.Groups)
	var (
		keys    = make([]int, n)
		labels  = make([]string, n)
		counts  = make([]int, n)
		tMean   = make([]float64, n)
		tMin    = make([]float64, n)
		tMax    = make([]float64, n)
		rainSum = make([]float64, n)
		humMean = make([]float64, n)
	)
	for i, g := range agg.Groups {
		keys[i] = g.Key
		labels[i] = g.Label
		counts[i] = g.Count
		tMean[i] = g.TemperatureMean
		tMin[i] = g.TemperatureMin
		tMax[i] = g.TemperatureMax
		rainSum[i] = g.RainfallSum
		humMean[i] = g.HumidityMean
	}

	return dataframe.New(
		series.New(keys, series.Int, agg.Dimension),
		series.New(labels, series.String, "label"),
		series.New(counts, series.Int, "count"),
		series.New(tMean, series.Float, "temperature_mean"),
		series.New(tMin, series.Float, "temperature_min"),
		series.New(tMax, series.Float, "temperature_max"),
		series.New(rainSum, series.Float, "rainfall_sum"),
		series.New(humMean, series.Float, "humidity_mean"),
	)
}

// OverallFrame converts overall temperature statistics into a one-row data frame.
func OverallFrame(s domain.OverallStats) dataframe.DataFrame {
	return dataframe.New(
		series.New([]int{s.Count}, series.Int, "count"),
		series.New([]float64{s.Mean}, series.Float, "mean"),
		series.New([]float64{s.Min}, series.Float, "min"),
		series.New([]float64{s.Max}, series.Float, "max"),
		series.New([]float64{s.StdDev}, series.Float, "stddev"),
	)
}

func writeFrame(path string, df dataframe.DataFrame) (err error) {
	if df.Err != nil {
		return fmt.Errorf("build %s: %w", filepath.Base(path), df.Err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if err = df.WriteCSV(tmp); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}
