package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// PlotRef names a chart image rendered by an external plotting step.
type PlotRef struct {
	Name   string `json:"name"`
	Path   string `json:"path"`
	Exists bool   `json:"exists"`
}

// Report is everything a renderer needs to produce the weather summary document.
type Report struct {
	RunID       string    `json:"run_id"`
	Title       string    `json:"title"`
	Source      string    `json:"source"`
	GeneratedAt time.Time `json:"generated_at"`
	Period      Period    `json:"period"`

	Overall  *OverallStats      `json:"overall"`
	Yearly   *AggregationResult `json:"yearly"`
	Monthly  *AggregationResult `json:"monthly"`
	Extremes *Extremes          `json:"extremes,omitempty"`
	Trend    *Trend             `json:"trend,omitempty"`
	Plots    []PlotRef          `json:"plots"`

	// YearMonth feeds table exports; the document does not render it.
	YearMonth *AggregationResult `json:"year_month,omitempty"`
}

// Validate checks that every required section has data.
func (r *Report) Validate() error {
	switch {
	case r == nil:
		return &MissingSectionDataError{Section: "report"}
	case r.Overall == nil:
		return &MissingSectionDataError{Section: "overall"}
	case r.Yearly == nil || len(r.Yearly.Groups) == 0:
		return &MissingSectionDataError{Section: "yearly"}
	case r.Monthly == nil || len(r.Monthly.Groups) == 0:
		return &MissingSectionDataError{Section: "monthly"}
	}
	return nil
}

// ReportOptions carries the descriptive parts of a report that do not come from the data.
type ReportOptions struct {
	Title  string
	Source string
	Plots  []PlotRef
}

// BuildReport runs every aggregation over ds and assembles a Report stamped
// with a fresh run ID and the package clock.
func BuildReport(ds *Dataset, opts ReportOptions) (Report, error) {
	overall, err := ComputeOverallStats(ds)
	if err != nil {
		return Report{}, err
	}

	yearly, err := GroupBy(ds, ByYear)
	if err != nil {
		return Report{}, fmt.Errorf("yearly aggregation: %w", err)
	}

	monthly, err := GroupBy(ds, ByMonth)
	if err != nil {
		return Report{}, fmt.Errorf("monthly aggregation: %w", err)
	}

	yearMonth, err := GroupBy(ds, ByYearMonth)
	if err != nil {
		return Report{}, fmt.Errorf("year-month aggregation: %w", err)
	}

	extremes, err := FindExtremes(ds)
	if err != nil {
		return Report{}, err
	}

	r := Report{
		RunID:       uuid.NewString(),
		Title:       opts.Title,
		Source:      opts.Source,
		GeneratedAt: Now(),
		Period:      ds.Period(),
		Overall:     &overall,
		Yearly:      &yearly,
		Monthly:     &monthly,
		YearMonth:   &yearMonth,
		Extremes:    &extremes,
		Plots:       opts.Plots,
	}
	if trend, ok := YearlyTrend(yearly); ok {
		r.Trend = &trend
	}
	return r, nil
}
