package main

import (
	"fmt"
	"text/tabwriter"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/couchcryptid/weather-report/internal/adapter/csvfile"
	"github.com/couchcryptid/weather-report/internal/domain"
	"github.com/couchcryptid/weather-report/internal/report"
)

func newStatsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print overall temperature statistics",
		Long:  `Load the input dataset and print overall statistics without rendering a report.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ds, err := csvfile.NewLoader(a.cfg.InputPath, a.logger).Load(cmd.Context())
			if err != nil {
				return err
			}
			overall, err := domain.ComputeOverallStats(ds)
			if err != nil {
				return err
			}
			yearly, err := domain.GroupBy(ds, domain.ByYear)
			if err != nil {
				return err
			}

			if format, _ := report.ParseFormat(a.cfg.ReportFormat); format == report.FormatJSON {
				enc := json.NewEncoder(a.stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]any{
					"period":  ds.Period(),
					"overall": overall,
					"yearly":  yearly,
				})
			}

			period := ds.Period()
			tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintf(tw, "records\t%d\n", overall.Count)
			fmt.Fprintf(tw, "period\t%s .. %s\n", period.From.Format(domain.DateLayout), period.To.Format(domain.DateLayout))
			fmt.Fprintf(tw, "temperature mean\t%.2f\n", overall.Mean)
			fmt.Fprintf(tw, "temperature min\t%.2f\n", overall.Min)
			fmt.Fprintf(tw, "temperature max\t%.2f\n", overall.Max)
			fmt.Fprintf(tw, "temperature stddev\t%.2f\n", overall.StdDev)
			fmt.Fprintf(tw, "rainfall total\t%.2f\n", yearly.TotalRainfall())
			return tw.Flush()
		},
	}
}
