package main

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/weather-report/internal/adapter/archive"
	"github.com/couchcryptid/weather-report/internal/domain"
)

func newHistoryCmd(a *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List archived report runs",
		Long:  `Show the most recent report runs stored in the SQL archive (ARCHIVE_DSN).`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.cfg.ArchiveDSN == "" {
				return errors.New("ARCHIVE_DSN is not set")
			}
			store, err := archive.Open(cmd.Context(), a.cfg.ArchiveDriver, a.cfg.ArchiveDSN, a.logger)
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.Runs(cmd.Context(), limit)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "RUN\tGENERATED\tPERIOD\tRECORDS\tMEAN\tSOURCE")
			for _, r := range runs {
				fmt.Fprintf(tw, "%s\t%s\t%s..%s\t%d\t%.2f\t%s\n",
					r.RunID,
					r.GeneratedAt.Format(time.RFC3339),
					r.Period.From.Format(domain.DateLayout),
					r.Period.To.Format(domain.DateLayout),
					r.Overall.Count,
					r.Overall.Mean,
					r.Source,
				)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "maximum number of runs to list")
	return cmd
}
