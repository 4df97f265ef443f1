package main

import (
	"fmt"
	"io"

	"github.com/paveg/tablescope"
	"github.com/paveg/tablescope/internal/monitoring"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newReportCmd(a *app) *cobra.Command {
	var timings bool
	cmd := &cobra.Command{
		Use:   "report <source>",
		Short: "Print statistics, duplicate count and correlations in one pass",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := a.load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			defer d.Release()

			var (
				summaries  []tablescope.ColumnSummary
				duplicates int
				corr       *tablescope.CorrelationMatrix
			)
			metrics := monitoring.NewCollector(true)
			rows := d.Len()

			g, ctx := errgroup.WithContext(cmd.Context())
			g.Go(func() error {
				return metrics.Record("describe", rows, func() (err error) {
					summaries, err = tablescope.Describe(ctx, d)
					return err
				})
			})
			g.Go(func() error {
				return metrics.Record("duplicates", rows, func() (err error) {
					duplicates, err = tablescope.CountDuplicates(d, nil, tablescope.KeepFirst)
					return err
				})
			})
			g.Go(func() error {
				return metrics.Record("correlation", rows, func() error {
					corr = tablescope.PearsonCorrelation(d)
					return nil
				})
			})
			err = g.Wait()
			metrics.Log(a.logger)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Dataset %s: %d rows, %d columns\n\n", d.Source(), d.Len(), d.Width())
			if err := printSummaries(out, summaries); err != nil {
				return err
			}
			fmt.Fprintf(out, "\nDuplicate rows: %d\n\n", duplicates)
			if err := printCorrelation(out, corr); err != nil {
				return err
			}
			if timings {
				return printTimings(out, metrics)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&timings, "timings", false, "print how long each analysis took")
	return cmd
}

func printTimings(w io.Writer, metrics *monitoring.Collector) error {
	fmt.Fprintln(w)
	tw := newTabWriter(w)
	fmt.Fprintln(tw, "operation\tduration")
	for _, m := range metrics.Metrics() {
		fmt.Fprintf(tw, "%s\t%s\n", m.Operation, m.Duration)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	s := metrics.Summary()
	fmt.Fprintf(w, "Slowest: %s\n", s.Slowest)
	return nil
}
