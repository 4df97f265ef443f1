package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/paveg/tablescope"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newShowCmd(a *app) *cobra.Command {
	var page int
	cmd := &cobra.Command{
		Use:   "show <source>",
		Short: "Print one page of the dataset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := a.load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			defer d.Release()

			pv, err := tablescope.Page(d, page, a.settings.RowsPerPage, a.settings.MaxColumns)
			if err != nil {
				return err
			}
			return printPage(cmd.OutOrStdout(), d, pv)
		},
	}
	cmd.Flags().IntVarP(&page, "page", "p", 1, "page number, starting at 1")
	return cmd
}

func newDescribeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "describe <source>",
		Short: "Print descriptive statistics for every column",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := a.load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			defer d.Release()

			summaries, err := tablescope.Describe(cmd.Context(), d)
			if err != nil {
				return err
			}
			return printSummaries(cmd.OutOrStdout(), summaries)
		},
	}
}

func newDuplicatesCmd(a *app) *cobra.Command {
	var (
		subset []string
		keep   string
		drop   bool
	)
	cmd := &cobra.Command{
		Use:   "duplicates <source>",
		Short: "Find duplicate rows, or print the dataset without them",
		Long: `Find rows that repeat over --subset (all columns by default).

--keep first leaves the first occurrence unmarked, last the last one, and
false marks every occurrence. With --drop the remaining rows are written as
CSV to stdout.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			policy, err := tablescope.ParseKeep(keep)
			if err != nil {
				return err
			}
			d, err := a.load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			defer d.Release()

			if drop {
				sep, err := a.settings.Separator()
				if err != nil {
					return err
				}
				deduped, err := tablescope.DropDuplicates(d, subset, policy)
				if err != nil {
					return err
				}
				defer deduped.Release()
				a.logger.Info("Dropped duplicates",
					zap.Int("before", d.Len()), zap.Int("after", deduped.Len()))
				return tablescope.WriteCSV(deduped, cmd.OutOrStdout(), sep)
			}

			flags, err := tablescope.Duplicated(d, subset, policy)
			if err != nil {
				return err
			}
			return printDuplicates(cmd.OutOrStdout(), flags)
		},
	}
	cmd.Flags().StringSliceVar(&subset, "subset", nil, "columns compared (comma separated, default all)")
	cmd.Flags().StringVar(&keep, "keep", "first", "which occurrence stays unmarked: first, last or false")
	cmd.Flags().BoolVar(&drop, "drop", false, "write the dataset without duplicates as CSV")
	return cmd
}

func newKDECmd(a *app) *cobra.Command {
	var (
		column    string
		bandwidth string
		counts    bool
		bins      int
	)
	cmd := &cobra.Command{
		Use:   "kde <source>",
		Short: "Estimate the density of a numeric column",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("bandwidth") {
				bandwidth = a.settings.KDEBandwidth
			}
			if !cmd.Flags().Changed("bins") {
				bins = a.settings.KDEBinCount
			}
			bw, err := tablescope.ParseBandwidth(bandwidth)
			if err != nil {
				return err
			}

			d, err := a.load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			defer d.Release()

			opts := tablescope.KDEOptions{AsProbability: !counts, BinCount: bins}
			res, err := tablescope.ColumnKDE(d, column, bw, opts)
			if err != nil {
				return err
			}
			return printKDE(cmd.OutOrStdout(), column, bw, res)
		},
	}
	cmd.Flags().StringVarP(&column, "column", "c", "", "numeric column to estimate")
	cmd.Flags().StringVar(&bandwidth, "bandwidth", "", "silverman, scott or a positive number (default from config)")
	cmd.Flags().BoolVar(&counts, "counts", false, "scale the curve to histogram counts instead of probability")
	cmd.Flags().IntVar(&bins, "bins", 0, "histogram bin cap used with --counts (default from config)")
	_ = cmd.MarkFlagRequired("column")
	return cmd
}

func newCorrCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "corr <source>",
		Short: "Print the Pearson correlation matrix of the numeric columns",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := a.load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			defer d.Release()

			return printCorrelation(cmd.OutOrStdout(), tablescope.PearsonCorrelation(d))
		},
	}
}

func newExportCmd(a *app) *cobra.Command {
	var (
		out         string
		compression string
	)
	cmd := &cobra.Command{
		Use:   "export <source>",
		Short: "Write the dataset as CSV or Parquet",
		Long: `Write the dataset to --out. The format follows the extension: .csv uses
the configured separator, .parquet the --compression codec.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ext := strings.ToLower(filepath.Ext(out))
			if ext != ".csv" && ext != ".parquet" {
				return fmt.Errorf("%w: export to %q, use .csv or .parquet", tablescope.ErrUnsupported, out)
			}

			d, err := a.load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			defer d.Release()

			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("create output: %w", err)
			}
			if ext == ".csv" {
				var sep rune
				if sep, err = a.settings.Separator(); err == nil {
					err = tablescope.WriteCSV(d, f, sep)
				}
			} else {
				err = tablescope.WriteParquet(d, f, compression)
			}
			if cerr := f.Close(); err == nil {
				err = cerr
			}
			if err != nil {
				return fmt.Errorf("export %s: %w", out, err)
			}

			a.logger.Info("Exported dataset",
				zap.String("out", out), zap.Int("rows", d.Len()), zap.Int("columns", d.Width()))
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d rows to %s\n", d.Len(), out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (.csv or .parquet)")
	cmd.Flags().StringVar(&compression, "compression", "snappy", "parquet codec: snappy, gzip, lz4, zstd or uncompressed")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}
