package main

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/paveg/tablescope"
	"github.com/paveg/tablescope/internal/table"
)

func newTabWriter(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	return strconv.FormatFloat(v, 'g', 6, 64)
}

func printPage(w io.Writer, d *tablescope.Dataset, pv *tablescope.PageView) error {
	tw := newTabWriter(w)
	fmt.Fprintln(tw, strings.Join(pv.Header, "\t"))
	for _, row := range pv.Rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(w, "\nPage %d of %d (%d rows)\n", pv.Page, pv.TotalPages, pv.TotalRows)
	if pv.Truncated {
		fmt.Fprintf(w, "Showing %d of %d columns\n", len(pv.Header), d.Width())
	}
	return nil
}

func printSummaries(w io.Writer, summaries []tablescope.ColumnSummary) error {
	tw := newTabWriter(w)
	fmt.Fprintln(tw, "column\tkind\tcount\tnulls\tunique\tmean\tstd\tmin\t25%\t50%\t75%\tmax\ttop\tfreq")
	for _, s := range summaries {
		cells := []string{
			s.Name, s.Kind.String(),
			strconv.Itoa(s.Count), strconv.Itoa(s.Nulls), strconv.Itoa(s.Unique),
		}
		//nolint:exhaustive // categorical and unsupported columns share a layout
		switch s.Kind {
		case table.Numeric:
			for _, v := range []float64{s.Mean, s.Std, s.Min, s.Q25, s.Median, s.Q75, s.Max} {
				cells = append(cells, formatFloat(v))
			}
			cells = append(cells, "-", "-")
		case table.Boolean:
			cells = append(cells, "-", "-", "-", "-", "-", "-", "-",
				"true", strconv.Itoa(s.True))
		default:
			cells = append(cells, "-", "-", "-", "-", "-", "-", "-",
				s.Top, strconv.Itoa(s.TopFreq))
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	return tw.Flush()
}

func printDuplicates(w io.Writer, flags []bool) error {
	var rows []string
	for i, dup := range flags {
		if dup {
			rows = append(rows, strconv.Itoa(i))
		}
	}
	fmt.Fprintf(w, "%d of %d rows are duplicates\n", len(rows), len(flags))
	if len(rows) > 0 {
		fmt.Fprintf(w, "Rows: %s\n", strings.Join(rows, ", "))
	}
	return nil
}

func printKDE(w io.Writer, column string, bw tablescope.Bandwidth, res *tablescope.KDEResult) error {
	fmt.Fprintf(w, "Density of %s (bandwidth %s = %s)\n", column, bw, formatFloat(res.Bandwidth))
	tw := newTabWriter(w)
	fmt.Fprintln(tw, "x\ty")
	for i := range res.X {
		fmt.Fprintf(tw, "%s\t%s\n", formatFloat(res.X[i]), formatFloat(res.Y[i]))
	}
	return tw.Flush()
}

func printCorrelation(w io.Writer, m *tablescope.CorrelationMatrix) error {
	if m == nil {
		fmt.Fprintln(w, "Correlation needs at least two numeric columns and one row")
		return nil
	}

	tw := newTabWriter(w)
	fmt.Fprintln(tw, "\t"+strings.Join(m.Columns, "\t"))
	for _, a := range m.Columns {
		cells := []string{a}
		for _, b := range m.Columns {
			r, _ := m.At(a, b)
			cells = append(cells, formatFloat(r))
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	return tw.Flush()
}
