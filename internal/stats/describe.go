package stats

import (
	"context"
	"math"
	"slices"

	"github.com/paveg/tablescope/internal/parallel"
	"github.com/paveg/tablescope/internal/table"
	"gonum.org/v1/gonum/stat"
)

// ColumnSummary holds descriptive statistics for one column. Only the
// fields relevant to Kind are set; numeric statistics of a column without
// values are NaN.
type ColumnSummary struct {
	Name   string
	Kind   table.ColumnKind
	Count  int
	Nulls  int
	Unique int

	// Numeric columns. Std is the sample standard deviation.
	Mean, Std             float64
	Min, Q25, Median, Q75 float64
	Max                   float64

	// Boolean columns.
	True, False int

	// Categorical columns: the most frequent value, earliest on ties.
	Top     string
	TopFreq int
}

// Describe summarizes every column of t in table order. Columns are
// processed concurrently with up to workers goroutines (<= 0 means one per
// CPU).
func Describe(ctx context.Context, t *table.Table, workers int) ([]ColumnSummary, error) {
	names := t.Columns()
	if len(names) == 0 {
		return []ColumnSummary{}, nil
	}

	pool := parallel.NewWorkerPoolContext(ctx, workers)
	defer pool.Close()

	return parallel.ProcessIndexed(pool, names, func(_ int, name string) ColumnSummary {
		return summarize(t, name)
	})
}

func summarize(t *table.Table, name string) ColumnSummary {
	summary := ColumnSummary{Name: name, Kind: t.Kind(name)}

	reader, err := t.CellReader(name)
	if err != nil {
		return summary
	}
	defer reader.Release()

	counts := newKeySet(t.Len())
	freq := make(map[string]int)
	var numbers []float64
	var order []string
	var key []byte

	for row := 0; row < t.Len(); row++ {
		cell := reader.Cell(row, 0)
		if cell.IsNull() || (cell.Kind == table.CellFloat && math.IsNaN(cell.Float)) {
			summary.Nulls++
			continue
		}
		summary.Count++

		key = cell.AppendKey(key[:0])
		if counts.add(string(key)) {
			summary.Unique++
		}

		switch cell.Kind {
		case table.CellInt:
			numbers = append(numbers, float64(cell.Int))
		case table.CellFloat:
			numbers = append(numbers, cell.Float)
		case table.CellBool:
			if cell.Bool {
				summary.True++
			} else {
				summary.False++
			}
		case table.CellText:
			if _, seen := freq[cell.Text]; !seen {
				order = append(order, cell.Text)
			}
			freq[cell.Text]++
		}
	}

	if summary.Kind == table.Numeric {
		fillNumeric(&summary, numbers)
	}
	for _, v := range order {
		if freq[v] > summary.TopFreq {
			summary.Top, summary.TopFreq = v, freq[v]
		}
	}
	return summary
}

func fillNumeric(s *ColumnSummary, values []float64) {
	if len(values) == 0 {
		nan := math.NaN()
		s.Mean, s.Std = nan, nan
		s.Min, s.Q25, s.Median, s.Q75, s.Max = nan, nan, nan, nan, nan
		return
	}

	sorted := slices.Clone(values)
	slices.Sort(sorted)

	s.Mean, s.Std = stat.MeanStdDev(sorted, nil)
	s.Min = sorted[0]
	s.Max = sorted[len(sorted)-1]
	s.Q25 = stat.Quantile(0.25, stat.Empirical, sorted, nil)
	s.Median = stat.Quantile(0.5, stat.Empirical, sorted, nil)
	s.Q75 = stat.Quantile(0.75, stat.Empirical, sorted, nil)
}
