package stats

import (
	"math"

	"github.com/paveg/tablescope/internal/table"
	"gonum.org/v1/gonum/stat"
)

// CorrelationMatrix is a square matrix of Pearson coefficients keyed by
// column name on both axes. Entries are in [-1, 1] or NaN.
type CorrelationMatrix struct {
	Columns []string
	Values  map[string]map[string]float64
}

// At returns the coefficient for the pair (a, b). ok is false when either
// column is not part of the matrix.
func (m *CorrelationMatrix) At(a, b string) (r float64, ok bool) {
	row, ok := m.Values[a]
	if !ok {
		return math.NaN(), false
	}
	r, ok = row[b]
	if !ok {
		return math.NaN(), false
	}
	return r, true
}

// NaNCount returns the number of undefined entries, counting each
// unordered pair once.
func (m *CorrelationMatrix) NaNCount() int {
	count := 0
	for i, a := range m.Columns {
		for _, b := range m.Columns[i+1:] {
			if math.IsNaN(m.Values[a][b]) {
				count++
			}
		}
	}
	return count
}

// PearsonCorrelation computes the pairwise correlation of every numeric
// column. Each pair uses only the rows where both columns hold a value.
// Pairs with fewer than two such rows, or where either side is constant,
// are NaN. The diagonal is exactly 1.
//
// It returns nil when the table has no rows or fewer than two numeric
// columns.
func PearsonCorrelation(t *table.Table) *CorrelationMatrix {
	if t == nil || t.Width() == 0 || t.Len() == 0 {
		return nil
	}
	columns := t.NumericColumns()
	if len(columns) < 2 {
		return nil
	}

	data := make(map[string]numericColumn, len(columns))
	for _, name := range columns {
		values, valid, err := t.Float64s(name)
		if err != nil {
			// Leaves the column empty so its pairs come out NaN.
			continue
		}
		data[name] = numericColumn{values: values, valid: valid}
	}

	matrix := &CorrelationMatrix{
		Columns: columns,
		Values:  make(map[string]map[string]float64, len(columns)),
	}
	for _, a := range columns {
		matrix.Values[a] = make(map[string]float64, len(columns))
	}

	for _, a := range columns {
		for _, b := range columns {
			switch {
			case a == b:
				matrix.Values[a][b] = 1
			default:
				if r, done := matrix.Values[b][a]; done {
					matrix.Values[a][b] = r
					continue
				}
				matrix.Values[a][b] = pairCorrelation(data[a], data[b])
			}
		}
	}
	return matrix
}

type numericColumn struct {
	values []float64
	valid  []bool
}

// present reports whether row i holds a usable value.
func (c numericColumn) present(i int) bool {
	return i < len(c.values) && c.valid[i] && !math.IsNaN(c.values[i])
}

// pairCorrelation computes the sample Pearson coefficient over the rows
// where both columns are present. A panic while computing one pair yields
// NaN for that pair only.
func pairCorrelation(a, b numericColumn) (r float64) {
	defer func() {
		if recover() != nil {
			r = math.NaN()
		}
	}()

	n := min(len(a.values), len(b.values))
	xs := make([]float64, 0, n)
	ys := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		if a.present(i) && b.present(i) {
			xs = append(xs, a.values[i])
			ys = append(ys, b.values[i])
		}
	}

	if len(xs) < 2 || constant(xs) || constant(ys) {
		return math.NaN()
	}

	meanX, stdX := stat.MeanStdDev(xs, nil)
	meanY, stdY := stat.MeanStdDev(ys, nil)
	if stdX == 0 || stdY == 0 || math.IsNaN(stdX) || math.IsNaN(stdY) {
		return math.NaN()
	}

	var sum float64
	for i := range xs {
		sum += (xs[i] - meanX) * (ys[i] - meanY)
	}
	r = sum / (float64(len(xs)-1) * stdX * stdY)

	// Rounding can push a perfect fit marginally past the bounds.
	return math.Max(-1, math.Min(1, r))
}

// constant reports whether every value equals the first. Checked directly
// because a computed standard deviation of equal values may not be 0.
func constant(values []float64) bool {
	for _, v := range values[1:] {
		if v != values[0] {
			return false
		}
	}
	return true
}
