package stats

import (
	"fmt"
	"math"
	"slices"

	"github.com/paveg/tablescope/internal/errors"
	"github.com/paveg/tablescope/internal/validation"
)

// HistogramResult holds bin counts and the len(Counts)+1 bin edges.
type HistogramResult struct {
	Counts []int
	Edges  []float64
}

// Max returns the tallest bin count.
func (h *HistogramResult) Max() int {
	if len(h.Counts) == 0 {
		return 0
	}
	return slices.Max(h.Counts)
}

// Total returns the number of binned values.
func (h *HistogramResult) Total() int {
	total := 0
	for _, c := range h.Counts {
		total += c
	}
	return total
}

// Histogram counts values into bins equal-width bins over [lo, hi]. Bins are
// half open except the last, which also includes hi. Values outside the
// range and NaNs are not counted. When lo == hi every in-range value falls
// in the first bin.
func Histogram(values []float64, lo, hi float64, bins int) (*HistogramResult, error) {
	const op = "Histogram"
	if bins <= 0 {
		return nil, errors.NewParamError(op, fmt.Sprintf("bin count must be positive, got %d", bins))
	}
	if err := validation.ValidateRange(lo, hi, op); err != nil {
		return nil, err
	}

	width := (hi - lo) / float64(bins)
	edges := make([]float64, bins+1)
	for i := range edges {
		edges[i] = lo + float64(i)*width
	}
	edges[bins] = hi

	counts := make([]int, bins)
	for _, v := range values {
		if math.IsNaN(v) || v < lo || v > hi {
			continue
		}
		idx := 0
		if width > 0 {
			idx = min(int((v-lo)/width), bins-1)
		}
		counts[idx]++
	}

	return &HistogramResult{Counts: counts, Edges: edges}, nil
}
