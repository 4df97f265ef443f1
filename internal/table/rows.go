package table

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/tablescope/internal/errors"
	"github.com/paveg/tablescope/internal/series"
)

// Filter returns a new Table containing the rows where mask is true, in
// their original order.
func (t *Table) Filter(mask []bool) (*Table, error) {
	if len(mask) != t.Len() {
		msg := fmt.Sprintf("mask length %d does not match %d rows", len(mask), t.Len())
		return nil, errors.NewValidationError("Filter", "", msg)
	}

	indices := make([]int, 0, len(mask))
	for i, keep := range mask {
		if keep {
			indices = append(indices, i)
		}
	}
	return t.Take(indices)
}

// Take returns a new Table containing the rows at indices, in the order
// given. Indices may repeat.
func (t *Table) Take(indices []int) (*Table, error) {
	n := t.Len()
	for _, idx := range indices {
		if idx < 0 || idx >= n {
			msg := fmt.Sprintf("index %d out of range [0, %d)", idx, n)
			return nil, errors.NewValidationError("Take", "", msg)
		}
	}

	// Dedicated allocator so the result shares nothing with the source.
	mem := memory.NewGoAllocator()

	taken := make([]series.ISeries, 0, len(t.order))
	for _, name := range t.order {
		s, err := takeSeries(t.columns[name], indices, mem)
		if err != nil {
			for _, done := range taken {
				done.Release()
			}
			return nil, err
		}
		taken = append(taken, s)
	}
	return New(taken...), nil
}

func takeSeries(s series.ISeries, indices []int, mem memory.Allocator) (series.ISeries, error) {
	arr := s.Array()
	defer arr.Release()

	switch typed := arr.(type) {
	case *array.String:
		return takeTypedSeries(s.Name(), typed, indices, mem, typed.Value)
	case *array.Int64:
		return takeTypedSeries(s.Name(), typed, indices, mem, typed.Value)
	case *array.Int32:
		return takeTypedSeries(s.Name(), typed, indices, mem, typed.Value)
	case *array.Float64:
		return takeTypedSeries(s.Name(), typed, indices, mem, typed.Value)
	case *array.Float32:
		return takeTypedSeries(s.Name(), typed, indices, mem, typed.Value)
	case *array.Boolean:
		return takeTypedSeries(s.Name(), typed, indices, mem, typed.Value)
	default:
		return nil, errors.NewUnsupportedTypeError("Take", arr.DataType().String())
	}
}

// takeTypedSeries is a generic helper for gathering rows of a typed array
// while preserving nulls.
func takeTypedSeries[T any](
	name string, arr arrow.Array, indices []int, mem memory.Allocator, getValue func(int) T,
) (series.ISeries, error) {
	values := make([]T, len(indices))
	valid := make([]bool, len(indices))
	for i, idx := range indices {
		if arr.IsNull(idx) {
			continue
		}
		values[i] = getValue(idx)
		valid[i] = true
	}
	s, err := series.NewNullable(name, values, valid, mem)
	if err != nil {
		return nil, err
	}
	return s, nil
}
