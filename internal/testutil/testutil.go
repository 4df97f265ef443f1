// Package testutil provides shared fixtures and assertions for tests that
// work with tables.
//
// It covers the patterns repeated across the package tests:
// - building small tables column by column, with or without nulls
// - a standard employee dataset with options
// - releasing tables automatically at test cleanup
// - cell-by-cell table comparison
package testutil

import (
	"testing"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/tablescope/internal/series"
	"github.com/paveg/tablescope/internal/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	// defaultRowCount is the default number of rows in the employee table.
	defaultRowCount = 4
)

// Column builds a series with the given allocator.
type Column func(mem memory.Allocator) series.ISeries

// Ints returns an int64 column.
func Ints(name string, values ...int64) Column {
	return func(mem memory.Allocator) series.ISeries {
		return series.New(name, values, mem)
	}
}

// Floats returns a float64 column.
func Floats(name string, values ...float64) Column {
	return func(mem memory.Allocator) series.ISeries {
		return series.New(name, values, mem)
	}
}

// Strings returns a string column.
func Strings(name string, values ...string) Column {
	return func(mem memory.Allocator) series.ISeries {
		return series.New(name, values, mem)
	}
}

// Bools returns a boolean column.
func Bools(name string, values ...bool) Column {
	return func(mem memory.Allocator) series.ISeries {
		return series.New(name, values, mem)
	}
}

// Nullable returns a column where valid[i] == false marks row i as null.
func Nullable[T any](name string, values []T, valid []bool) Column {
	return func(mem memory.Allocator) series.ISeries {
		s, err := series.NewNullable(name, values, valid, mem)
		if err != nil {
			panic(err)
		}
		return s
	}
}

// NewTable builds a table from cols and releases it when the test ends.
func NewTable(tb testing.TB, cols ...Column) *table.Table {
	tb.Helper()

	mem := memory.NewGoAllocator()
	built := make([]series.ISeries, 0, len(cols))
	for _, col := range cols {
		built = append(built, col(mem))
	}

	t, err := table.NewChecked(built...)
	require.NoError(tb, err)
	tb.Cleanup(t.Release)
	return t
}

// TableOption configures the employee table.
type TableOption func(*employeeConfig)

type employeeConfig struct {
	includeNulls bool
	rowCount     int
	withActive   bool
}

// WithNulls makes every third age null.
func WithNulls() TableOption {
	return func(cfg *employeeConfig) {
		cfg.includeNulls = true
	}
}

// WithRowCount sets the number of rows.
func WithRowCount(count int) TableOption {
	return func(cfg *employeeConfig) {
		cfg.rowCount = count
	}
}

// WithActiveColumn includes an 'active' boolean column.
func WithActiveColumn() TableOption {
	return func(cfg *employeeConfig) {
		cfg.withActive = true
	}
}

// EmployeeTable creates the standard employee dataset and releases it when
// the test ends.
//
// Default columns:
// - name (string): ["Alice", "Bob", "Charlie", "David"]
// - age (int64): [25, 30, 35, 28]
// - department (string): ["Engineering", "Sales", "Engineering", "Marketing"]
// - salary (float64): [100000, 80000, 120000, 75000]
func EmployeeTable(tb testing.TB, opts ...TableOption) *table.Table {
	tb.Helper()

	cfg := &employeeConfig{rowCount: defaultRowCount}
	for _, opt := range opts {
		opt(cfg)
	}

	var ageValid []bool
	if cfg.includeNulls {
		ageValid = make([]bool, cfg.rowCount)
		for i := range ageValid {
			ageValid[i] = i%3 != 1
		}
	}

	cols := []Column{
		Strings("name", cycle(cfg.rowCount, "Alice", "Bob", "Charlie", "David", "Eve", "Frank", "Grace", "Henry")...),
		Nullable("age", cycle[int64](cfg.rowCount, 25, 30, 35, 28, 32, 45, 29, 38), ageValid),
		Strings("department", cycle(cfg.rowCount,
			"Engineering", "Sales", "Engineering", "Marketing", "HR", "Finance", "Engineering", "Sales")...),
		Floats("salary", cycle[float64](cfg.rowCount, 100000, 80000, 120000, 75000, 90000, 110000, 95000, 85000)...),
	}
	if cfg.withActive {
		cols = append(cols, Bools("active", cycle(cfg.rowCount, true, true, false, true, true, false, true, false)...))
	}

	return NewTable(tb, cols...)
}

// AssertTableEqual compares two tables cell by cell.
func AssertTableEqual(tb testing.TB, expected, actual *table.Table) {
	tb.Helper()

	require.NotNil(tb, expected, "expected table should not be nil")
	require.NotNil(tb, actual, "actual table should not be nil")

	require.Equal(tb, expected.Columns(), actual.Columns(), "table columns should match")
	require.Equal(tb, expected.Len(), actual.Len(), "table lengths should match")

	for _, name := range expected.Columns() {
		assert.Equal(tb, expected.Kind(name), actual.Kind(name), "column %s kind should match", name)
		for row := 0; row < expected.Len(); row++ {
			assert.Equal(tb, expected.Cell(row, name), actual.Cell(row, name),
				"cell (%d, %s) should match", row, name)
		}
	}
}

// AssertTableHasColumns verifies that a table has exactly the expected
// columns, in order.
func AssertTableHasColumns(tb testing.TB, t *table.Table, expected ...string) {
	tb.Helper()

	require.NotNil(tb, t, "table should not be nil")
	assert.Equal(tb, expected, t.Columns())
}

// ColumnCells returns the cells of one column as strings, nulls as "".
func ColumnCells(t *table.Table, name string) []string {
	out := make([]string, t.Len())
	for row := range out {
		out[row] = t.Cell(row, name).String()
	}
	return out
}

func cycle[T any](count int, base ...T) []T {
	out := make([]T, count)
	for i := range count {
		out[i] = base[i%len(base)]
	}
	return out
}
