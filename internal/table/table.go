// Package table provides the in-memory tabular dataset every analysis
// operates on: ordered, uniquely named, Arrow-backed columns.
package table

import (
	"fmt"
	"strings"

	"github.com/paveg/tablescope/internal/errors"
	"github.com/paveg/tablescope/internal/series"
)

// Table represents a table of data with typed columns
type Table struct {
	columns map[string]series.ISeries
	order   []string // Maintains column order
}

// New creates a new Table from a slice of ISeries. The table takes
// ownership of the series. A later series with an already used name
// replaces the earlier one; use NewChecked to reject that instead.
func New(cols ...series.ISeries) *Table {
	columns := make(map[string]series.ISeries, len(cols))
	order := make([]string, 0, len(cols))

	for _, s := range cols {
		name := s.Name()
		if prev, exists := columns[name]; exists {
			prev.Release()
		} else {
			order = append(order, name)
		}
		columns[name] = s
	}

	return &Table{
		columns: columns,
		order:   order,
	}
}

// NewChecked is New that rejects duplicate column names and ragged columns.
func NewChecked(cols ...series.ISeries) (*Table, error) {
	seen := make(map[string]struct{}, len(cols))
	for i, s := range cols {
		if _, dup := seen[s.Name()]; dup {
			return nil, errors.NewValidationError("NewTable", s.Name(), "duplicate column name")
		}
		seen[s.Name()] = struct{}{}
		if i > 0 && s.Len() != cols[0].Len() {
			msg := fmt.Sprintf("expected length %d, got %d", cols[0].Len(), s.Len())
			return nil, errors.NewValidationError("NewTable", s.Name(), msg)
		}
	}
	return New(cols...), nil
}

// Columns returns the names of all columns in order
func (t *Table) Columns() []string {
	if len(t.order) == 0 {
		return []string{}
	}
	return append([]string(nil), t.order...)
}

// Len returns the number of rows
func (t *Table) Len() int {
	if len(t.order) == 0 {
		return 0
	}
	return t.columns[t.order[0]].Len()
}

// Width returns the number of columns
func (t *Table) Width() int {
	return len(t.order)
}

// Column returns the series for the given column name
func (t *Table) Column(name string) (series.ISeries, bool) {
	s, exists := t.columns[name]
	return s, exists
}

// HasColumn checks if a column exists
func (t *Table) HasColumn(name string) bool {
	_, exists := t.columns[name]
	return exists
}

// IsNull reports whether the cell at row in the named column is missing.
// Unknown columns and out-of-range rows report true.
func (t *Table) IsNull(row int, name string) bool {
	s, ok := t.columns[name]
	if !ok || row < 0 || row >= s.Len() {
		return true
	}
	return s.IsNull(row)
}

// Float64s returns the named numeric column as float64 values with a
// validity mask.
func (t *Table) Float64s(name string) ([]float64, []bool, error) {
	s, ok := t.columns[name]
	if !ok {
		return nil, nil, errors.NewColumnNotFoundError("Float64s", name)
	}
	values, valid, numeric := series.Float64s(s)
	if !numeric {
		return nil, nil, errors.NewUnsupportedTypeError("Float64s", s.DataType().String())
	}
	return values, valid, nil
}

// Select returns a new Table with only the specified columns, in the order
// given. Unknown names are skipped.
func (t *Table) Select(names ...string) *Table {
	selected := make([]series.ISeries, 0, len(names))
	for _, name := range names {
		if s, exists := t.columns[name]; exists {
			selected = append(selected, s.Rename(name))
		}
	}
	return New(selected...)
}

// Drop returns a new Table without the specified columns
func (t *Table) Drop(names ...string) *Table {
	dropSet := make(map[string]bool, len(names))
	for _, name := range names {
		dropSet[name] = true
	}

	kept := make([]string, 0, len(t.order))
	for _, name := range t.order {
		if !dropSet[name] {
			kept = append(kept, name)
		}
	}
	return t.Select(kept...)
}

// Rename returns a new Table with columns renamed according to mapping.
// Every key must exist and the resulting names must stay unique.
func (t *Table) Rename(mapping map[string]string) (*Table, error) {
	for from := range mapping {
		if !t.HasColumn(from) {
			return nil, errors.NewColumnNotFoundErrorWithSuggestions("Rename", from, t.Columns())
		}
	}

	renamed := make([]series.ISeries, 0, len(t.order))
	seen := make(map[string]struct{}, len(t.order))
	for _, name := range t.order {
		target := name
		if to, ok := mapping[name]; ok {
			target = to
		}
		if _, dup := seen[target]; dup {
			for _, s := range renamed {
				s.Release()
			}
			return nil, errors.NewValidationError("Rename", target, "duplicate column name")
		}
		seen[target] = struct{}{}
		renamed = append(renamed, t.columns[name].Rename(target))
	}
	return New(renamed...), nil
}

// ReplaceColumn returns a new Table where the column named s.Name() is
// replaced by s, keeping its position. The new table owns s.
func (t *Table) ReplaceColumn(s series.ISeries) (*Table, error) {
	if !t.HasColumn(s.Name()) {
		return nil, errors.NewColumnNotFoundError("ReplaceColumn", s.Name())
	}
	if s.Len() != t.Len() {
		msg := fmt.Sprintf("expected length %d, got %d", t.Len(), s.Len())
		return nil, errors.NewValidationError("ReplaceColumn", s.Name(), msg)
	}

	cols := make([]series.ISeries, 0, len(t.order))
	for _, name := range t.order {
		if name == s.Name() {
			cols = append(cols, s)
			continue
		}
		cols = append(cols, t.columns[name].Rename(name))
	}
	return New(cols...), nil
}

// String returns a string representation of the Table
func (t *Table) String() string {
	if len(t.order) == 0 {
		return "Table[empty]"
	}

	parts := []string{fmt.Sprintf("Table[%dx%d]", t.Len(), t.Width())}
	for _, name := range t.order {
		s := t.columns[name]
		parts = append(parts, fmt.Sprintf("  %s: %s (%s)", name, s.DataType().String(), KindOf(s)))
	}
	return strings.Join(parts, "\n")
}

// Release releases all underlying Arrow memory
func (t *Table) Release() {
	for _, s := range t.columns {
		s.Release()
	}
}
