// Package transform derives new tables from existing ones: renaming
// columns, filling nulls, converting column types and dropping duplicate
// rows. Inputs are never modified.
package transform

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/tablescope/internal/errors"
	"github.com/paveg/tablescope/internal/series"
	"github.com/paveg/tablescope/internal/stats"
	"github.com/paveg/tablescope/internal/table"
	"github.com/paveg/tablescope/internal/validation"
)

// Type is a column type a column can be cast to.
type Type string

// Cast targets
const (
	TypeInt    Type = "int"
	TypeFloat  Type = "float"
	TypeString Type = "string"
	TypeBool   Type = "bool"
)

// ParseType accepts the target names and their common aliases.
func ParseType(s string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "int", "int64", "integer":
		return TypeInt, nil
	case "float", "float64", "double", "number":
		return TypeFloat, nil
	case "string", "str", "text":
		return TypeString, nil
	case "bool", "boolean":
		return TypeBool, nil
	default:
		return "", errors.NewParamError("Cast", fmt.Sprintf("unknown type %q", s))
	}
}

// Rename returns a copy of t with columns renamed per mapping.
func Rename(t *table.Table, mapping map[string]string) (*table.Table, error) {
	for from, to := range mapping {
		if strings.TrimSpace(to) == "" {
			return nil, errors.NewParamError("Rename", fmt.Sprintf("new name for %q is empty", from))
		}
	}
	return t.Rename(mapping)
}

// DropDuplicates returns the rows of t that Duplicated does not mark.
func DropDuplicates(t *table.Table, subset []string, keep stats.Keep) (*table.Table, error) {
	flags, err := stats.Duplicated(t, subset, keep)
	if err != nil {
		return nil, err
	}
	mask := make([]bool, len(flags))
	for i, dup := range flags {
		mask[i] = !dup
	}
	return t.Filter(mask)
}

// FillNull replaces nulls in the given columns (every column when none are
// named) with value parsed as each column's type. NaN float values are
// filled too.
func FillNull(t *table.Table, value string, columns ...string) (*table.Table, error) {
	if len(columns) == 0 {
		columns = t.Columns()
	}
	if err := validation.ValidateColumns(t, "FillNull", columns...); err != nil {
		return nil, err
	}

	mem := memory.NewGoAllocator()
	filled := make(map[string]series.ISeries, len(columns))
	for _, name := range columns {
		if _, done := filled[name]; done {
			continue
		}
		s, err := fillColumn(t, name, value, mem)
		if err != nil {
			for _, done := range filled {
				done.Release()
			}
			return nil, err
		}
		filled[name] = s
	}

	cols := make([]series.ISeries, 0, t.Width())
	for _, name := range t.Columns() {
		if s, ok := filled[name]; ok {
			cols = append(cols, s)
			continue
		}
		orig, _ := t.Column(name)
		cols = append(cols, orig.Rename(name))
	}
	return table.New(cols...), nil
}

func fillColumn(t *table.Table, name, value string, mem memory.Allocator) (series.ISeries, error) {
	col, _ := t.Column(name)

	n := t.Len()
	missing := func(c table.Cell) bool {
		return c.IsNull() || (c.Kind == table.CellFloat && math.IsNaN(c.Float))
	}

	//nolint:exhaustive // other types are filled as text
	switch col.DataType().ID() {
	case arrow.INT64, arrow.INT32:
		fill, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
		if err != nil {
			return nil, fillError(name, value, "an integer")
		}
		return build(name, n, mem, func(i int) (int64, bool) {
			c := t.Cell(i, name)
			if missing(c) {
				return fill, true
			}
			return c.Int, true
		})
	case arrow.FLOAT64, arrow.FLOAT32:
		fill, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return nil, fillError(name, value, "a number")
		}
		return build(name, n, mem, func(i int) (float64, bool) {
			c := t.Cell(i, name)
			if missing(c) {
				return fill, true
			}
			return c.Float, true
		})
	case arrow.BOOL:
		fill, err := strconv.ParseBool(strings.TrimSpace(value))
		if err != nil {
			return nil, fillError(name, value, "a boolean")
		}
		return build(name, n, mem, func(i int) (bool, bool) {
			c := t.Cell(i, name)
			if missing(c) {
				return fill, true
			}
			return c.Bool, true
		})
	default:
		return build(name, n, mem, func(i int) (string, bool) {
			c := t.Cell(i, name)
			if missing(c) {
				return value, true
			}
			return c.String(), true
		})
	}
}

func fillError(column, value, want string) error {
	return errors.NewValidationError("FillNull", column, fmt.Sprintf("fill value %q is not %s", value, want))
}

// Cast converts a column to target. Conversions that cannot represent a
// value (text that does not parse, non-finite floats to int) fail with an
// invalid input error naming the first offending row. Nulls stay null.
func Cast(t *table.Table, column string, target Type) (*table.Table, error) {
	if err := validation.ValidateColumns(t, "Cast", column); err != nil {
		return nil, err
	}

	mem := memory.NewGoAllocator()
	n := t.Len()
	badRow := -1
	var convErr error
	var s series.ISeries
	var err error
	fail := func(i int, e error) {
		if badRow < 0 {
			badRow, convErr = i, e
		}
	}

	switch target {
	case TypeInt:
		s, err = build(column, n, mem, func(i int) (int64, bool) {
			v, ok, e := toInt(t.Cell(i, column))
			if e != nil {
				fail(i, e)
			}
			return v, ok
		})
	case TypeFloat:
		s, err = build(column, n, mem, func(i int) (float64, bool) {
			v, ok, e := toFloat(t.Cell(i, column))
			if e != nil {
				fail(i, e)
			}
			return v, ok
		})
	case TypeBool:
		s, err = build(column, n, mem, func(i int) (bool, bool) {
			v, ok, e := toBool(t.Cell(i, column))
			if e != nil {
				fail(i, e)
			}
			return v, ok
		})
	case TypeString:
		s, err = build(column, n, mem, func(i int) (string, bool) {
			c := t.Cell(i, column)
			return c.String(), !c.IsNull()
		})
	default:
		return nil, errors.NewParamError("Cast", fmt.Sprintf("unknown type %q", target))
	}
	if err != nil {
		return nil, err
	}
	if badRow >= 0 {
		s.Release()
		msg := fmt.Sprintf("row %d cannot be cast to %s: %v", badRow, target, convErr)
		return nil, errors.NewInvalidInputError("Cast", msg).WithCause(convErr)
	}

	out, err := t.ReplaceColumn(s)
	if err != nil {
		s.Release()
		return nil, err
	}
	return out, nil
}

func toInt(c table.Cell) (int64, bool, error) {
	switch c.Kind {
	case table.CellInt:
		return c.Int, true, nil
	case table.CellFloat:
		if math.IsNaN(c.Float) {
			return 0, false, nil
		}
		if math.IsInf(c.Float, 0) || math.Abs(c.Float) > math.MaxInt64 {
			return 0, false, fmt.Errorf("%v is out of range", c.Float)
		}
		return int64(c.Float), true, nil
	case table.CellBool:
		if c.Bool {
			return 1, true, nil
		}
		return 0, true, nil
	case table.CellText:
		text := strings.TrimSpace(c.Text)
		if v, err := strconv.ParseInt(text, 10, 64); err == nil {
			return v, true, nil
		}
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return 0, false, err
		}
		return toInt(table.Cell{Kind: table.CellFloat, Float: f})
	default:
		return 0, false, nil
	}
}

func toFloat(c table.Cell) (float64, bool, error) {
	switch c.Kind {
	case table.CellInt:
		return float64(c.Int), true, nil
	case table.CellFloat:
		return c.Float, true, nil
	case table.CellBool:
		if c.Bool {
			return 1, true, nil
		}
		return 0, true, nil
	case table.CellText:
		v, err := strconv.ParseFloat(strings.TrimSpace(c.Text), 64)
		if err != nil {
			return 0, false, err
		}
		return v, true, nil
	default:
		return 0, false, nil
	}
}

func toBool(c table.Cell) (bool, bool, error) {
	switch c.Kind {
	case table.CellInt:
		return c.Int != 0, true, nil
	case table.CellFloat:
		if math.IsNaN(c.Float) {
			return false, false, nil
		}
		return c.Float != 0, true, nil
	case table.CellBool:
		return c.Bool, true, nil
	case table.CellText:
		v, err := strconv.ParseBool(strings.TrimSpace(c.Text))
		if err != nil {
			return false, false, err
		}
		return v, true, nil
	default:
		return false, false, nil
	}
}

// build creates a nullable series of n rows from at; ok == false marks a
// null.
func build[T any](name string, n int, mem memory.Allocator, at func(int) (T, bool)) (series.ISeries, error) {
	values := make([]T, n)
	valid := make([]bool, n)
	for i := range n {
		values[i], valid[i] = at(i)
	}
	s, err := series.NewNullable(name, values, valid, mem)
	if err != nil {
		return nil, err
	}
	return s, nil
}
