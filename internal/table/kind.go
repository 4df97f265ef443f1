package table

import (
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/paveg/tablescope/internal/series"
)

// ColumnKind is the declared type family of a column.
type ColumnKind int

const (
	// Unsupported covers Arrow types the analyses do not understand.
	Unsupported ColumnKind = iota
	// Numeric columns hold integers or floats.
	Numeric
	// Boolean columns hold true/false.
	Boolean
	// Categorical columns hold strings.
	Categorical
)

func (k ColumnKind) String() string {
	switch k {
	case Numeric:
		return "numeric"
	case Boolean:
		return "boolean"
	case Categorical:
		return "categorical"
	default:
		return "unsupported"
	}
}

// KindOf maps a series' Arrow type onto a ColumnKind.
func KindOf(s series.ISeries) ColumnKind {
	//nolint:exhaustive // everything else is Unsupported
	switch s.DataType().ID() {
	case arrow.INT64, arrow.INT32, arrow.FLOAT64, arrow.FLOAT32:
		return Numeric
	case arrow.BOOL:
		return Boolean
	case arrow.STRING:
		return Categorical
	default:
		return Unsupported
	}
}

// Kind returns the kind of the named column, or Unsupported if absent.
func (t *Table) Kind(name string) ColumnKind {
	s, ok := t.columns[name]
	if !ok {
		return Unsupported
	}
	return KindOf(s)
}

// NumericColumns returns the names of numeric columns in table order.
func (t *Table) NumericColumns() []string {
	var names []string
	for _, name := range t.order {
		if KindOf(t.columns[name]) == Numeric {
			names = append(names, name)
		}
	}
	return names
}
