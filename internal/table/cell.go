package table

import (
	"strconv"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/paveg/tablescope/internal/errors"
)

// CellKind tags which field of a Cell is meaningful.
type CellKind uint8

const (
	CellNull CellKind = iota
	CellInt
	CellFloat
	CellText
	CellBool
)

// Cell is a single table value as a tagged variant.
type Cell struct {
	Kind  CellKind
	Int   int64
	Float float64
	Text  string
	Bool  bool
}

// IsNull reports whether the cell is missing.
func (c Cell) IsNull() bool {
	return c.Kind == CellNull
}

// String renders the cell for display; nulls render as "".
func (c Cell) String() string {
	switch c.Kind {
	case CellInt:
		return strconv.FormatInt(c.Int, 10)
	case CellFloat:
		return strconv.FormatFloat(c.Float, 'g', -1, 64)
	case CellText:
		return c.Text
	case CellBool:
		return strconv.FormatBool(c.Bool)
	default:
		return ""
	}
}

// AppendKey appends the canonical serialization of c to dst. Each kind has
// its own tag byte and text is length-prefixed, so distinct cells never
// serialize to the same bytes.
func (c Cell) AppendKey(dst []byte) []byte {
	switch c.Kind {
	case CellInt:
		dst = append(dst, 'i')
		return strconv.AppendInt(dst, c.Int, 10)
	case CellFloat:
		dst = append(dst, 'f')
		v := c.Float
		if v == 0 {
			v = 0 // -0 keys as 0
		}
		return strconv.AppendFloat(dst, v, 'g', -1, 64)
	case CellText:
		dst = append(dst, 's')
		dst = strconv.AppendInt(dst, int64(len(c.Text)), 10)
		dst = append(dst, ':')
		return append(dst, c.Text...)
	case CellBool:
		if c.Bool {
			return append(dst, 'T')
		}
		return append(dst, 'F')
	default:
		return append(dst, 'N')
	}
}

// CellReader reads cells from a fixed set of columns without re-acquiring
// the Arrow arrays for every access. Release it when done.
type CellReader struct {
	names  []string
	arrays []arrow.Array
}

// CellReader returns a reader over the named columns, in the order given.
// With no names, every column is read in table order.
func (t *Table) CellReader(names ...string) (*CellReader, error) {
	if len(names) == 0 {
		names = t.Columns()
	}

	r := &CellReader{names: names, arrays: make([]arrow.Array, 0, len(names))}
	for _, name := range names {
		s, ok := t.columns[name]
		if !ok {
			r.Release()
			return nil, errors.NewColumnNotFoundErrorWithSuggestions("CellReader", name, t.Columns())
		}
		r.arrays = append(r.arrays, s.Array())
	}
	return r, nil
}

// Names returns the column names the reader was built for.
func (r *CellReader) Names() []string {
	return r.names
}

// Width returns the number of columns covered by the reader.
func (r *CellReader) Width() int {
	return len(r.arrays)
}

// Cell returns the value at row for the col-th column of the reader.
func (r *CellReader) Cell(row, col int) Cell {
	return cellAt(r.arrays[col], row)
}

// Release drops the reader's array references.
func (r *CellReader) Release() {
	for _, arr := range r.arrays {
		arr.Release()
	}
	r.arrays = nil
}

// Cell returns the value at row in the named column. Unknown columns and
// out-of-range rows yield a null cell.
func (t *Table) Cell(row int, name string) Cell {
	s, ok := t.columns[name]
	if !ok || row < 0 || row >= s.Len() {
		return Cell{}
	}
	arr := s.Array()
	defer arr.Release()
	return cellAt(arr, row)
}

func cellAt(arr arrow.Array, row int) Cell {
	if arr.IsNull(row) {
		return Cell{}
	}

	switch a := arr.(type) {
	case *array.Int64:
		return Cell{Kind: CellInt, Int: a.Value(row)}
	case *array.Int32:
		return Cell{Kind: CellInt, Int: int64(a.Value(row))}
	case *array.Float64:
		return Cell{Kind: CellFloat, Float: a.Value(row)}
	case *array.Float32:
		return Cell{Kind: CellFloat, Float: float64(a.Value(row))}
	case *array.String:
		return Cell{Kind: CellText, Text: a.Value(row)}
	case *array.Boolean:
		return Cell{Kind: CellBool, Bool: a.Value(row)}
	default:
		return Cell{Kind: CellText, Text: arr.ValueStr(row)}
	}
}
