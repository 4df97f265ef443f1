package transform_test

import (
	"math"
	"testing"

	tserrors "github.com/paveg/tablescope/internal/errors"
	"github.com/paveg/tablescope/internal/stats"
	"github.com/paveg/tablescope/internal/table"
	"github.com/paveg/tablescope/internal/testutil"
	"github.com/paveg/tablescope/internal/transform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRename(t *testing.T) {
	tbl := testutil.EmployeeTable(t)

	out, err := transform.Rename(tbl, map[string]string{"salary": "pay"})
	require.NoError(t, err)
	defer out.Release()
	testutil.AssertTableHasColumns(t, out, "name", "age", "department", "pay")

	_, err = transform.Rename(tbl, map[string]string{"salary": " "})
	assert.ErrorIs(t, err, tserrors.ErrParam)

	_, err = transform.Rename(tbl, map[string]string{"salry": "pay"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Did you mean 'salary'?")
}

func TestDropDuplicates(t *testing.T) {
	tbl := testutil.NewTable(t,
		testutil.Ints("a", 1, 1, 2, 1),
		testutil.Strings("b", "x", "x", "y", "z"),
	)

	tests := []struct {
		name   string
		subset []string
		keep   stats.Keep
		wantA  []string
		wantB  []string
	}{
		{"all columns keep first", nil, stats.KeepFirst, []string{"1", "2", "1"}, []string{"x", "y", "z"}},
		{"subset keep last", []string{"a"}, stats.KeepLast, []string{"2", "1"}, []string{"y", "z"}},
		{"keep none", []string{"a"}, stats.KeepNone, []string{"2"}, []string{"y"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := transform.DropDuplicates(tbl, tt.subset, tt.keep)
			require.NoError(t, err)
			defer out.Release()

			assert.Equal(t, tt.wantA, testutil.ColumnCells(out, "a"))
			assert.Equal(t, tt.wantB, testutil.ColumnCells(out, "b"))
		})
	}

	_, err := transform.DropDuplicates(tbl, []string{"c"}, stats.KeepFirst)
	assert.ErrorIs(t, err, tserrors.ErrParam)
}

func TestFillNull(t *testing.T) {
	tbl := testutil.NewTable(t,
		testutil.Nullable("i", []int64{1, 0, 3}, []bool{true, false, true}),
		testutil.Nullable("f", []float64{math.NaN(), 0, 2.5}, []bool{true, false, true}),
		testutil.Nullable("s", []string{"a", "", "c"}, []bool{true, false, true}),
		testutil.Nullable("b", []bool{true, false, false}, []bool{true, false, true}),
	)

	t.Run("selected column", func(t *testing.T) {
		out, err := transform.FillNull(tbl, "0", "i", "f")
		require.NoError(t, err)
		defer out.Release()

		assert.Equal(t, tbl.Columns(), out.Columns())
		assert.Equal(t, []string{"1", "0", "3"}, testutil.ColumnCells(out, "i"))
		assert.Equal(t, []string{"0", "0", "2.5"}, testutil.ColumnCells(out, "f"), "NaN counts as missing")
		assert.True(t, out.IsNull(1, "s"), "unselected columns untouched")
		assert.True(t, tbl.IsNull(1, "i"), "input untouched")
	})

	t.Run("text value for text column", func(t *testing.T) {
		out, err := transform.FillNull(tbl, "n/a", "s")
		require.NoError(t, err)
		defer out.Release()
		assert.Equal(t, "n/a", out.Cell(1, "s").Text)
	})

	t.Run("bool column", func(t *testing.T) {
		out, err := transform.FillNull(tbl, "true", "b")
		require.NoError(t, err)
		defer out.Release()
		assert.Equal(t, table.Cell{Kind: table.CellBool, Bool: true}, out.Cell(1, "b"))
	})

	t.Run("value does not parse", func(t *testing.T) {
		_, err := transform.FillNull(tbl, "zero")
		require.Error(t, err)
		assert.ErrorIs(t, err, tserrors.ErrParam)
		assert.Contains(t, err.Error(), "column 'i'")
	})

	t.Run("unknown column", func(t *testing.T) {
		_, err := transform.FillNull(tbl, "1", "missing")
		assert.ErrorIs(t, err, tserrors.ErrParam)
	})
}

func TestCast(t *testing.T) {
	tbl := testutil.NewTable(t,
		testutil.Nullable("text", []string{"1", "", "3.9"}, []bool{true, false, true}),
		testutil.Floats("f", 1.5, -2.5, 0),
		testutil.Ints("i", 0, 1, 2),
		testutil.Strings("word", "yes", "no", "maybe"),
	)

	tests := []struct {
		name   string
		column string
		target transform.Type
		kind   table.ColumnKind
		want   []string
	}{
		{"text to int", "text", transform.TypeInt, table.Numeric, []string{"1", "", "3"}},
		{"text to float", "text", transform.TypeFloat, table.Numeric, []string{"1", "", "3.9"}},
		{"float to int truncates", "f", transform.TypeInt, table.Numeric, []string{"1", "-2", "0"}},
		{"float to bool", "f", transform.TypeBool, table.Boolean, []string{"true", "true", "false"}},
		{"int to string", "i", transform.TypeString, table.Categorical, []string{"0", "1", "2"}},
		{"int to float", "i", transform.TypeFloat, table.Numeric, []string{"0", "1", "2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := transform.Cast(tbl, tt.column, tt.target)
			require.NoError(t, err)
			defer out.Release()

			assert.Equal(t, tbl.Columns(), out.Columns())
			assert.Equal(t, tt.kind, out.Kind(tt.column))
			assert.Equal(t, tt.want, testutil.ColumnCells(out, tt.column))
		})
	}

	_, err := transform.Cast(tbl, "word", transform.TypeBool)
	require.Error(t, err)
	assert.ErrorIs(t, err, tserrors.ErrInvalidInput)
	assert.Contains(t, err.Error(), "row 0")

	_, err = transform.Cast(tbl, "nope", transform.TypeInt)
	assert.ErrorIs(t, err, tserrors.ErrParam)

	_, err = transform.Cast(tbl, "i", transform.Type("date"))
	assert.ErrorIs(t, err, tserrors.ErrParam)
}

func TestParseType(t *testing.T) {
	for input, want := range map[string]transform.Type{
		"int64": transform.TypeInt, "Double": transform.TypeFloat, "str": transform.TypeString, "boolean": transform.TypeBool,
	} {
		got, err := transform.ParseType(input)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := transform.ParseType("uuid")
	assert.ErrorIs(t, err, tserrors.ErrParam)
}
