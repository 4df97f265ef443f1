package io

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/tablescope/internal/table"
	"github.com/paveg/tablescope/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVReader_TypeInference(t *testing.T) {
	csvData := `name,age,salary,active,note
Alice,25,50000.5,true,x
Bob,,60000,FALSE,
Charlie,35,,true,z`

	reader := NewCSVReader(strings.NewReader(csvData), DefaultCSVOptions(), memory.NewGoAllocator())
	tbl, err := reader.Read()
	require.NoError(t, err)
	defer tbl.Release()

	assert.Equal(t, []string{"name", "age", "salary", "active", "note"}, tbl.Columns())
	assert.Equal(t, 3, tbl.Len())

	assert.Equal(t, table.Categorical, tbl.Kind("name"))
	assert.Equal(t, table.CellInt, tbl.Cell(0, "age").Kind)
	assert.Equal(t, table.CellFloat, tbl.Cell(0, "salary").Kind)
	assert.Equal(t, table.Boolean, tbl.Kind("active"))

	assert.True(t, tbl.IsNull(1, "age"))
	assert.True(t, tbl.IsNull(2, "salary"))
	assert.True(t, tbl.IsNull(1, "note"), "empty text cells are null")
	assert.False(t, tbl.Cell(1, "active").Bool)
}

func TestCSVReader_FloatWords(t *testing.T) {
	csvData := "word,x\nnan,1.5\ninf,nan\n-Infinity,2\n"

	tbl, err := NewCSVReader(strings.NewReader(csvData), DefaultCSVOptions(), memory.NewGoAllocator()).Read()
	require.NoError(t, err)
	defer tbl.Release()

	assert.Equal(t, table.Categorical, tbl.Kind("word"), "NaN and infinity words alone stay text")
	assert.Equal(t, "inf", tbl.Cell(1, "word").Text)

	assert.Equal(t, table.CellFloat, tbl.Cell(0, "x").Kind)
	assert.True(t, math.IsNaN(tbl.Cell(1, "x").Float))
}

func TestCSVReader_Shapes(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		opts    func(*CSVOptions)
		columns []string
		rows    int
	}{
		{"empty input", "", nil, []string{}, 0},
		{"header only", "a,b\n", nil, []string{"a", "b"}, 0},
		{"no header", "1,2\n3,4\n", func(o *CSVOptions) { o.Header = false }, []string{"column_0", "column_1"}, 2},
		{"semicolon", "a;b\n1;2\n", func(o *CSVOptions) { o.Delimiter = ';' }, []string{"a", "b"}, 1},
		{"short rows padded", "a,b,c\n1\n2,3,4\n", nil, []string{"a", "b", "c"}, 2},
		{"repeated and blank headers", "a,a,\n1,2,3\n", nil, []string{"a", "a.1", "column_2"}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultCSVOptions()
			if tt.opts != nil {
				tt.opts(&opts)
			}
			tbl, err := NewCSVReader(strings.NewReader(tt.data), opts, memory.NewGoAllocator()).Read()
			require.NoError(t, err)
			defer tbl.Release()

			assert.Equal(t, tt.columns, tbl.Columns())
			assert.Equal(t, tt.rows, tbl.Len())
		})
	}
}

func TestCSVReader_Malformed(t *testing.T) {
	_, err := NewCSVReader(strings.NewReader("a,b\n\"unterminated,1\n"), DefaultCSVOptions(), memory.NewGoAllocator()).Read()
	assert.Error(t, err)
}

func TestWriteCSV(t *testing.T) {
	tbl := testutil.NewTable(t,
		testutil.Strings("name", "Alice", "Bob;Jr"),
		testutil.Nullable("age", []int64{25, 0}, []bool{true, false}),
		testutil.Floats("score", 1.5, 2),
		testutil.Bools("ok", true, false),
	)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(tbl, &buf, ';'))
	assert.Equal(t, "name;age;score;ok\nAlice;25;1.5;true\n\"Bob;Jr\";;2;false\n", buf.String())

	back, err := NewCSVReader(&buf, CSVOptions{Delimiter: ';', Header: true}, memory.NewGoAllocator()).Read()
	require.NoError(t, err)
	defer back.Release()
	testutil.AssertTableEqual(t, tbl, back)
}

func TestWriteCSV_InvalidSeparator(t *testing.T) {
	tbl := testutil.NewTable(t, testutil.Ints("a", 1))

	var buf bytes.Buffer
	assert.Error(t, WriteCSV(tbl, &buf, '"'))
}
