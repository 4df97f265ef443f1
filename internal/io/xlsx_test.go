package io

import (
	"bytes"
	"testing"

	"github.com/apache/arrow-go/v18/arrow/memory"
	tserrors "github.com/paveg/tablescope/internal/errors"
	"github.com/paveg/tablescope/internal/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func workbook(t *testing.T, sheets map[string][][]any) *bytes.Buffer {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	first := true
	for name, rows := range sheets {
		if first {
			require.NoError(t, f.SetSheetName("Sheet1", name))
			first = false
		} else {
			_, err := f.NewSheet(name)
			require.NoError(t, err)
		}
		for i, row := range rows {
			cell, err := excelize.CoordinatesToCellName(1, i+1)
			require.NoError(t, err)
			require.NoError(t, f.SetSheetRow(name, cell, &row))
		}
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func TestXLSXReader(t *testing.T) {
	buf := workbook(t, map[string][][]any{
		"data": {
			{"city", "population", "area", "capital"},
			{"Paris", 2148000, 105.4, true},
			{"Lyon", nil, 47.87, false},
			{"Nice", 342000},
		},
	})

	tbl, err := NewXLSXReader(buf, XLSXOptions{}, memory.NewGoAllocator()).Read()
	require.NoError(t, err)
	defer tbl.Release()

	assert.Equal(t, []string{"city", "population", "area", "capital"}, tbl.Columns())
	assert.Equal(t, 3, tbl.Len())
	assert.Equal(t, table.CellInt, tbl.Cell(0, "population").Kind)
	assert.True(t, tbl.IsNull(1, "population"))
	assert.Equal(t, 47.87, tbl.Cell(1, "area").Float)
	assert.True(t, tbl.IsNull(2, "capital"), "trailing cells are null")
	assert.Equal(t, table.Boolean, tbl.Kind("capital"))
}

func TestXLSXReader_Sheets(t *testing.T) {
	buf := workbook(t, map[string][][]any{"only": {{"a"}, {1}}})
	data := buf.Bytes()

	tbl, err := NewXLSXReader(bytes.NewReader(data), XLSXOptions{Sheet: "only"}, memory.NewGoAllocator()).Read()
	require.NoError(t, err)
	defer tbl.Release()
	assert.Equal(t, 1, tbl.Len())

	_, err = NewXLSXReader(bytes.NewReader(data), XLSXOptions{Sheet: "missing"}, memory.NewGoAllocator()).Read()
	assert.ErrorIs(t, err, tserrors.ErrParam)

	_, err = NewXLSXReader(bytes.NewReader([]byte("not a zip")), XLSXOptions{}, memory.NewGoAllocator()).Read()
	assert.Error(t, err)
}
