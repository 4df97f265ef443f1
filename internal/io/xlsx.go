package io

import (
	"fmt"

	"github.com/paveg/tablescope/internal/errors"
	"github.com/paveg/tablescope/internal/table"
	"github.com/xuri/excelize/v2"
)

// Read reads the worksheet and returns a Table. The first row is the
// header; cell values are read as displayed and typed like CSV columns.
func (r *XLSXReader) Read() (*table.Table, error) {
	f, err := excelize.OpenReader(r.reader)
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()

	sheet := r.options.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return table.New(), nil
		}
		sheet = sheets[0]
	} else if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return nil, errors.NewParamError("ReadXLSX", fmt.Sprintf("worksheet %q does not exist", sheet))
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("reading worksheet %s: %w", sheet, err)
	}
	if len(rows) == 0 {
		return table.New(), nil
	}

	return tableFromRows(headerNames(rows[0]), rows[1:], r.mem)
}
