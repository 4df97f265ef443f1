// Package view slices a table into pages of display strings.
package view

import (
	"fmt"

	"github.com/paveg/tablescope/internal/errors"
	"github.com/paveg/tablescope/internal/table"
)

// PageView is one page of a table rendered as strings.
type PageView struct {
	Header     []string
	Rows       [][]string
	Page       int
	TotalPages int
	TotalRows  int
	// Truncated is set when columns beyond maxColumns were left out.
	Truncated bool
}

// Page returns page (1-based) of t with rowsPerPage rows and at most
// maxColumns columns. Pages past the end are clamped to the last page and
// pages below 1 to the first. Nulls render as "".
func Page(t *table.Table, page, rowsPerPage, maxColumns int) (*PageView, error) {
	if rowsPerPage <= 0 {
		return nil, errors.NewParamError("Page", fmt.Sprintf("rows per page must be positive, got %d", rowsPerPage))
	}
	if maxColumns <= 0 {
		return nil, errors.NewParamError("Page", fmt.Sprintf("max columns must be positive, got %d", maxColumns))
	}

	header := t.Columns()
	truncated := len(header) > maxColumns
	if truncated {
		header = header[:maxColumns]
	}

	total := t.Len()
	pages := max(1, (total+rowsPerPage-1)/rowsPerPage)
	page = min(max(page, 1), pages)

	start := (page - 1) * rowsPerPage
	end := min(start+rowsPerPage, total)

	pv := &PageView{
		Header:     header,
		Rows:       make([][]string, 0, end-start),
		Page:       page,
		TotalPages: pages,
		TotalRows:  total,
		Truncated:  truncated,
	}
	if len(header) == 0 {
		return pv, nil
	}

	r, err := t.CellReader(header...)
	if err != nil {
		return nil, err
	}
	defer r.Release()

	for row := start; row < end; row++ {
		cells := make([]string, r.Width())
		for col := range cells {
			cells[col] = r.Cell(row, col).String()
		}
		pv.Rows = append(pv.Rows, cells)
	}
	return pv, nil
}
