package io

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/tablescope/internal/series"
	"github.com/paveg/tablescope/internal/table"
)

// Read reads CSV data and returns a Table
func (r *CSVReader) Read() (*table.Table, error) {
	csvReader := csv.NewReader(r.reader)
	csvReader.Comma = r.options.Delimiter
	csvReader.Comment = r.options.Comment
	csvReader.TrimLeadingSpace = r.options.SkipInitialSpace
	// Short rows are padded with nulls below.
	csvReader.FieldsPerRecord = -1

	records, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading CSV: %w", err)
	}
	if len(records) == 0 {
		return table.New(), nil
	}

	var headers []string
	dataRows := records
	if r.options.Header {
		headers = headerNames(records[0])
		dataRows = records[1:]
	} else {
		headers = headerNames(make([]string, len(records[0])))
	}

	return tableFromRows(headers, dataRows, r.mem)
}

// Write writes the Table to CSV format. Nulls are written as empty fields.
func (w *CSVWriter) Write(t *table.Table) error {
	csvWriter := csv.NewWriter(w.writer)
	csvWriter.Comma = w.options.Delimiter

	if w.options.Header {
		if err := csvWriter.Write(t.Columns()); err != nil {
			return fmt.Errorf("writing headers: %w", err)
		}
	}

	cells, err := t.CellReader()
	if err != nil {
		return err
	}
	defer cells.Release()

	row := make([]string, cells.Width())
	for i := 0; i < t.Len(); i++ {
		for j := range row {
			row[j] = cells.Cell(i, j).String()
		}
		if err := csvWriter.Write(row); err != nil {
			return fmt.Errorf("writing row %d: %w", i, err)
		}
	}

	csvWriter.Flush()
	if err := csvWriter.Error(); err != nil {
		return fmt.Errorf("flushing CSV: %w", err)
	}
	return nil
}

// tableFromRows transposes text rows into typed columns. Rows shorter than
// the header are padded with nulls; extra cells are ignored.
func tableFromRows(headers []string, rows [][]string, mem memory.Allocator) (*table.Table, error) {
	cols := make([]series.ISeries, 0, len(headers))
	release := func() {
		for _, s := range cols {
			s.Release()
		}
	}

	column := make([]string, len(rows))
	for i, header := range headers {
		for j, row := range rows {
			if i < len(row) {
				column[j] = row[i]
			} else {
				column[j] = ""
			}
		}

		s, err := seriesFromStrings(header, column, mem)
		if err != nil {
			release()
			return nil, fmt.Errorf("creating series for column %s: %w", header, err)
		}
		cols = append(cols, s)
	}

	t, err := table.NewChecked(cols...)
	if err != nil {
		release()
		return nil, err
	}
	return t, nil
}

// WriteCSV writes t with a header row using sep as the field separator.
func WriteCSV(t *table.Table, w io.Writer, sep rune) error {
	opts := DefaultCSVOptions()
	opts.Delimiter = sep
	return NewCSVWriter(w, opts).Write(t)
}
