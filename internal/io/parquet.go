package io

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
	"github.com/paveg/tablescope/internal/series"
	"github.com/paveg/tablescope/internal/table"
)

// Read reads Parquet data and returns a Table.
func (r *ParquetReader) Read() (*table.Table, error) {
	return r.ReadContext(context.Background())
}

// ReadContext is Read with cancellation.
func (r *ParquetReader) ReadContext(ctx context.Context) (*table.Table, error) {
	// Parquet needs random access, so the whole input is buffered.
	data, err := io.ReadAll(r.reader)
	if err != nil {
		return nil, fmt.Errorf("reading data: %w", err)
	}

	pqReader, err := file.NewParquetReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("creating parquet file reader: %w", err)
	}
	defer pqReader.Close()

	arrowReader, err := pqarrow.NewFileReader(pqReader, pqarrow.ArrowReadProperties{}, r.mem)
	if err != nil {
		return nil, fmt.Errorf("creating arrow file reader: %w", err)
	}

	tbl, err := arrowReader.ReadTable(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading table: %w", err)
	}
	defer tbl.Release()

	return r.arrowTableToTable(tbl)
}

// arrowTableToTable converts an Arrow table into a Table, one series per
// column.
func (r *ParquetReader) arrowTableToTable(tbl arrow.Table) (*table.Table, error) {
	schema := tbl.Schema()
	cols := make([]series.ISeries, 0, tbl.NumCols())

	for i := range int(tbl.NumCols()) {
		name := schema.Field(i).Name
		s, err := r.columnToSeries(name, tbl.Column(i))
		if err != nil {
			for _, done := range cols {
				done.Release()
			}
			return nil, fmt.Errorf("converting column %s: %w", name, err)
		}
		cols = append(cols, s)
	}

	return table.New(cols...), nil
}

// columnToSeries flattens a chunked column. Types without a native series
// are converted to their string rendering.
func (r *ParquetReader) columnToSeries(name string, column *arrow.Column) (series.ISeries, error) {
	chunks := column.Data().Chunks()

	var arr arrow.Array
	switch len(chunks) {
	case 0:
		arr = array.MakeArrayOfNull(r.mem, column.DataType(), 0)
	case 1:
		arr = chunks[0]
		arr.Retain()
	default:
		merged, err := array.Concatenate(chunks, r.mem)
		if err != nil {
			return nil, err
		}
		arr = merged
	}
	defer arr.Release()

	if s, err := series.FromArray(name, arr); err == nil {
		return s, nil
	}
	return stringSeries(name, arr, r.mem)
}

func stringSeries(name string, arr arrow.Array, mem memory.Allocator) (series.ISeries, error) {
	values := make([]string, arr.Len())
	valid := make([]bool, arr.Len())
	for i := range values {
		if arr.IsNull(i) {
			continue
		}
		values[i] = arr.ValueStr(i)
		valid[i] = true
	}
	s, err := series.NewNullable(name, values, valid, mem)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Write writes the Table to Parquet format.
func (w *ParquetWriter) Write(t *table.Table) error {
	tbl := toArrowTable(t)
	defer tbl.Release()

	props := parquet.NewWriterProperties(
		parquet.WithCompression(compressionCodec(w.options.Compression)),
		parquet.WithBatchSize(int64(w.batchSize())),
	)
	arrowProps := pqarrow.NewArrowWriterProperties(pqarrow.WithAllocator(memory.NewGoAllocator()))

	writer, err := pqarrow.NewFileWriter(tbl.Schema(), w.writer, props, arrowProps)
	if err != nil {
		return fmt.Errorf("creating file writer: %w", err)
	}

	if err := writer.WriteTable(tbl, int64(w.batchSize())); err != nil {
		_ = writer.Close()
		return fmt.Errorf("writing table: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("closing parquet writer: %w", err)
	}
	return nil
}

func (w *ParquetWriter) batchSize() int {
	if w.options.BatchSize <= 0 {
		return DefaultBatchSize
	}
	return w.options.BatchSize
}

func compressionCodec(name string) compress.Compression {
	switch name {
	case "gzip":
		return compress.Codecs.Gzip
	case "lz4":
		return compress.Codecs.Lz4Raw
	case "zstd":
		return compress.Codecs.Zstd
	case "uncompressed":
		return compress.Codecs.Uncompressed
	default:
		return compress.Codecs.Snappy
	}
}

// toArrowTable exposes a Table's columns as a single-chunk Arrow table.
func toArrowTable(t *table.Table) arrow.Table {
	names := t.Columns()
	fields := make([]arrow.Field, 0, len(names))
	arrays := make([]arrow.Array, 0, len(names))

	for _, name := range names {
		s, _ := t.Column(name)
		arr := s.Array()
		fields = append(fields, arrow.Field{Name: name, Type: arr.DataType(), Nullable: true})
		arrays = append(arrays, arr)
	}

	schema := arrow.NewSchema(fields, nil)
	rec := array.NewRecord(schema, arrays, int64(t.Len()))
	for _, arr := range arrays {
		arr.Release()
	}
	defer rec.Release()

	return array.NewTableFromRecords(schema, []arrow.Record{rec})
}
