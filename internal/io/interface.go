// Package io loads tables from files and URLs and writes them back out.
//
// Supported inputs are CSV, JSON (array of objects or JSON lines), XLSX and
// Parquet, chosen by file extension. Every reader infers column types and
// keeps missing values as nulls. CSV and Parquet can also be written.
//
// Memory management: readers build Arrow arrays with the allocator they are
// given; release the returned table when done.
package io

import (
	"io"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/tablescope/internal/table"
)

const (
	// DefaultBatchSize is the default batch size for Parquet writes
	DefaultBatchSize = 1000
)

// DataReader defines the interface for reading a table from a source
type DataReader interface {
	// Read reads data from the source and returns a Table
	Read() (*table.Table, error)
}

// DataWriter defines the interface for writing a table to a destination
type DataWriter interface {
	// Write writes the Table to the destination
	Write(t *table.Table) error
}

// CSVOptions contains configuration options for CSV operations
type CSVOptions struct {
	// Delimiter is the field delimiter (default: comma)
	Delimiter rune
	// Comment is the comment character (default: 0 = disabled)
	Comment rune
	// Header indicates whether the first row contains headers
	Header bool
	// SkipInitialSpace indicates whether to skip initial whitespace
	SkipInitialSpace bool
}

// DefaultCSVOptions returns default CSV options
func DefaultCSVOptions() CSVOptions {
	return CSVOptions{
		Delimiter:        ',',
		Comment:          0,
		Header:           true,
		SkipInitialSpace: false,
	}
}

// CSVReader reads CSV data and converts it to a Table
type CSVReader struct {
	reader  io.Reader
	options CSVOptions
	mem     memory.Allocator
}

// NewCSVReader creates a new CSV reader with the specified options
func NewCSVReader(reader io.Reader, options CSVOptions, mem memory.Allocator) *CSVReader {
	return &CSVReader{
		reader:  reader,
		options: options,
		mem:     mem,
	}
}

// CSVWriter writes Tables to CSV format
type CSVWriter struct {
	writer  io.Writer
	options CSVOptions
}

// NewCSVWriter creates a new CSV writer with the specified options
func NewCSVWriter(writer io.Writer, options CSVOptions) *CSVWriter {
	return &CSVWriter{
		writer:  writer,
		options: options,
	}
}

// JSONFormat selects how JSON input is laid out.
type JSONFormat int

const (
	// JSONAuto detects the layout from the first non-space byte.
	JSONAuto JSONFormat = iota
	// JSONArray is a single array of objects.
	JSONArray
	// JSONLines is one object per line.
	JSONLines
)

// JSONOptions contains configuration options for JSON reading
type JSONOptions struct {
	Format JSONFormat
	// MaxRecords limits the number of records read (0 = unlimited)
	MaxRecords int
	// TypeInference converts columns to numbers or booleans when every
	// value allows it; otherwise every column is a string column
	TypeInference bool
}

// DefaultJSONOptions returns default JSON options
func DefaultJSONOptions() JSONOptions {
	return JSONOptions{
		Format:        JSONAuto,
		MaxRecords:    0,
		TypeInference: true,
	}
}

// JSONReader reads JSON data and converts it to a Table
type JSONReader struct {
	reader  io.Reader
	options JSONOptions
	mem     memory.Allocator
}

// NewJSONReader creates a new JSON reader with the specified options
func NewJSONReader(reader io.Reader, options JSONOptions, mem memory.Allocator) *JSONReader {
	return &JSONReader{
		reader:  reader,
		options: options,
		mem:     mem,
	}
}

// XLSXOptions contains configuration options for spreadsheet reading
type XLSXOptions struct {
	// Sheet is the worksheet to read; empty means the first sheet
	Sheet string
}

// XLSXReader reads the first (or a named) worksheet of an XLSX workbook
type XLSXReader struct {
	reader  io.Reader
	options XLSXOptions
	mem     memory.Allocator
}

// NewXLSXReader creates a new XLSX reader with the specified options
func NewXLSXReader(reader io.Reader, options XLSXOptions, mem memory.Allocator) *XLSXReader {
	return &XLSXReader{
		reader:  reader,
		options: options,
		mem:     mem,
	}
}

// ParquetOptions contains configuration options for Parquet operations
type ParquetOptions struct {
	// Compression type for Parquet files
	Compression string
	// BatchSize for writing operations
	BatchSize int
}

// DefaultParquetOptions returns default Parquet options
func DefaultParquetOptions() ParquetOptions {
	return ParquetOptions{
		Compression: "snappy",
		BatchSize:   DefaultBatchSize,
	}
}

// ParquetReader reads Parquet data and converts it to a Table
type ParquetReader struct {
	reader  io.Reader
	options ParquetOptions
	mem     memory.Allocator
}

// NewParquetReader creates a new Parquet reader with the specified options
func NewParquetReader(reader io.Reader, options ParquetOptions, mem memory.Allocator) *ParquetReader {
	return &ParquetReader{
		reader:  reader,
		options: options,
		mem:     mem,
	}
}

// ParquetWriter writes Tables to Parquet format
type ParquetWriter struct {
	writer  io.Writer
	options ParquetOptions
}

// NewParquetWriter creates a new Parquet writer with the specified options
func NewParquetWriter(writer io.Writer, options ParquetOptions) *ParquetWriter {
	return &ParquetWriter{
		writer:  writer,
		options: options,
	}
}
