// Package tablescope loads tabular datasets and explores them: duplicate
// detection, kernel density estimates, correlation matrices, descriptive
// statistics, pagination and simple column transforms.
// This package is the sole public API for the library.
package tablescope

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/tablescope/internal/errors"
	tsio "github.com/paveg/tablescope/internal/io"
	"github.com/paveg/tablescope/internal/logging"
	"github.com/paveg/tablescope/internal/stats"
	"github.com/paveg/tablescope/internal/table"
	"github.com/paveg/tablescope/internal/transform"
	"github.com/paveg/tablescope/internal/view"
	"go.uber.org/zap"
)

// Error kinds usable with errors.Is.
var (
	ErrParam        = errors.ErrParam
	ErrInvalidInput = errors.ErrInvalidInput
	ErrUnsupported  = errors.ErrUnsupported
	ErrInternal     = errors.ErrInternal
)

// Re-exported result and parameter types.
type (
	Keep              = stats.Keep
	Bandwidth         = stats.Bandwidth
	KDEOptions        = stats.KDEOptions
	KDEResult         = stats.KDEResult
	HistogramResult   = stats.HistogramResult
	CorrelationMatrix = stats.CorrelationMatrix
	ColumnSummary     = stats.ColumnSummary
	PageView          = view.PageView
	Type              = transform.Type
)

// Keep policies for Duplicated and DropDuplicates.
const (
	KeepFirst = stats.KeepFirst
	KeepLast  = stats.KeepLast
	KeepNone  = stats.KeepNone
)

// Cast targets.
const (
	TypeInt    = transform.TypeInt
	TypeFloat  = transform.TypeFloat
	TypeString = transform.TypeString
	TypeBool   = transform.TypeBool
)

// Bandwidth constructors and parsers.
var (
	FixedBandwidth    = stats.FixedBandwidth
	Scott             = stats.Scott
	Silverman         = stats.Silverman
	ParseBandwidth    = stats.ParseBandwidth
	ParseKeep         = stats.ParseKeep
	ParseType         = transform.ParseType
	DefaultKDEOptions = stats.DefaultKDEOptions
)

// Dataset is a loaded table. It wraps the internal table to hide
// implementation details. Call Release when done.
type Dataset struct {
	id       string
	source   string
	loadedAt time.Time
	t        *table.Table
	logger   *zap.Logger
}

// Option configures Load and ReadCSV.
type Option func(*options)

type options struct {
	logger *zap.Logger
	client *http.Client
	sheet  string
	sep    rune
}

// WithLogger sets the logger used by the loader and by operations on the
// resulting dataset.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithHTTPClient sets the client used to fetch URL sources.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.client = c }
}

// WithSheet selects the worksheet read from XLSX sources.
func WithSheet(name string) Option {
	return func(o *options) { o.sheet = name }
}

// WithSeparator sets the CSV field separator on input.
func WithSeparator(sep rune) Option {
	return func(o *options) { o.sep = sep }
}

func buildOptions(opts []Option) *options {
	o := &options{sep: ','}
	for _, opt := range opts {
		opt(o)
	}
	o.logger = logging.Named(o.logger, "tablescope")
	return o
}

// Load reads a dataset from a local path or an http(s) URL. The format is
// chosen by extension: .csv, .json, .xlsx or .parquet.
func Load(ctx context.Context, location string, opts ...Option) (*Dataset, error) {
	o := buildOptions(opts)

	csvOpts := tsio.DefaultCSVOptions()
	csvOpts.Delimiter = o.sep
	loaderOpts := []tsio.LoaderOption{
		tsio.WithLogger(o.logger),
		tsio.WithCSVOptions(csvOpts),
		tsio.WithSheet(o.sheet),
	}
	if o.client != nil {
		loaderOpts = append(loaderOpts, tsio.WithHTTPClient(o.client))
	}

	ds, err := tsio.NewLoader(loaderOpts...).Load(ctx, location)
	if err != nil {
		return nil, err
	}
	return &Dataset{
		id:       ds.ID,
		source:   ds.Source.Name(),
		loadedAt: ds.LoadedAt,
		t:        ds.Table,
		logger:   o.logger,
	}, nil
}

// ReadCSV reads a CSV stream with a header row.
func ReadCSV(r io.Reader, opts ...Option) (*Dataset, error) {
	o := buildOptions(opts)

	csvOpts := tsio.DefaultCSVOptions()
	csvOpts.Delimiter = o.sep
	t, err := tsio.NewCSVReader(r, csvOpts, memory.NewGoAllocator()).Read()
	if err != nil {
		return nil, err
	}
	return &Dataset{source: "csv", loadedAt: time.Now(), t: t, logger: o.logger}, nil
}

func (d *Dataset) derive(t *table.Table) *Dataset {
	return &Dataset{id: d.id, source: d.source, loadedAt: d.loadedAt, t: t, logger: d.logger}
}

// ID returns the identifier assigned at load time. Datasets read with
// ReadCSV have none.
func (d *Dataset) ID() string { return d.id }

// Source returns the file name the dataset was loaded from.
func (d *Dataset) Source() string { return d.source }

// LoadedAt returns when the dataset was loaded.
func (d *Dataset) LoadedAt() time.Time { return d.loadedAt }

// Len returns the number of rows.
func (d *Dataset) Len() int { return d.t.Len() }

// Width returns the number of columns.
func (d *Dataset) Width() int { return d.t.Width() }

// Columns returns the column names in order.
func (d *Dataset) Columns() []string { return d.t.Columns() }

// NumericColumns returns the names of numeric columns in order.
func (d *Dataset) NumericColumns() []string { return d.t.NumericColumns() }

// Kind returns "numeric", "boolean", "categorical" or "unsupported".
func (d *Dataset) Kind(column string) string { return d.t.Kind(column).String() }

// Cell returns the value at row in column formatted for display, and
// whether it is present.
func (d *Dataset) Cell(row int, column string) (string, bool) {
	c := d.t.Cell(row, column)
	return c.String(), !c.IsNull()
}

// String returns a schema summary.
func (d *Dataset) String() string { return d.t.String() }

// Release releases the underlying Arrow memory.
func (d *Dataset) Release() {
	if d != nil && d.t != nil {
		d.t.Release()
	}
}

// Duplicated flags each row that repeats an earlier (KeepFirst), later
// (KeepLast) or any other (KeepNone) row over subset. An empty subset means
// every column.
func Duplicated(d *Dataset, subset []string, keep Keep) ([]bool, error) {
	return stats.Duplicated(d.t, subset, keep)
}

// CountDuplicates returns the number of rows Duplicated flags.
func CountDuplicates(d *Dataset, subset []string, keep Keep) (int, error) {
	return stats.CountDuplicates(d.t, subset, keep)
}

// DropDuplicates returns a new dataset without the rows Duplicated flags.
func DropDuplicates(d *Dataset, subset []string, keep Keep) (*Dataset, error) {
	t, err := transform.DropDuplicates(d.t, subset, keep)
	if err != nil {
		return nil, err
	}
	return d.derive(t), nil
}

// KDE estimates the density of values on a grid over [lo, hi].
func KDE(values []float64, bw Bandwidth, lo, hi float64, opts KDEOptions) (*KDEResult, error) {
	return stats.ComputeKDE(values, bw, lo, hi, opts)
}

// ColumnKDE estimates the density of a numeric column over the range of its
// values. Nulls, NaN and infinities are skipped.
func ColumnKDE(d *Dataset, column string, bw Bandwidth, opts KDEOptions) (*KDEResult, error) {
	values, valid, err := d.t.Float64s(column)
	if err != nil {
		return nil, err
	}

	sample := make([]float64, 0, len(values))
	lo, hi := math.Inf(1), math.Inf(-1)
	for i, v := range values {
		if !valid[i] || math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		sample = append(sample, v)
		lo, hi = math.Min(lo, v), math.Max(hi, v)
	}
	if len(sample) == 0 {
		return nil, errors.NewInvalidInputError("KDE", "sample is empty").WithHint(
			fmt.Sprintf("column '%s' has no values", column))
	}

	result, err := stats.ComputeKDE(sample, bw, lo, hi, opts)
	if err != nil {
		return nil, err
	}
	d.logger.Debug("Computed density",
		zap.String("column", column),
		zap.Int("samples", len(sample)),
		zap.Float64("bandwidth", result.Bandwidth))
	return result, nil
}

// Histogram counts the values of a numeric column in bins equal-width bins
// spanning the column's range.
func Histogram(d *Dataset, column string, bins int) (*HistogramResult, error) {
	values, valid, err := d.t.Float64s(column)
	if err != nil {
		return nil, err
	}
	present := make([]float64, 0, len(values))
	lo, hi := math.Inf(1), math.Inf(-1)
	for i, v := range values {
		if valid[i] && !math.IsNaN(v) {
			present = append(present, v)
			lo, hi = math.Min(lo, v), math.Max(hi, v)
		}
	}
	if len(present) == 0 {
		lo, hi = 0, 0
	}
	return stats.Histogram(present, lo, hi, bins)
}

// PearsonCorrelation returns the pairwise correlation of the numeric
// columns, or nil when there are fewer than two of them or no rows.
func PearsonCorrelation(d *Dataset) *CorrelationMatrix {
	m := stats.PearsonCorrelation(d.t)
	if m == nil {
		d.logger.Debug("Correlation matrix unavailable",
			zap.Int("rows", d.t.Len()),
			zap.Int("numeric_columns", len(d.t.NumericColumns())))
		return nil
	}
	if n := m.NaNCount(); n > 0 {
		d.logger.Debug("Correlation matrix has undefined entries", zap.Int("pairs", n))
	}
	return m
}

// Describe summarizes every column, in column order.
func Describe(ctx context.Context, d *Dataset) ([]ColumnSummary, error) {
	return stats.Describe(ctx, d.t, 0)
}

// Page returns page (1-based) of d for display.
func Page(d *Dataset, page, rowsPerPage, maxColumns int) (*PageView, error) {
	return view.Page(d.t, page, rowsPerPage, maxColumns)
}

// Rename returns a new dataset with columns renamed per mapping.
func Rename(d *Dataset, mapping map[string]string) (*Dataset, error) {
	t, err := transform.Rename(d.t, mapping)
	if err != nil {
		return nil, err
	}
	return d.derive(t), nil
}

// FillNull returns a new dataset with nulls in columns (all when none are
// given) replaced by value, parsed as each column's type.
func FillNull(d *Dataset, value string, columns ...string) (*Dataset, error) {
	t, err := transform.FillNull(d.t, value, columns...)
	if err != nil {
		return nil, err
	}
	return d.derive(t), nil
}

// Cast returns a new dataset with column converted to target.
func Cast(d *Dataset, column string, target Type) (*Dataset, error) {
	t, err := transform.Cast(d.t, column, target)
	if err != nil {
		return nil, err
	}
	return d.derive(t), nil
}

// WriteCSV writes d with a header row using sep as the field separator.
// Nulls are written as empty fields.
func WriteCSV(d *Dataset, w io.Writer, sep rune) error {
	return tsio.WriteCSV(d.t, w, sep)
}

// WriteParquet writes d as a Parquet file with the given compression
// ("snappy", "gzip", "lz4", "zstd" or "uncompressed").
func WriteParquet(d *Dataset, w io.Writer, compression string) error {
	opts := tsio.DefaultParquetOptions()
	if compression != "" {
		opts.Compression = compression
	}
	return tsio.NewParquetWriter(w, opts).Write(d.t)
}
