package io

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/google/uuid"
	"github.com/paveg/tablescope/internal/errors"
	"github.com/paveg/tablescope/internal/table"
	"github.com/paveg/tablescope/internal/version"
	"go.uber.org/zap"
)

// Format is an accepted input format, identified by file extension.
type Format string

// Accepted formats
const (
	FormatCSV     Format = "csv"
	FormatJSON    Format = "json"
	FormatXLSX    Format = "xlsx"
	FormatXLS     Format = "xls"
	FormatParquet Format = "parquet"
)

// AllowedExtensions lists the file extensions accepted as sources.
var AllowedExtensions = []string{".csv", ".json", ".xlsx", ".xls", ".parquet"}

// maxDownloadSize bounds how much is read from a URL source.
const maxDownloadSize = 512 << 20

// Source is a validated location of a dataset.
type Source struct {
	// Location is the path or URL as given.
	Location string
	// Remote is true for http(s) URLs.
	Remote bool
	Format Format
}

// Name returns the base file name of the source.
func (s Source) Name() string {
	if s.Remote {
		if u, err := url.Parse(s.Location); err == nil {
			return path.Base(u.Path)
		}
	}
	return filepath.Base(s.Location)
}

// FormatFromPath maps a file name to its format by extension.
func FormatFromPath(name string) (Format, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		return FormatCSV, nil
	case ".json":
		return FormatJSON, nil
	case ".xlsx":
		return FormatXLSX, nil
	case ".xls":
		return FormatXLS, nil
	case ".parquet":
		return FormatParquet, nil
	default:
		ext := filepath.Ext(name)
		if ext == "" {
			ext = "(none)"
		}
		return "", errors.NewUnsupportedTypeError("ValidateSource", "file extension "+ext).
			WithHint("accepted extensions: " + strings.Join(AllowedExtensions, ", "))
	}
}

// ValidateSource checks a path or URL by extension only. URLs must use
// http or https and their path must end with an accepted extension.
func ValidateSource(location string) (Source, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return Source{}, errors.NewParamError("ValidateSource", "source is empty")
	}

	if isURL(location) {
		u, err := url.Parse(location)
		if err != nil {
			return Source{}, errors.NewParamError("ValidateSource", fmt.Sprintf("invalid URL: %v", err))
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return Source{}, errors.NewParamError("ValidateSource",
				fmt.Sprintf("URL scheme must be http or https, got %q", u.Scheme))
		}
		if u.Host == "" {
			return Source{}, errors.NewParamError("ValidateSource", "URL has no host")
		}
		format, err := FormatFromPath(u.Path)
		if err != nil {
			return Source{}, err
		}
		return Source{Location: location, Remote: true, Format: format}, nil
	}

	format, err := FormatFromPath(location)
	if err != nil {
		return Source{}, err
	}
	return Source{Location: location, Format: format}, nil
}

// isURL reports whether location carries a scheme. Windows drive letters
// are single characters and are treated as paths.
func isURL(location string) bool {
	i := strings.Index(location, "://")
	return i > 1
}

// Dataset is a loaded table with its origin.
type Dataset struct {
	ID       string
	Source   Source
	Table    *table.Table
	LoadedAt time.Time
}

// Release releases the table.
func (d *Dataset) Release() {
	if d.Table != nil {
		d.Table.Release()
	}
}

// Loader reads datasets from paths or URLs.
type Loader struct {
	client   *http.Client
	logger   *zap.Logger
	mem      memory.Allocator
	csvOpts  CSVOptions
	sheet    string
	maxBytes int64
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithHTTPClient sets the client used for URL sources.
func WithHTTPClient(c *http.Client) LoaderOption {
	return func(l *Loader) { l.client = c }
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) LoaderOption {
	return func(l *Loader) { l.logger = logger }
}

// WithAllocator sets the Arrow allocator tables are built with.
func WithAllocator(mem memory.Allocator) LoaderOption {
	return func(l *Loader) { l.mem = mem }
}

// WithCSVOptions sets CSV parsing options.
func WithCSVOptions(opts CSVOptions) LoaderOption {
	return func(l *Loader) { l.csvOpts = opts }
}

// WithSheet selects the worksheet read from XLSX sources.
func WithSheet(name string) LoaderOption {
	return func(l *Loader) { l.sheet = name }
}

// WithMaxDownloadSize bounds the bytes read from a URL source. Larger
// bodies fail instead of being truncated.
func WithMaxDownloadSize(n int64) LoaderOption {
	return func(l *Loader) { l.maxBytes = n }
}

// NewLoader creates a loader. Without options it uses a 30 second HTTP
// timeout, the global zap logger and a Go allocator.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{
		client:   &http.Client{Timeout: 30 * time.Second},
		mem:      memory.NewGoAllocator(),
		csvOpts:  DefaultCSVOptions(),
		maxBytes: maxDownloadSize,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.logger == nil {
		l.logger = zap.L()
	}
	l.logger = l.logger.Named("loader")
	return l
}

// Load validates location, reads it and assigns the dataset an ID.
func (l *Loader) Load(ctx context.Context, location string) (*Dataset, error) {
	src, err := ValidateSource(location)
	if err != nil {
		return nil, err
	}

	rc, err := l.open(ctx, src)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	start := time.Now()
	t, err := l.reader(ctx, src.Format, rc)
	if err != nil {
		return nil, err
	}

	ds := &Dataset{
		ID:       uuid.NewString(),
		Source:   src,
		Table:    t,
		LoadedAt: time.Now(),
	}
	l.logger.Info("Loaded dataset",
		zap.String("id", ds.ID),
		zap.String("source", src.Location),
		zap.String("format", string(src.Format)),
		zap.Int("rows", t.Len()),
		zap.Int("columns", t.Width()),
		zap.Duration("elapsed", time.Since(start)))
	return ds, nil
}

func (l *Loader) reader(ctx context.Context, format Format, r io.Reader) (*table.Table, error) {
	var (
		t   *table.Table
		err error
	)
	switch format {
	case FormatCSV:
		t, err = NewCSVReader(r, l.csvOpts, l.mem).Read()
	case FormatJSON:
		t, err = NewJSONReader(r, DefaultJSONOptions(), l.mem).Read()
	case FormatXLSX:
		t, err = NewXLSXReader(r, XLSXOptions{Sheet: l.sheet}, l.mem).Read()
	case FormatParquet:
		t, err = NewParquetReader(r, DefaultParquetOptions(), l.mem).ReadContext(ctx)
	case FormatXLS:
		return nil, errors.NewUnsupportedTypeError("Load", "legacy .xls workbook").
			WithHint("save the workbook as .xlsx")
	default:
		return nil, errors.NewUnsupportedTypeError("Load", string(format))
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", format, err)
	}
	return t, nil
}

func (l *Loader) open(ctx context.Context, src Source) (io.ReadCloser, error) {
	if !src.Remote {
		f, err := os.Open(src.Location)
		if err != nil {
			return nil, fmt.Errorf("open source: %w", err)
		}
		return f, nil
	}

	l.logger.Debug("Fetching dataset", zap.String("url", src.Location))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.Location, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	req.Header.Set("User-Agent", version.UserAgent())
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("fetch: unexpected status %s: %s", resp.Status, strings.TrimSpace(string(b)))
	}
	return &limitedBody{r: io.LimitReader(resp.Body, l.maxBytes+1), left: l.maxBytes, limit: l.maxBytes, Closer: resp.Body}, nil
}

// limitedBody passes through at most limit bytes and fails with an invalid
// input error once the body turns out to be longer.
type limitedBody struct {
	r     io.Reader
	left  int64
	limit int64
	io.Closer
}

func (b *limitedBody) Read(p []byte) (int, error) {
	n, err := b.r.Read(p)
	if int64(n) > b.left {
		n = int(b.left)
		b.left = 0
		return n, errors.NewInvalidInputError("Load", fmt.Sprintf("source exceeds %d bytes", b.limit))
	}
	b.left -= int64(n)
	return n, err
}
