// Package config provides the user settings for tablescope: table display,
// CSV export, logging, HTTP ingestion and KDE defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes environment overrides, e.g. TABLESCOPE_ROWS_PER_PAGE.
const EnvPrefix = "TABLESCOPE"

// Default setting values
const (
	DefaultRowsPerPage    = 10
	DefaultMaxColumns     = 20
	DefaultColumnWidth    = 150
	DefaultCSVSeparator   = ","
	DefaultLogLevel       = "info"
	DefaultLogFormat      = "console"
	DefaultHTTPTimeoutSec = 30
	DefaultKDEBandwidth   = "silverman"
	DefaultKDEBinCount    = 30
)

// Settings holds every recognized option.
type Settings struct {
	// Display
	RowsPerPage int `mapstructure:"rows_per_page" yaml:"rows_per_page"` // Rows shown per table page
	MaxColumns  int `mapstructure:"max_columns" yaml:"max_columns"`     // Columns shown before truncating
	ColumnWidth int `mapstructure:"column_width" yaml:"column_width"`   // Column width in pixels

	// Export
	CSVSeparator string `mapstructure:"csv_separator" yaml:"csv_separator"` // Single character field separator

	// Logging
	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`   // debug, info, warn, error
	LogFormat string `mapstructure:"log_format" yaml:"log_format"` // console or json

	// Ingestion
	HTTPTimeoutSec int `mapstructure:"http_timeout_sec" yaml:"http_timeout_sec"`

	// KDE
	KDEBandwidth string `mapstructure:"kde_bandwidth" yaml:"kde_bandwidth"` // scott, silverman or a number
	KDEBinCount  int    `mapstructure:"kde_bin_count" yaml:"kde_bin_count"`
}

// NewSettings returns settings with default values
func NewSettings() Settings {
	return Settings{
		RowsPerPage:    DefaultRowsPerPage,
		MaxColumns:     DefaultMaxColumns,
		ColumnWidth:    DefaultColumnWidth,
		CSVSeparator:   DefaultCSVSeparator,
		LogLevel:       DefaultLogLevel,
		LogFormat:      DefaultLogFormat,
		HTTPTimeoutSec: DefaultHTTPTimeoutSec,
		KDEBandwidth:   DefaultKDEBandwidth,
		KDEBinCount:    DefaultKDEBinCount,
	}
}

// Validate returns an error describing the first invalid setting
func (s *Settings) Validate() error {
	if s.RowsPerPage <= 0 {
		return fmt.Errorf("rows_per_page must be positive, got %d", s.RowsPerPage)
	}
	if s.MaxColumns <= 0 {
		return fmt.Errorf("max_columns must be positive, got %d", s.MaxColumns)
	}
	if s.ColumnWidth <= 0 {
		return fmt.Errorf("column_width must be positive, got %d", s.ColumnWidth)
	}
	if _, err := s.Separator(); err != nil {
		return err
	}

	switch s.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be one of debug, info, warn, error, got %q", s.LogLevel)
	}
	switch s.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("log_format must be console or json, got %q", s.LogFormat)
	}

	if s.HTTPTimeoutSec <= 0 {
		return fmt.Errorf("http_timeout_sec must be positive, got %d", s.HTTPTimeoutSec)
	}

	switch strings.ToLower(s.KDEBandwidth) {
	case "scott", "silverman":
	default:
		h, err := strconv.ParseFloat(s.KDEBandwidth, 64)
		if err != nil || !(h > 0) {
			return fmt.Errorf("kde_bandwidth must be scott, silverman or a positive number, got %q", s.KDEBandwidth)
		}
	}
	if s.KDEBinCount <= 0 {
		return fmt.Errorf("kde_bin_count must be positive, got %d", s.KDEBinCount)
	}

	return nil
}

// Separator returns the CSV separator as a rune.
func (s *Settings) Separator() (rune, error) {
	r, size := utf8.DecodeRuneInString(s.CSVSeparator)
	if size == 0 || size != len(s.CSVSeparator) || r == utf8.RuneError {
		return 0, fmt.Errorf("csv_separator must be a single character, got %q", s.CSVSeparator)
	}
	if r == '"' || r == '\r' || r == '\n' {
		return 0, fmt.Errorf("csv_separator cannot be %q", s.CSVSeparator)
	}
	return r, nil
}

// WithDefaults returns a copy with default values filled in for zero values
func (s Settings) WithDefaults() Settings {
	defaults := NewSettings()

	if s.RowsPerPage == 0 {
		s.RowsPerPage = defaults.RowsPerPage
	}
	if s.MaxColumns == 0 {
		s.MaxColumns = defaults.MaxColumns
	}
	if s.ColumnWidth == 0 {
		s.ColumnWidth = defaults.ColumnWidth
	}
	if s.CSVSeparator == "" {
		s.CSVSeparator = defaults.CSVSeparator
	}
	if s.LogLevel == "" {
		s.LogLevel = defaults.LogLevel
	}
	if s.LogFormat == "" {
		s.LogFormat = defaults.LogFormat
	}
	if s.HTTPTimeoutSec == 0 {
		s.HTTPTimeoutSec = defaults.HTTPTimeoutSec
	}
	if s.KDEBandwidth == "" {
		s.KDEBandwidth = defaults.KDEBandwidth
	}
	if s.KDEBinCount == 0 {
		s.KDEBinCount = defaults.KDEBinCount
	}

	return s
}

// DefaultPath returns ~/.tablescope/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".tablescope", "config.yaml"), nil
}

// Load reads settings from defaults, an optional YAML file and TABLESCOPE_*
// environment variables, in increasing precedence. An empty path looks for
// the default file; a missing default file is not an error, a missing
// explicit file is.
func Load(path string) (*Settings, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	defaults := NewSettings()
	v.SetDefault("rows_per_page", defaults.RowsPerPage)
	v.SetDefault("max_columns", defaults.MaxColumns)
	v.SetDefault("column_width", defaults.ColumnWidth)
	v.SetDefault("csv_separator", defaults.CSVSeparator)
	v.SetDefault("log_level", defaults.LogLevel)
	v.SetDefault("log_format", defaults.LogFormat)
	v.SetDefault("http_timeout_sec", defaults.HTTPTimeoutSec)
	v.SetDefault("kde_bandwidth", defaults.KDEBandwidth)
	v.SetDefault("kde_bin_count", defaults.KDEBinCount)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
	} else if def, err := DefaultPath(); err == nil {
		v.AddConfigPath(filepath.Dir(def))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("reading config file %s: %w", def, err)
			}
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &s, nil
}

// Save writes s as YAML to path, or to DefaultPath when path is empty,
// creating the parent directory if necessary.
func Save(s *Settings, path string) error {
	if path == "" {
		def, err := DefaultPath()
		if err != nil {
			return err
		}
		path = def
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}

	b, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// LoadFromYAML parses YAML settings, filling unset fields with defaults.
func LoadFromYAML(data []byte) (Settings, error) {
	var s Settings
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("parsing YAML configuration: %w", err)
	}
	return s.WithDefaults(), nil
}

// Set assigns one setting from its textual form, as used by `config set`.
func (s *Settings) Set(key, value string) error {
	atoi := func() (int, error) {
		n, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("%s must be an integer, got %q", key, value)
		}
		return n, nil
	}

	var err error
	switch key {
	case "rows_per_page":
		s.RowsPerPage, err = atoi()
	case "max_columns":
		s.MaxColumns, err = atoi()
	case "column_width":
		s.ColumnWidth, err = atoi()
	case "csv_separator":
		s.CSVSeparator = value
	case "log_level":
		s.LogLevel = strings.ToLower(value)
	case "log_format":
		s.LogFormat = strings.ToLower(value)
	case "http_timeout_sec":
		s.HTTPTimeoutSec, err = atoi()
	case "kde_bandwidth":
		s.KDEBandwidth = value
	case "kde_bin_count":
		s.KDEBinCount, err = atoi()
	default:
		return fmt.Errorf("unknown setting %q", key)
	}
	if err != nil {
		return err
	}
	return s.Validate()
}
