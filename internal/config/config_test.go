package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/paveg/tablescope/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettings_DefaultValues(t *testing.T) {
	s := config.NewSettings()

	assert.Equal(t, 10, s.RowsPerPage)
	assert.Equal(t, 20, s.MaxColumns)
	assert.Equal(t, 150, s.ColumnWidth)
	assert.Equal(t, ",", s.CSVSeparator)
	assert.Equal(t, "info", s.LogLevel)
	assert.Equal(t, "console", s.LogFormat)
	assert.Equal(t, 30, s.HTTPTimeoutSec)
	assert.Equal(t, "silverman", s.KDEBandwidth)
	assert.Equal(t, 30, s.KDEBinCount)
	assert.NoError(t, s.Validate())
}

func TestSettings_Validation(t *testing.T) {
	tests := []struct {
		name          string
		mutate        func(*config.Settings)
		expectedError string
	}{
		{"valid", func(*config.Settings) {}, ""},
		{"zero rows per page", func(s *config.Settings) { s.RowsPerPage = 0 }, "rows_per_page must be positive, got 0"},
		{"negative max columns", func(s *config.Settings) { s.MaxColumns = -2 }, "max_columns must be positive, got -2"},
		{"zero column width", func(s *config.Settings) { s.ColumnWidth = 0 }, "column_width must be positive, got 0"},
		{"long separator", func(s *config.Settings) { s.CSVSeparator = ";;" }, "csv_separator must be a single character"},
		{"quote separator", func(s *config.Settings) { s.CSVSeparator = `"` }, "csv_separator cannot be"},
		{"unicode separator", func(s *config.Settings) { s.CSVSeparator = "§" }, ""},
		{"bad log level", func(s *config.Settings) { s.LogLevel = "trace" }, "log_level must be one of"},
		{"bad log format", func(s *config.Settings) { s.LogFormat = "xml" }, "log_format must be console or json"},
		{"zero timeout", func(s *config.Settings) { s.HTTPTimeoutSec = 0 }, "http_timeout_sec must be positive"},
		{"numeric bandwidth", func(s *config.Settings) { s.KDEBandwidth = "0.5" }, ""},
		{"typo bandwidth", func(s *config.Settings) { s.KDEBandwidth = "silvermann" }, "kde_bandwidth must be"},
		{"negative bandwidth", func(s *config.Settings) { s.KDEBandwidth = "-1" }, "kde_bandwidth must be"},
		{"zero bins", func(s *config.Settings) { s.KDEBinCount = 0 }, "kde_bin_count must be positive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := config.NewSettings()
			tt.mutate(&s)
			err := s.Validate()
			if tt.expectedError == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.expectedError)
		})
	}
}

func TestSettings_WithDefaults(t *testing.T) {
	s := config.Settings{RowsPerPage: 25, CSVSeparator: ";"}.WithDefaults()

	assert.Equal(t, 25, s.RowsPerPage)
	assert.Equal(t, ";", s.CSVSeparator)
	assert.Equal(t, 20, s.MaxColumns)
	assert.Equal(t, "silverman", s.KDEBandwidth)
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("rows_per_page: 50\ncsv_separator: \";\"\n"), 0o600))

	s, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 50, s.RowsPerPage)
	assert.Equal(t, ";", s.CSVSeparator)
	assert.Equal(t, 20, s.MaxColumns, "unset keys fall back to defaults")

	t.Setenv("TABLESCOPE_ROWS_PER_PAGE", "7")
	t.Setenv("TABLESCOPE_LOG_FORMAT", "json")
	s, err = config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7, s.RowsPerPage, "environment beats the file")
	assert.Equal(t, "json", s.LogFormat)
}

func TestLoad_Errors(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("rows_per_page: -1\n"), 0o600))
	_, err = config.Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rows_per_page must be positive")
}

func TestLoad_DefaultFile(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr bool
		rows    int
	}{
		{"absent", "", false, config.DefaultRowsPerPage},
		{"valid", "rows_per_page: 25\n", false, 25},
		{"malformed yaml", "rows_per_page: [oops\n  : :", true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			home := t.TempDir()
			t.Setenv("HOME", home)
			if tt.content != "" {
				dir := filepath.Join(home, ".tablescope")
				require.NoError(t, os.MkdirAll(dir, 0o755))
				require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(tt.content), 0o600))
			}

			s, err := config.Load("")
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "config.yaml")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.rows, s.RowsPerPage)
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	s := config.NewSettings()
	s.MaxColumns = 8
	s.KDEBandwidth = "scott"
	require.NoError(t, config.Save(&s, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "max_columns: 8")

	loaded, err := config.LoadFromYAML(data)
	require.NoError(t, err)
	assert.Equal(t, s, loaded)
}

func TestSettings_Set(t *testing.T) {
	s := config.NewSettings()

	require.NoError(t, s.Set("rows_per_page", "12"))
	assert.Equal(t, 12, s.RowsPerPage)

	require.NoError(t, s.Set("log_level", "DEBUG"))
	assert.Equal(t, "debug", s.LogLevel)

	assert.Error(t, s.Set("rows_per_page", "many"))
	assert.Error(t, s.Set("column_width", "0"))
	assert.Error(t, s.Set("theme", "dark"))
}
