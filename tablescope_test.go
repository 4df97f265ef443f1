package tablescope_test

import (
	"bytes"
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/paveg/tablescope"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const sampleCSV = `id,name,score,active
1,a,1.5,true
2,b,2.5,false
1,a,1.5,true
3,,,true
`

func readSample(t *testing.T, opts ...tablescope.Option) *tablescope.Dataset {
	t.Helper()
	d, err := tablescope.ReadCSV(strings.NewReader(sampleCSV), opts...)
	require.NoError(t, err)
	t.Cleanup(d.Release)
	return d
}

func TestReadCSV(t *testing.T) {
	d := readSample(t)

	assert.Equal(t, 4, d.Len())
	assert.Equal(t, []string{"id", "name", "score", "active"}, d.Columns())
	assert.Equal(t, "numeric", d.Kind("id"))
	assert.Equal(t, "categorical", d.Kind("name"))
	assert.Equal(t, "boolean", d.Kind("active"))
	assert.Equal(t, []string{"id", "score"}, d.NumericColumns())

	v, ok := d.Cell(3, "name")
	assert.False(t, ok)
	assert.Empty(t, v)
}

func TestDuplicated(t *testing.T) {
	d := readSample(t)

	flags, err := tablescope.Duplicated(d, nil, tablescope.KeepFirst)
	require.NoError(t, err)
	assert.Equal(t, []bool{false, false, true, false}, flags)

	flags, err = tablescope.Duplicated(d, []string{"id"}, tablescope.KeepNone)
	require.NoError(t, err)
	assert.Equal(t, []bool{true, false, true, false}, flags)

	n, err := tablescope.CountDuplicates(d, []string{"active"}, tablescope.KeepLast)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = tablescope.Duplicated(d, []string{"missing"}, tablescope.KeepFirst)
	assert.ErrorIs(t, err, tablescope.ErrParam)

	deduped, err := tablescope.DropDuplicates(d, nil, tablescope.KeepFirst)
	require.NoError(t, err)
	defer deduped.Release()
	assert.Equal(t, 3, deduped.Len())
	assert.Equal(t, 4, d.Len(), "input untouched")
}

func TestColumnKDE(t *testing.T) {
	d := readSample(t)

	res, err := tablescope.ColumnKDE(d, "score", tablescope.Silverman(), tablescope.DefaultKDEOptions())
	require.NoError(t, err)
	require.Len(t, res.X, 200)
	require.Len(t, res.Y, 200)
	assert.Equal(t, 1.5, res.X[0])
	assert.Equal(t, 2.5, res.X[199])
	assert.Greater(t, res.Bandwidth, 0.0)

	_, err = tablescope.ColumnKDE(d, "name", tablescope.Silverman(), tablescope.DefaultKDEOptions())
	assert.ErrorIs(t, err, tablescope.ErrUnsupported)
}

func TestKDE(t *testing.T) {
	_, err := tablescope.KDE(nil, tablescope.Scott(), 0, 1, tablescope.DefaultKDEOptions())
	assert.ErrorIs(t, err, tablescope.ErrInvalidInput)

	bw, err := tablescope.ParseBandwidth("0.5")
	require.NoError(t, err)
	res, err := tablescope.KDE([]float64{0}, bw, -1, 1, tablescope.DefaultKDEOptions())
	require.NoError(t, err)
	assert.InDelta(t, 1/(0.5*math.Sqrt(2*math.Pi)), res.Y[0]*math.Exp(2), 1e-9)
}

func TestHistogram(t *testing.T) {
	d := readSample(t)

	h, err := tablescope.Histogram(d, "id", 2)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 2}, h.Counts)
	assert.Equal(t, 4, h.Total())
}

func TestPearsonCorrelation(t *testing.T) {
	d := readSample(t)

	m := tablescope.PearsonCorrelation(d)
	require.NotNil(t, m)
	r, ok := m.At("id", "score")
	require.True(t, ok)
	assert.InDelta(t, 1.0, r, 1e-12)
}

func TestPearsonCorrelationLogsUndefinedPairs(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	d, err := tablescope.ReadCSV(strings.NewReader("a,b\n1,5\n2,5\n3,5\n"),
		tablescope.WithLogger(zap.New(core)))
	require.NoError(t, err)
	defer d.Release()

	m := tablescope.PearsonCorrelation(d)
	require.NotNil(t, m)
	r, _ := m.At("a", "b")
	assert.True(t, math.IsNaN(r))

	entries := logs.FilterMessage("Correlation matrix has undefined entries").All()
	require.Len(t, entries, 1)
	assert.Equal(t, int64(1), entries[0].ContextMap()["pairs"])
	assert.Equal(t, "tablescope", entries[0].LoggerName)
}

func TestPearsonCorrelationUnavailable(t *testing.T) {
	d, err := tablescope.ReadCSV(strings.NewReader("a,b\n1,x\n"))
	require.NoError(t, err)
	defer d.Release()

	assert.Nil(t, tablescope.PearsonCorrelation(d))
}

func TestDescribe(t *testing.T) {
	d := readSample(t)

	summaries, err := tablescope.Describe(context.Background(), d)
	require.NoError(t, err)
	require.Len(t, summaries, 4)
	for i, name := range d.Columns() {
		assert.Equal(t, name, summaries[i].Name)
	}
	assert.Equal(t, 3, summaries[2].Count)
	assert.Equal(t, 1, summaries[2].Nulls)
	assert.Equal(t, 3, summaries[3].True)
}

func TestPage(t *testing.T) {
	d := readSample(t)

	pv, err := tablescope.Page(d, 2, 3, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, pv.TotalPages)
	assert.True(t, pv.Truncated)
	assert.Equal(t, [][]string{{"3", ""}}, pv.Rows)
}

func TestTransforms(t *testing.T) {
	d := readSample(t)

	renamed, err := tablescope.Rename(d, map[string]string{"score": "points"})
	require.NoError(t, err)
	defer renamed.Release()
	assert.Equal(t, []string{"id", "name", "points", "active"}, renamed.Columns())

	filled, err := tablescope.FillNull(renamed, "0", "points")
	require.NoError(t, err)
	defer filled.Release()
	v, ok := filled.Cell(3, "points")
	assert.True(t, ok)
	assert.Equal(t, "0", v)

	target, err := tablescope.ParseType("text")
	require.NoError(t, err)
	cast, err := tablescope.Cast(filled, "id", target)
	require.NoError(t, err)
	defer cast.Release()
	assert.Equal(t, "categorical", cast.Kind("id"))

	_, err = tablescope.Cast(d, "name", tablescope.TypeInt)
	assert.ErrorIs(t, err, tablescope.ErrInvalidInput)
}

func TestWriteCSV(t *testing.T) {
	d := readSample(t)

	var buf bytes.Buffer
	require.NoError(t, tablescope.WriteCSV(d, &buf, ';'))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "id;name;score;active", lines[0])
	assert.Equal(t, "3;;;true", lines[4])

	back, err := tablescope.ReadCSV(&buf, tablescope.WithSeparator(';'))
	require.NoError(t, err)
	defer back.Release()
	assert.Equal(t, d.Columns(), back.Columns())
	assert.Equal(t, d.Len(), back.Len())
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scores.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0o600))

	core, logs := observer.New(zapcore.InfoLevel)
	d, err := tablescope.Load(context.Background(), path, tablescope.WithLogger(zap.New(core)))
	require.NoError(t, err)
	defer d.Release()

	assert.NotEmpty(t, d.ID())
	assert.Equal(t, "scores.csv", d.Source())
	assert.False(t, d.LoadedAt().IsZero())
	assert.Equal(t, 1, logs.FilterMessage("Loaded dataset").Len())

	derived, err := tablescope.DropDuplicates(d, nil, tablescope.KeepFirst)
	require.NoError(t, err)
	defer derived.Release()
	assert.Equal(t, d.ID(), derived.ID())

	parquetPath := filepath.Join(dir, "scores.parquet")
	f, err := os.Create(parquetPath)
	require.NoError(t, err)
	require.NoError(t, tablescope.WriteParquet(d, f, "zstd"))
	require.NoError(t, f.Close())

	reloaded, err := tablescope.Load(context.Background(), parquetPath, tablescope.WithLogger(zap.NewNop()))
	require.NoError(t, err)
	defer reloaded.Release()
	assert.Equal(t, d.Columns(), reloaded.Columns())
	assert.Equal(t, d.Len(), reloaded.Len())

	_, err = tablescope.Load(context.Background(), filepath.Join(dir, "notes.txt"))
	assert.ErrorIs(t, err, tablescope.ErrUnsupported)
}
