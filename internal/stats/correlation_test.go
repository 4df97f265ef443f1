package stats_test

import (
	"math"
	"testing"

	"github.com/paveg/tablescope/internal/stats"
	"github.com/paveg/tablescope/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPearsonCorrelationLinear(t *testing.T) {
	tbl := testutil.NewTable(t,
		testutil.Ints("x", 1, 2, 3, 4),
		testutil.Floats("y", 2, 4, 6, 8),
	)

	m := stats.PearsonCorrelation(tbl)
	require.NotNil(t, m)
	assert.Equal(t, []string{"x", "y"}, m.Columns)

	r, ok := m.At("x", "y")
	require.True(t, ok)
	assert.InDelta(t, 1.0, r, 1e-12)
	assert.LessOrEqual(t, r, 1.0)
}

func TestPearsonCorrelationProperties(t *testing.T) {
	tbl := testutil.NewTable(t,
		testutil.Floats("a", 1, 2, 3, 4, 5),
		testutil.Floats("b", 5, 3, 4, 1, 2),
		testutil.Nullable("c", []int64{2, 0, 7, 1, 9}, []bool{true, false, true, true, true}),
		testutil.Strings("label", "p", "q", "r", "s", "t"),
		testutil.Bools("flag", true, false, true, false, true),
	)

	m := stats.PearsonCorrelation(tbl)
	require.NotNil(t, m)
	assert.Equal(t, []string{"a", "b", "c"}, m.Columns, "only numeric columns")

	for _, a := range m.Columns {
		assert.Equal(t, 1.0, m.Values[a][a])
		for _, b := range m.Columns {
			ab, bc := m.Values[a][b], m.Values[b][a]
			assert.Equal(t, ab, bc, "symmetric entry %s/%s", a, b)
			assert.True(t, ab >= -1 && ab <= 1, "bounded entry %s/%s = %v", a, b, ab)
		}
	}

	r, _ := m.At("a", "b")
	assert.InDelta(t, -0.8, r, 1e-12)

	_, ok := m.At("a", "label")
	assert.False(t, ok)
}

func TestPearsonCorrelationPairwiseComplete(t *testing.T) {
	// Row 1 is null in y only, row 3 in z only; each pair drops just its own rows.
	tbl := testutil.NewTable(t,
		testutil.Floats("x", 1, 2, 3, 4, 5),
		testutil.Nullable("y", []float64{2, 100, 6, 8, 10}, []bool{true, false, true, true, true}),
		testutil.Nullable("z", []float64{-1, -2, -3, 50, -5}, []bool{true, true, true, false, true}),
	)

	m := stats.PearsonCorrelation(tbl)
	require.NotNil(t, m)

	xy, _ := m.At("x", "y")
	xz, _ := m.At("x", "z")
	assert.InDelta(t, 1.0, xy, 1e-12)
	assert.InDelta(t, -1.0, xz, 1e-12)
}

func TestPearsonCorrelationDegenerate(t *testing.T) {
	tbl := testutil.NewTable(t,
		testutil.Floats("const", 3, 3, 3, 3),
		testutil.Floats("x", 1, 2, 3, 4),
		testutil.Nullable("sparse", []float64{1, 0, 0, 0}, []bool{true, false, false, false}),
		testutil.Floats("nan", math.NaN(), 1, math.NaN(), math.NaN()),
	)

	m := stats.PearsonCorrelation(tbl)
	require.NotNil(t, m)

	for _, pair := range [][2]string{{"const", "x"}, {"x", "const"}, {"sparse", "x"}, {"nan", "x"}} {
		r, ok := m.At(pair[0], pair[1])
		require.True(t, ok)
		assert.True(t, math.IsNaN(r), "%s/%s should be NaN", pair[0], pair[1])
	}
	assert.Equal(t, 1.0, m.Values["const"]["const"])
	assert.Equal(t, 6, m.NaNCount())
}

func TestPearsonCorrelationNil(t *testing.T) {
	t.Run("no rows", func(t *testing.T) {
		tbl := testutil.NewTable(t, testutil.Floats("a"), testutil.Floats("b"))
		assert.Nil(t, stats.PearsonCorrelation(tbl))
	})

	t.Run("one numeric column", func(t *testing.T) {
		tbl := testutil.NewTable(t, testutil.Floats("a", 1, 2), testutil.Strings("s", "x", "y"))
		assert.Nil(t, stats.PearsonCorrelation(tbl))
	})

	t.Run("no columns", func(t *testing.T) {
		assert.Nil(t, stats.PearsonCorrelation(testutil.NewTable(t)))
	})
}
