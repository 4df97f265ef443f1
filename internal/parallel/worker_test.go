package parallel_test

import (
	"context"
	"runtime"
	"sync/atomic"
	"testing"

	"github.com/paveg/tablescope/internal/parallel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWorkerPool(t *testing.T) {
	pool := parallel.NewWorkerPool(0)
	defer pool.Close()
	assert.Equal(t, runtime.NumCPU(), pool.Workers())

	pool2 := parallel.NewWorkerPool(4)
	defer pool2.Close()
	assert.Equal(t, 4, pool2.Workers())

	pool3 := parallel.NewWorkerPool(-1)
	defer pool3.Close()
	assert.Equal(t, runtime.NumCPU(), pool3.Workers())
}

func TestProcessIndexedPreservesOrder(t *testing.T) {
	pool := parallel.NewWorkerPool(3)
	defer pool.Close()

	input := make([]int, 100)
	for i := range input {
		input[i] = i
	}

	results, err := parallel.ProcessIndexed(pool, input, func(idx, x int) int {
		return idx*1000 + x*x
	})
	require.NoError(t, err)
	require.Len(t, results, 100)
	for i, r := range results {
		assert.Equal(t, i*1000+i*i, r)
	}
}

func TestProcessIndexedEmpty(t *testing.T) {
	pool := parallel.NewWorkerPool(2)
	defer pool.Close()

	results, err := parallel.ProcessIndexed(pool, []string{}, func(int, string) int { return 1 })
	require.NoError(t, err)
	assert.Nil(t, results)
}

func TestProcessIndexedRunsEveryItemOnce(t *testing.T) {
	pool := parallel.NewWorkerPool(4)
	defer pool.Close()

	var calls atomic.Int64
	items := make([]struct{}, 50)
	_, err := parallel.ProcessIndexed(pool, items, func(int, struct{}) bool {
		calls.Add(1)
		return true
	})
	require.NoError(t, err)
	assert.Equal(t, int64(50), calls.Load())
}

func TestProcessIndexedCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	pool := parallel.NewWorkerPoolContext(ctx, 2)
	defer pool.Close()

	_, err := parallel.ProcessIndexed(pool, []int{1, 2, 3}, func(_, x int) int { return x })
	assert.ErrorIs(t, err, context.Canceled)
}
