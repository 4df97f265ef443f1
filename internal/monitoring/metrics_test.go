package monitoring

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestCollector(t *testing.T) {
	t.Run("disabled collector only runs the operation", func(t *testing.T) {
		c := NewCollector(false)

		calls := 0
		err := c.Record("describe", 10, func() error {
			calls++
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 1, calls)
		assert.Empty(t, c.Metrics())
		assert.Equal(t, Summary{}, c.Summary())
	})

	t.Run("records success and failure", func(t *testing.T) {
		c := NewCollector(true)
		boom := errors.New("boom")

		require.NoError(t, c.Record("kde", 5, func() error {
			time.Sleep(2 * time.Millisecond)
			return nil
		}))
		err := c.Record("corr", 5, func() error { return boom })
		assert.ErrorIs(t, err, boom)

		metrics := c.Metrics()
		require.Len(t, metrics, 2)
		assert.Equal(t, "corr", metrics[0].Operation, "ordered by name")
		assert.True(t, metrics[0].Failed)
		assert.Equal(t, "kde", metrics[1].Operation)
		assert.GreaterOrEqual(t, metrics[1].Duration, 2*time.Millisecond)
		assert.Equal(t, 5, metrics[1].Rows)

		s := c.Summary()
		assert.Equal(t, 2, s.Operations)
		assert.Equal(t, 1, s.Failed)
		assert.Equal(t, "kde", s.Slowest)
		assert.GreaterOrEqual(t, s.Total, 2*time.Millisecond)
	})

	t.Run("concurrent records", func(t *testing.T) {
		c := NewCollector(true)

		var wg sync.WaitGroup
		for range 20 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_ = c.Record("op", 1, func() error { return nil })
			}()
		}
		wg.Wait()
		assert.Len(t, c.Metrics(), 20)
	})
}

func TestCollectorLog(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	c := NewCollector(true)
	_ = c.Record("describe", 3, func() error { return nil })

	c.Log(zap.New(core))

	entries := logs.FilterMessage("Operation finished").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "describe", entries[0].ContextMap()["operation"])
	assert.Equal(t, int64(3), entries[0].ContextMap()["rows"])
}
