// Package monitoring records how long dataset operations take.
package monitoring

import (
	"slices"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// OperationMetrics is the outcome of one recorded operation.
type OperationMetrics struct {
	Operation string        `json:"operation"`
	Rows      int           `json:"rows"`
	Duration  time.Duration `json:"duration"`
	Failed    bool          `json:"failed"`
}

// Collector records operation metrics. It is safe for concurrent use.
type Collector struct {
	mu      sync.Mutex
	metrics []OperationMetrics
	enabled bool
}

// NewCollector creates a collector. A disabled collector runs operations
// without recording them.
func NewCollector(enabled bool) *Collector {
	return &Collector{enabled: enabled}
}

// Enabled reports whether operations are recorded.
func (c *Collector) Enabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.enabled
}

// Record runs fn and stores its duration under operation. fn's error is
// returned unchanged.
func (c *Collector) Record(operation string, rows int, fn func() error) error {
	if !c.Enabled() {
		return fn()
	}

	start := time.Now()
	err := fn()
	m := OperationMetrics{
		Operation: operation,
		Rows:      rows,
		Duration:  time.Since(start),
		Failed:    err != nil,
	}

	c.mu.Lock()
	c.metrics = append(c.metrics, m)
	c.mu.Unlock()
	return err
}

// Metrics returns a copy of the recorded metrics ordered by operation name.
func (c *Collector) Metrics() []OperationMetrics {
	c.mu.Lock()
	out := slices.Clone(c.metrics)
	c.mu.Unlock()

	slices.SortStableFunc(out, func(a, b OperationMetrics) int {
		return strings.Compare(a.Operation, b.Operation)
	})
	return out
}

// Summary aggregates the recorded metrics.
type Summary struct {
	Operations int
	Failed     int
	Total      time.Duration
	Slowest    string
}

// Summary returns aggregate statistics. Total is the sum of durations, so
// it exceeds wall time when operations overlap.
func (c *Collector) Summary() Summary {
	c.mu.Lock()
	defer c.mu.Unlock()

	var s Summary
	var slowest time.Duration
	for _, m := range c.metrics {
		s.Operations++
		s.Total += m.Duration
		if m.Failed {
			s.Failed++
		}
		if m.Duration >= slowest {
			slowest, s.Slowest = m.Duration, m.Operation
		}
	}
	return s
}

// Log writes one debug entry per recorded operation.
func (c *Collector) Log(logger *zap.Logger) {
	for _, m := range c.Metrics() {
		logger.Debug("Operation finished",
			zap.String("operation", m.Operation),
			zap.Int("rows", m.Rows),
			zap.Duration("duration", m.Duration),
			zap.Bool("failed", m.Failed))
	}
}
