// Package stats implements the analyses run over a table: duplicate-row
// detection, kernel density estimation, histogram binning, pairwise Pearson
// correlation and per-column descriptive statistics.
//
// Everything here is a pure function of its inputs. Nothing logs, nothing
// mutates the table it is given, and every call allocates its own state, so
// the functions are safe to call concurrently on the same table.
package stats

import (
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/paveg/tablescope/internal/errors"
	"github.com/paveg/tablescope/internal/table"
	"github.com/paveg/tablescope/internal/validation"
)

// Keep selects which occurrence of a repeated row is left unmarked.
type Keep int

const (
	// KeepFirst leaves the first occurrence of each key unmarked.
	KeepFirst Keep = iota
	// KeepLast leaves the last occurrence of each key unmarked.
	KeepLast
	// KeepNone marks every occurrence of a repeated key.
	KeepNone
)

func (k Keep) String() string {
	switch k {
	case KeepFirst:
		return "first"
	case KeepLast:
		return "last"
	case KeepNone:
		return "false"
	default:
		return fmt.Sprintf("Keep(%d)", int(k))
	}
}

// ParseKeep parses the textual keep policy. "false" and "none" both mean
// KeepNone.
func ParseKeep(s string) (Keep, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "first", "":
		return KeepFirst, nil
	case "last":
		return KeepLast, nil
	case "false", "none":
		return KeepNone, nil
	default:
		return 0, errors.NewParamError("Duplicated",
			fmt.Sprintf("keep must be one of 'first', 'last' or false, got %q", s))
	}
}

// keySeparator terminates each cell in a row key.
const keySeparator = 0x1f

// Duplicated marks rows whose projection onto subset repeats an earlier (or,
// for KeepLast, a later) row. A nil or empty subset means every column in
// table order. The result is aligned to row order and has t.Len() entries.
//
// Unknown subset columns and invalid keep values are reported before any
// row is read.
func Duplicated(t *table.Table, subset []string, keep Keep) ([]bool, error) {
	if keep != KeepFirst && keep != KeepLast && keep != KeepNone {
		return nil, errors.NewParamError("Duplicated", fmt.Sprintf("invalid keep policy %d", int(keep)))
	}
	if len(subset) == 0 {
		subset = t.Columns()
	}
	if err := validation.ValidateColumns(t, "Duplicated", subset...); err != nil {
		return nil, err
	}

	n := t.Len()
	out := make([]bool, n)
	if n == 0 {
		return out, nil
	}

	keys, err := rowKeys(t, subset)
	if err != nil {
		return nil, err
	}

	switch keep {
	case KeepFirst:
		seen := newKeySet(n)
		for i := 0; i < n; i++ {
			out[i] = !seen.add(keys[i])
		}
	case KeepLast:
		seen := newKeySet(n)
		for i := n - 1; i >= 0; i-- {
			out[i] = !seen.add(keys[i])
		}
	case KeepNone:
		counts := newKeySet(n)
		for i := 0; i < n; i++ {
			counts.add(keys[i])
		}
		for i := 0; i < n; i++ {
			out[i] = counts.count(keys[i]) > 1
		}
	}
	return out, nil
}

// CountDuplicates returns how many rows Duplicated would mark.
func CountDuplicates(t *table.Table, subset []string, keep Keep) (int, error) {
	flags, err := Duplicated(t, subset, keep)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, dup := range flags {
		if dup {
			count++
		}
	}
	return count, nil
}

// rowKeys serializes every row's projection onto names.
func rowKeys(t *table.Table, names []string) ([]string, error) {
	reader, err := t.CellReader(names...)
	if err != nil {
		return nil, err
	}
	defer reader.Release()

	keys := make([]string, t.Len())
	var buf []byte
	for row := range keys {
		buf = buf[:0]
		for col := 0; col < reader.Width(); col++ {
			buf = reader.Cell(row, col).AppendKey(buf)
			buf = append(buf, keySeparator)
		}
		keys[row] = string(buf)
	}
	return keys, nil
}

// keySet is a multiset of row keys bucketed by their xxhash digest. Keys in
// a bucket are compared in full, so hash collisions never merge rows.
type keySet struct {
	buckets map[uint64][]keyEntry
}

type keyEntry struct {
	key   string
	count int
}

func newKeySet(capacity int) *keySet {
	return &keySet{buckets: make(map[uint64][]keyEntry, capacity)}
}

// add records one occurrence of key and reports whether it was new.
func (s *keySet) add(key string) bool {
	h := xxhash.Sum64String(key)
	bucket := s.buckets[h]
	for i := range bucket {
		if bucket[i].key == key {
			bucket[i].count++
			return false
		}
	}
	s.buckets[h] = append(bucket, keyEntry{key: key, count: 1})
	return true
}

// count returns the number of recorded occurrences of key.
func (s *keySet) count(key string) int {
	for _, e := range s.buckets[xxhash.Sum64String(key)] {
		if e.key == key {
			return e.count
		}
	}
	return 0
}
