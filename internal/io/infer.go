package io

import (
	"strconv"
	"strings"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/tablescope/internal/series"
)

const (
	// Boolean string constants
	trueStr  = "true"
	falseStr = "false"
)

// columnType is the inferred type of a text column.
type columnType int

const (
	typeString columnType = iota
	typeBool
	typeInt
	typeFloat
)

// isMissing reports whether a text cell is treated as null.
func isMissing(value string) bool {
	return strings.TrimSpace(value) == ""
}

// isFloatWord reports whether s is one of the NaN or infinity spellings
// strconv.ParseFloat accepts. A float column needs at least one cell that
// is a number rather than such a word.
func isFloatWord(s string) bool {
	s = strings.TrimLeft(s, "+-")
	switch strings.ToLower(s) {
	case "nan", "inf", "infinity":
		return true
	}
	return false
}

// inferType determines the most specific type every non-missing value of
// data parses as. Columns with no values are strings.
func inferType(data []string) columnType {
	canBeInt := true
	canBeFloat := true
	canBeBool := true
	hasValue := false
	hasNumber := false

	for _, raw := range data {
		if isMissing(raw) {
			continue // Skip empty values for type inference
		}
		hasValue = true
		value := strings.TrimSpace(raw)

		if canBeBool {
			lower := strings.ToLower(value)
			canBeBool = lower == trueStr || lower == falseStr
		}
		if canBeInt {
			_, err := strconv.ParseInt(value, 10, 64)
			canBeInt = err == nil
		}
		if canBeFloat {
			_, err := strconv.ParseFloat(value, 64)
			canBeFloat = err == nil
			if canBeFloat && !isFloatWord(value) {
				hasNumber = true
			}
		}
		if !canBeBool && !canBeInt && !canBeFloat {
			break
		}
	}

	switch {
	case !hasValue:
		return typeString
	case canBeBool:
		return typeBool
	case canBeInt:
		return typeInt
	case canBeFloat && hasNumber:
		return typeFloat
	default:
		return typeString
	}
}

// seriesFromStrings creates a series from text cells, inferring its type.
// Missing cells become nulls.
func seriesFromStrings(name string, data []string, mem memory.Allocator) (series.ISeries, error) {
	valid := make([]bool, len(data))
	for i, v := range data {
		valid[i] = !isMissing(v)
	}

	switch inferType(data) {
	case typeBool:
		return parseColumn(name, data, valid, mem, func(s string) (bool, error) {
			return strings.EqualFold(s, trueStr), nil
		})
	case typeInt:
		return parseColumn(name, data, valid, mem, func(s string) (int64, error) {
			return strconv.ParseInt(s, 10, 64)
		})
	case typeFloat:
		return parseColumn(name, data, valid, mem, func(s string) (float64, error) {
			return strconv.ParseFloat(s, 64)
		})
	default:
		values := make([]string, len(data))
		for i, v := range data {
			if valid[i] {
				values[i] = v
			}
		}
		return series.NewNullable(name, values, valid, mem)
	}
}

// parseColumn converts the valid cells of data with parse.
func parseColumn[T any](
	name string, data []string, valid []bool, mem memory.Allocator, parse func(string) (T, error),
) (series.ISeries, error) {
	values := make([]T, len(data))
	for i, raw := range data {
		if !valid[i] {
			continue
		}
		v, err := parse(strings.TrimSpace(raw))
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	s, err := series.NewNullable(name, values, valid, mem)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// headerNames fills blank or repeated header cells so every column name
// is unique: blanks become column_<i>, repeats get a .<n> suffix.
func headerNames(raw []string) []string {
	names := make([]string, len(raw))
	seen := make(map[string]int, len(raw))
	for i, h := range raw {
		name := strings.TrimSpace(h)
		if name == "" {
			name = "column_" + strconv.Itoa(i)
		}
		base := name
		for seen[name] > 0 {
			name = base + "." + strconv.Itoa(seen[base])
			seen[base]++
		}
		seen[name]++
		names[i] = name
	}
	return names
}
