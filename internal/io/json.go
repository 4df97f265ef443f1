package io

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/paveg/tablescope/internal/series"
	"github.com/paveg/tablescope/internal/table"
)

// maxJSONLine bounds a single JSON lines record.
const maxJSONLine = 16 << 20

// jsonRecords collects decoded objects and the column order, which is the
// order keys are first seen.
type jsonRecords struct {
	columns []string
	known   map[string]struct{}
	rows    []map[string]any
}

func (rs *jsonRecords) add(keys []string, row map[string]any) {
	for _, k := range keys {
		if _, ok := rs.known[k]; !ok {
			rs.known[k] = struct{}{}
			rs.columns = append(rs.columns, k)
		}
	}
	rs.rows = append(rs.rows, row)
}

// Read reads JSON data and returns a Table.
func (r *JSONReader) Read() (*table.Table, error) {
	data, err := io.ReadAll(r.reader)
	if err != nil {
		return nil, fmt.Errorf("reading JSON data: %w", err)
	}

	format := r.options.Format
	if format == JSONAuto {
		format = detectJSONFormat(data)
	}

	records := &jsonRecords{known: make(map[string]struct{})}
	switch format {
	case JSONArray:
		err = r.readJSONArray(data, records)
	case JSONLines:
		err = r.readJSONLines(data, records)
	default:
		return nil, fmt.Errorf("unsupported JSON format: %d", format)
	}
	if err != nil {
		return nil, err
	}

	return r.recordsToTable(records)
}

// detectJSONFormat treats input starting with '[' as an array and anything
// else as JSON lines.
func detectJSONFormat(data []byte) JSONFormat {
	trimmed := bytes.TrimLeft(data, " \t\r\n\ufeff")
	if len(trimmed) > 0 && trimmed[0] == '[' {
		return JSONArray
	}
	return JSONLines
}

// readJSONArray reads JSON array format.
func (r *JSONReader) readJSONArray(data []byte, records *jsonRecords) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	if err := expectDelim(dec, '['); err != nil {
		return fmt.Errorf("unmarshaling JSON array: %w", err)
	}
	for dec.More() {
		keys, row, err := decodeObject(dec)
		if err != nil {
			return fmt.Errorf("unmarshaling JSON record %d: %w", len(records.rows)+1, err)
		}
		records.add(keys, row)
		if r.options.MaxRecords > 0 && len(records.rows) >= r.options.MaxRecords {
			return nil
		}
	}
	if err := expectDelim(dec, ']'); err != nil {
		return fmt.Errorf("unmarshaling JSON array: %w", err)
	}
	return nil
}

// readJSONLines reads JSON Lines format.
func (r *JSONReader) readJSONLines(data []byte, records *jsonRecords) error {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64<<10), maxJSONLine)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue // Skip empty lines
		}

		dec := json.NewDecoder(strings.NewReader(line))
		dec.UseNumber()
		keys, row, err := decodeObject(dec)
		if err != nil {
			return fmt.Errorf("unmarshaling JSON line %d: %w", lineNum, err)
		}
		records.add(keys, row)

		if r.options.MaxRecords > 0 && len(records.rows) >= r.options.MaxRecords {
			break
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scanning JSON lines: %w", err)
	}
	return nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("expected %q, got %v", want, tok)
	}
	return nil
}

// decodeObject reads one JSON object, returning its keys in document order.
func decodeObject(dec *json.Decoder) ([]string, map[string]any, error) {
	if err := expectDelim(dec, '{'); err != nil {
		return nil, nil, err
	}

	var keys []string
	row := make(map[string]any)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, nil, fmt.Errorf("expected object key, got %v", tok)
		}

		var value any
		if err := dec.Decode(&value); err != nil {
			return nil, nil, err
		}
		if _, dup := row[key]; !dup {
			keys = append(keys, key)
		}
		row[key] = value
	}

	if err := expectDelim(dec, '}'); err != nil {
		return nil, nil, err
	}
	return keys, row, nil
}

// recordsToTable converts JSON records to a Table. Missing keys and JSON
// null are nulls.
func (r *JSONReader) recordsToTable(records *jsonRecords) (*table.Table, error) {
	if len(records.rows) == 0 {
		return table.New(), nil
	}

	cols := make([]series.ISeries, 0, len(records.columns))
	release := func() {
		for _, s := range cols {
			s.Release()
		}
	}

	data := make([]any, len(records.rows))
	for _, col := range records.columns {
		for i, row := range records.rows {
			data[i] = row[col]
		}

		s, err := r.createSeriesFromData(col, data)
		if err != nil {
			release()
			return nil, fmt.Errorf("creating series for column %s: %w", col, err)
		}
		cols = append(cols, s)
	}

	t, err := table.NewChecked(cols...)
	if err != nil {
		release()
		return nil, err
	}
	return t, nil
}

// createSeriesFromData creates a Series from decoded values with type
// inference.
func (r *JSONReader) createSeriesFromData(name string, data []any) (series.ISeries, error) {
	valid := make([]bool, len(data))
	for i, v := range data {
		valid[i] = v != nil
	}

	colType := typeString
	if r.options.TypeInference {
		colType = inferJSONType(data)
	}

	switch colType {
	case typeBool:
		values := make([]bool, len(data))
		for i, v := range data {
			values[i] = toBool(v)
		}
		return series.NewNullable(name, values, valid, r.mem)
	case typeInt:
		values := make([]int64, len(data))
		for i, v := range data {
			values[i], _ = toNumber(v).Int64()
		}
		return series.NewNullable(name, values, valid, r.mem)
	case typeFloat:
		values := make([]float64, len(data))
		for i, v := range data {
			values[i], _ = toNumber(v).Float64()
		}
		return series.NewNullable(name, values, valid, r.mem)
	default:
		values := make([]string, len(data))
		for i, v := range data {
			values[i] = interfaceToString(v)
		}
		return series.NewNullable(name, values, valid, r.mem)
	}
}

// inferJSONType picks the column type. Numbers, booleans and strings
// holding either are merged only when every value agrees; any mix of
// booleans with numbers, or of JSON numbers with numeric strings, falls
// back to string.
func inferJSONType(data []any) columnType {
	var hasInt, hasFloat, hasBool, hasNumber, hasNumericString bool

	for _, v := range data {
		switch val := v.(type) {
		case nil:
			continue
		case bool:
			hasBool = true
		case json.Number:
			hasNumber = true
			if _, err := val.Int64(); err == nil {
				hasInt = true
			} else {
				hasFloat = true
			}
		case string:
			switch {
			case strings.EqualFold(val, trueStr) || strings.EqualFold(val, falseStr):
				hasBool = true
			case isInt(val):
				hasInt, hasNumericString = true, true
			case isFloat(val):
				hasFloat, hasNumericString = true, true
			default:
				return typeString
			}
		default:
			return typeString
		}
	}

	switch {
	case hasNumber && hasNumericString:
		return typeString
	case hasBool && (hasInt || hasFloat):
		return typeString
	case hasFloat:
		return typeFloat
	case hasInt:
		return typeInt
	case hasBool:
		return typeBool
	default:
		return typeString
	}
}

func isInt(s string) bool {
	_, err := strconv.ParseInt(s, 10, 64)
	return err == nil
}

func isFloat(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

func toNumber(v any) json.Number {
	switch val := v.(type) {
	case json.Number:
		return val
	case string:
		return json.Number(val)
	default:
		return "0"
	}
}

func toBool(v any) bool {
	switch val := v.(type) {
	case bool:
		return val
	case string:
		return strings.EqualFold(val, trueStr)
	default:
		return false
	}
}

// interfaceToString renders a decoded value as text. Nested objects and
// arrays are re-encoded as JSON.
func interfaceToString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return val.String()
	case bool:
		return strconv.FormatBool(val)
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(b)
	}
}
