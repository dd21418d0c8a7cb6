package workbook

import (
	"fmt"
	"sort"
	"strings"
)

// Flatten turns a nested value into a cell-displayable scalar. Arrays and
// objects become comma-joined strings. The flattening is lossy; the original
// nested JSON stays available in the persisted ExtractedData artifact.
func Flatten(v any) any {
	switch x := v.(type) {
	case nil:
		return ""
	case []any:
		parts := make([]string, 0, len(x))
		for _, e := range x {
			parts = append(parts, toDisplayString(Flatten(e)))
		}
		return strings.Join(parts, ", ")
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, k+": "+toDisplayString(Flatten(x[k])))
		}
		return strings.Join(parts, ", ")
	default:
		return v
	}
}

func toDisplayString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		if x == float64(int64(x)) {
			return fmt.Sprintf("%d", int64(x))
		}
		return fmt.Sprintf("%g", x)
	default:
		return fmt.Sprintf("%v", x)
	}
}

// RowsFrom resolves a row source path ("line_items" or "a.b.items") into a
// slice of row maps. Scalar array elements become single-column rows. An
// empty source triggers auto-detection.
func RowsFrom(data map[string]any, source string) []map[string]any {
	if strings.TrimSpace(source) == "" {
		_, rows := AutoDetectRows(data)
		return rows
	}
	cur := any(data)
	for _, seg := range strings.Split(source, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur, ok = m[seg]
		if !ok {
			return nil
		}
	}
	arr, ok := cur.([]any)
	if !ok {
		return nil
	}
	return rowsFromArray(arr)
}

// AutoDetectRows finds the first (alphabetically) key holding an array of
// records and returns its name and rows.
func AutoDetectRows(data map[string]any) (string, []map[string]any) {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if arr, ok := data[k].([]any); ok && len(arr) > 0 {
			return k, rowsFromArray(arr)
		}
	}
	return "", nil
}

// RecordArrays lists every top-level key holding a non-empty array, sorted.
func RecordArrays(data map[string]any) []string {
	var keys []string
	for k, v := range data {
		if arr, ok := v.([]any); ok && len(arr) > 0 {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// ScalarEntries lists top-level non-array, non-object values, sorted by key.
func ScalarEntries(data map[string]any) [][2]string {
	var out [][2]string
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		switch data[k].(type) {
		case []any, map[string]any:
			continue
		}
		out = append(out, [2]string{k, toDisplayString(Flatten(data[k]))})
	}
	return out
}

// Columns returns the sorted union of row keys.
func Columns(rows []map[string]any) []string {
	seen := map[string]bool{}
	for _, r := range rows {
		for k := range r {
			seen[k] = true
		}
	}
	cols := make([]string, 0, len(seen))
	for k := range seen {
		cols = append(cols, k)
	}
	sort.Strings(cols)
	return cols
}

func rowsFromArray(arr []any) []map[string]any {
	rows := make([]map[string]any, 0, len(arr))
	for _, e := range arr {
		if m, ok := e.(map[string]any); ok {
			rows = append(rows, m)
			continue
		}
		rows = append(rows, map[string]any{"value": e})
	}
	return rows
}
