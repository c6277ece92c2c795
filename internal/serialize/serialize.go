// Package serialize converts tables and pivot results into JSON-safe
// structures for transport and rendering.
package serialize

import (
	"math"
	"time"

	"excelcleaner/internal/pivot"
	"excelcleaner/internal/table"
)

// Structure is the JSON-safe form of a table. Cell values are nil, bool,
// int64, float64 or string.
type Structure struct {
	Columns      []string         `json:"columns"`
	Data         []map[string]any `json:"data"`
	IndexLevels  []*string        `json:"index_levels"`
	ColumnLevels []*string        `json:"column_levels"`
}

// ToJSONSafe serialises a plain table. Its index and column levels are
// single unnamed levels.
func ToJSONSafe(t *table.Table) Structure {
	return Structure{
		Columns:      t.ColumnNames(),
		Data:         Records(t),
		IndexLevels:  []*string{nil},
		ColumnLevels: []*string{nil},
	}
}

// FromPivot serialises a pivot result, keeping its level names.
func FromPivot(r *pivot.Result) Structure {
	return Structure{
		Columns:      r.Table.ColumnNames(),
		Data:         Records(r.Table),
		IndexLevels:  r.IndexLevels,
		ColumnLevels: r.ColumnLevels,
	}
}

// Records converts every row into a map keyed by column name.
func Records(t *table.Table) []map[string]any {
	names := t.ColumnNames()
	out := make([]map[string]any, t.NumRows())
	for i := range out {
		rec := make(map[string]any, len(names))
		for j, v := range t.Row(i) {
			rec[names[j]] = Cell(v)
		}
		out[i] = rec
	}
	return out
}

// Head serialises the first n rows.
func Head(t *table.Table, n int) []map[string]any {
	return Records(t.Head(n))
}

// Cell converts one value. Non-finite floats become nil and times become
// RFC 3339 strings.
func Cell(v table.Value) any {
	switch x := v.Interface().(type) {
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return nil
		}
		return x
	case time.Time:
		return x.Format(time.RFC3339)
	default:
		return x
	}
}
