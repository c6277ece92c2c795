package pivot

import (
	"strings"

	apierrors "excelcleaner/internal/errors"
	"excelcleaner/internal/table"
)

// Result is a flattened pivot table plus the names of its original index
// and column levels. A nil level name marks an unnamed level.
type Result struct {
	Table        *table.Table
	IndexLevels  []*string
	ColumnLevels []*string
}

// Create groups t by spec.Index (and spec.Columns), aggregates the value
// columns and flattens the result into one column per (column group,
// value column, function). Groups appear in first-occurrence order; rows
// with a null grouping key are skipped. Every invalid or missing name is
// reported in a single validation error.
func Create(t *table.Table, spec Spec) (*Result, error) {
	values, violations := resolve(t, spec)
	if len(violations) > 0 {
		return nil, apierrors.NewAppValidationError("Column validation failed", violations...)
	}
	fill, _ := table.FromAny(spec.FillValue)

	g := group(t, spec)
	multi := spec.Aggregations.multi()
	marginCol := spec.Margins && len(spec.Columns) > 0

	var out []*table.Column
	for j, name := range spec.Index {
		vals := make([]table.Value, 0, len(g.rows.paths)+1)
		for _, path := range g.rows.paths {
			vals = append(vals, path[j])
		}
		if spec.Margins {
			if j == 0 {
				vals = append(vals, table.String(spec.marginsName()))
			} else {
				vals = append(vals, table.String(""))
			}
		}
		out = append(out, table.NewColumn(name, vals))
	}

	for _, v := range values {
		src, _ := t.Column(v)
		for _, fn := range spec.Aggregations.For(v) {
			cell := func(rows []int) (table.Value, error) {
				if len(rows) == 0 {
					return fill, nil
				}
				res, err := aggregate(fn, nonNull(src, rows))
				if err != nil {
					return table.Null(), err
				}
				if res.IsNull() {
					return fill, nil
				}
				return res, nil
			}

			for c, ck := range g.cols.paths {
				segs := append(segments(ck), v)
				if multi {
					segs = append(segs, string(fn))
				}
				col, err := buildColumn(flatten(segs), len(g.rows.paths), spec.Margins,
					func(r int) []int { return g.members[pairKey{r, c}] },
					g.colMembers[c], cell)
				if err != nil {
					return nil, err
				}
				out = append(out, col)
			}

			if marginCol {
				segs := []string{spec.marginsName(), v}
				if multi {
					segs = append(segs, string(fn))
				}
				col, err := buildColumn(flatten(segs), len(g.rows.paths), spec.Margins,
					func(r int) []int { return g.rowMembers[r] },
					g.all, cell)
				if err != nil {
					return nil, err
				}
				out = append(out, col)
			}
		}
	}

	tbl, err := table.New(out...)
	if err != nil {
		return nil, apierrors.NewComputationError("Pivot produced conflicting column names", err)
	}

	return &Result{
		Table:        tbl,
		IndexLevels:  levelNames(spec.Index, 0),
		ColumnLevels: columnLevels(spec.Columns, multi),
	}, nil
}

// resolve validates names against t and returns the value columns.
func resolve(t *table.Table, spec Spec) ([]string, []apierrors.ValidationError) {
	violations := spec.violations()

	for _, c := range t.Missing(spec.Index...) {
		violations = append(violations, apierrors.Violation("index", "Index column not found: "+c))
	}
	for _, c := range t.Missing(spec.Columns...) {
		violations = append(violations, apierrors.Violation("columns", "Column not found: "+c))
	}
	for _, c := range t.Missing(spec.Values...) {
		violations = append(violations, apierrors.Violation("values", "Value column not found: "+c))
	}
	if _, err := table.FromAny(spec.FillValue); err != nil {
		violations = append(violations, apierrors.Violation("fill_value", err.Error()))
	}

	var values []string
	switch per := spec.Aggregations.PerColumn; {
	case per != nil && len(spec.Values) > 0:
		listed := make(map[string]bool, len(spec.Values))
		for _, v := range spec.Values {
			listed[v] = true
			if _, ok := per[v]; !ok {
				violations = append(violations, apierrors.Violation("aggfunc",
					"No aggregation configured for value column: "+v))
			}
		}
		for _, c := range sortedKeys(per) {
			if !listed[c] {
				violations = append(violations, apierrors.Violation("aggfunc",
					"Aggregation configured for column not in values: "+c))
			}
		}
		values = spec.Values
	case per != nil:
		for _, c := range sortedKeys(per) {
			if !t.Has(c) {
				violations = append(violations, apierrors.Violation("aggfunc", "Value column not found: "+c))
			}
		}
		for _, c := range t.ColumnNames() {
			if _, ok := per[c]; ok {
				values = append(values, c)
			}
		}
	case len(spec.Values) > 0:
		values = spec.Values
	default:
		grouping := make(map[string]bool)
		for _, c := range append(append([]string{}, spec.Index...), spec.Columns...) {
			grouping[c] = true
		}
		for _, c := range t.Columns() {
			if c.IsNumeric() && !grouping[c.Name()] {
				values = append(values, c.Name())
			}
		}
	}

	if len(violations) == 0 && len(values) == 0 {
		violations = append(violations, apierrors.Violation("values", "No numeric value columns to aggregate"))
	}
	return values, violations
}

type pairKey struct{ r, c int }

type grouping struct {
	rows, cols *keyIndex
	members    map[pairKey][]int
	rowMembers map[int][]int
	colMembers map[int][]int
	all        []int
}

func group(t *table.Table, spec Spec) *grouping {
	g := &grouping{
		rows:       newKeyIndex(),
		cols:       newKeyIndex(),
		members:    make(map[pairKey][]int),
		rowMembers: make(map[int][]int),
		colMembers: make(map[int][]int),
	}
	if len(spec.Columns) == 0 {
		g.cols.id(KeyPath{})
	}

	index := columnsOf(t, spec.Index)
	across := columnsOf(t, spec.Columns)
	for i := 0; i < t.NumRows(); i++ {
		rk := pathAt(index, i)
		ck := pathAt(across, i)
		if rk.hasNull() || ck.hasNull() {
			continue
		}
		r, c := g.rows.id(rk), g.cols.id(ck)
		g.members[pairKey{r, c}] = append(g.members[pairKey{r, c}], i)
		g.rowMembers[r] = append(g.rowMembers[r], i)
		g.colMembers[c] = append(g.colMembers[c], i)
		g.all = append(g.all, i)
	}
	return g
}

func buildColumn(name string, nrows int, margins bool, rowsOf func(r int) []int, marginRows []int,
	cell func([]int) (table.Value, error)) (*table.Column, error) {
	vals := make([]table.Value, 0, nrows+1)
	for r := 0; r < nrows; r++ {
		v, err := cell(rowsOf(r))
		if err != nil {
			return nil, err
		}
		vals = append(vals, v)
	}
	if margins {
		v, err := cell(marginRows)
		if err != nil {
			return nil, err
		}
		vals = append(vals, v)
	}
	return table.NewColumn(name, vals), nil
}

func columnsOf(t *table.Table, names []string) []*table.Column {
	cols := make([]*table.Column, len(names))
	for i, n := range names {
		cols[i], _ = t.Column(n)
	}
	return cols
}

func pathAt(cols []*table.Column, i int) KeyPath {
	k := make(KeyPath, len(cols))
	for j, c := range cols {
		k[j] = c.Value(i)
	}
	return k
}

func nonNull(c *table.Column, rows []int) []table.Value {
	vals := make([]table.Value, 0, len(rows))
	for _, r := range rows {
		if v := c.Value(r); !v.IsNull() {
			vals = append(vals, v)
		}
	}
	return vals
}

func segments(k KeyPath) []string {
	segs := make([]string, len(k), len(k)+2)
	for i, v := range k {
		segs[i] = keySegment(v)
	}
	return segs
}

// flatten joins key segments, dropping separators left dangling by empty
// leading or trailing segments.
func flatten(segs []string) string {
	return strings.Trim(strings.Join(segs, KeySeparator), KeySeparator)
}

func levelNames(names []string, unnamed int) []*string {
	out := make([]*string, 0, len(names)+unnamed)
	for _, n := range names {
		out = append(out, &n)
	}
	for i := 0; i < unnamed; i++ {
		out = append(out, nil)
	}
	return out
}

func columnLevels(columns []string, multi bool) []*string {
	unnamed := 1
	if multi {
		unnamed = 2
	}
	return levelNames(columns, unnamed)
}
