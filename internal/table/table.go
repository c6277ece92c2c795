package table

import (
	"fmt"

	apierrors "excelcleaner/internal/errors"
)

// Table is an immutable, ordered collection of equal-length columns.
type Table struct {
	columns []*Column
	index   map[string]int
	rows    int
}

// New builds a table from columns, rejecting duplicate names and
// columns of unequal length. Every violation is reported.
func New(columns ...*Column) (*Table, error) {
	var violations []apierrors.ValidationError
	index := make(map[string]int, len(columns))
	rows := 0
	for i, c := range columns {
		if c == nil {
			violations = append(violations, apierrors.Violation("columns", fmt.Sprintf("column %d is nil", i)))
			continue
		}
		if _, dup := index[c.name]; dup {
			violations = append(violations, apierrors.Violation(c.name, "Duplicate column name: "+c.name))
			continue
		}
		index[c.name] = i
		if i == 0 {
			rows = c.Len()
		} else if c.Len() != rows {
			violations = append(violations, apierrors.Violation(c.name,
				fmt.Sprintf("Column %s has %d rows, expected %d", c.name, c.Len(), rows)))
		}
	}
	if len(violations) > 0 {
		return nil, apierrors.NewAppValidationError("Invalid table", violations...)
	}

	cols := make([]*Column, len(columns))
	copy(cols, columns)
	return &Table{columns: cols, index: index, rows: rows}, nil
}

// MustNew is New for tables known to be valid.
func MustNew(columns ...*Column) *Table {
	t, err := New(columns...)
	if err != nil {
		panic(err)
	}
	return t
}

// Empty returns a table with no columns and no rows.
func Empty() *Table {
	return &Table{index: map[string]int{}}
}

// FromRows builds a table from row-major data. Every row must have one
// cell per name.
func FromRows(names []string, rows [][]Value) (*Table, error) {
	for i, row := range rows {
		if len(row) != len(names) {
			return nil, apierrors.NewAppValidationError("Invalid table",
				apierrors.Violation("rows", fmt.Sprintf("Row %d has %d cells, expected %d", i, len(row), len(names))))
		}
	}
	cols := make([]*Column, len(names))
	for j, name := range names {
		vals := make([]Value, len(rows))
		for i, row := range rows {
			vals[i] = row[j]
		}
		cols[j] = newColumnOwned(name, vals)
	}
	return New(cols...)
}

func (t *Table) NumRows() int { return t.rows }
func (t *Table) NumCols() int { return len(t.columns) }

// ColumnNames returns the column names in order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.columns))
	for i, c := range t.columns {
		names[i] = c.name
	}
	return names
}

// Columns returns the columns in order. The slice is a copy; columns are
// immutable.
func (t *Table) Columns() []*Column {
	cols := make([]*Column, len(t.columns))
	copy(cols, t.columns)
	return cols
}

// Has reports whether a column named name exists.
func (t *Table) Has(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Column looks up a column by name.
func (t *Table) Column(name string) (*Column, bool) {
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	return t.columns[i], true
}

// Missing returns the names not present in the table, in input order.
func (t *Table) Missing(names ...string) []string {
	var missing []string
	for _, n := range names {
		if !t.Has(n) {
			missing = append(missing, n)
		}
	}
	return missing
}

// Row returns a copy of the cells of row i in column order.
func (t *Table) Row(i int) []Value {
	row := make([]Value, len(t.columns))
	for j, c := range t.columns {
		row[j] = c.values[i]
	}
	return row
}

// Cell returns the cell at row i of the named column.
func (t *Table) Cell(i int, name string) (Value, bool) {
	c, ok := t.Column(name)
	if !ok || i < 0 || i >= t.rows {
		return Null(), false
	}
	return c.values[i], true
}

// WithColumn returns a table with c added. A column of the same name is
// replaced in place, keeping its position.
func (t *Table) WithColumn(c *Column) (*Table, error) {
	if len(t.columns) > 0 && c.Len() != t.rows {
		return nil, apierrors.NewAppValidationError("Invalid table",
			apierrors.Violation(c.name, fmt.Sprintf("Column %s has %d rows, expected %d", c.name, c.Len(), t.rows)))
	}
	cols := t.Columns()
	if i, ok := t.index[c.name]; ok {
		cols[i] = c
	} else {
		cols = append(cols, c)
	}
	return New(cols...)
}

// SelectRows returns a table holding the given rows in the given order.
func (t *Table) SelectRows(rows []int) *Table {
	cols := make([]*Column, len(t.columns))
	for j, c := range t.columns {
		cols[j] = c.take(rows)
	}
	return &Table{columns: cols, index: t.index, rows: len(rows)}
}

// Head returns the first n rows.
func (t *Table) Head(n int) *Table {
	if n >= t.rows {
		return t
	}
	if n < 0 {
		n = 0
	}
	rows := make([]int, n)
	for i := range rows {
		rows[i] = i
	}
	return t.SelectRows(rows)
}

// MapColumns returns a table with fn applied to every column. fn must
// keep the name and length of the column it is given.
func (t *Table) MapColumns(fn func(*Column) *Column) *Table {
	cols := make([]*Column, len(t.columns))
	for j, c := range t.columns {
		cols[j] = fn(c)
	}
	return &Table{columns: cols, index: t.index, rows: t.rows}
}

// RowKey encodes row i so that rows with Equal cells share a key.
func (t *Table) RowKey(i int) string {
	buf := make([]byte, 0, 16*len(t.columns))
	for _, c := range t.columns {
		buf = c.values[i].AppendKey(buf)
	}
	return string(buf)
}
