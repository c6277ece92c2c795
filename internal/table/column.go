package table

// Column is a named, immutable sequence of cells sharing one kind.
type Column struct {
	name   string
	kind   Kind
	values []Value
}

// NewColumn copies values into a new column and infers its kind. Integer
// cells in a column that also holds floats are widened to floats.
func NewColumn(name string, values []Value) *Column {
	vals := make([]Value, len(values))
	copy(vals, values)
	return newColumnOwned(name, vals)
}

// newColumnOwned takes ownership of vals.
func newColumnOwned(name string, vals []Value) *Column {
	kind := inferKind(vals)
	if kind == KindFloat {
		for i, v := range vals {
			if v.kind == KindInt {
				vals[i] = Float(float64(v.i))
			}
		}
	}
	return &Column{name: name, kind: kind, values: vals}
}

func inferKind(vals []Value) Kind {
	kind := KindNull
	for _, v := range vals {
		switch {
		case v.kind == KindNull || v.kind == kind:
		case kind == KindNull:
			kind = v.kind
		case kind.IsNumeric() && v.kind.IsNumeric():
			kind = KindFloat
		default:
			return KindMixed
		}
	}
	return kind
}

func (c *Column) Name() string      { return c.name }
func (c *Column) Kind() Kind        { return c.kind }
func (c *Column) Len() int          { return len(c.values) }
func (c *Column) Value(i int) Value { return c.values[i] }

// Values returns a copy of the column's cells.
func (c *Column) Values() []Value {
	out := make([]Value, len(c.values))
	copy(out, c.values)
	return out
}

// IsNumeric reports whether the column holds only numbers (and nulls).
func (c *Column) IsNumeric() bool { return c.kind.IsNumeric() }

// IsText reports whether the column may hold string cells.
func (c *Column) IsText() bool { return c.kind == KindString || c.kind == KindMixed }

// NullCount returns the number of null cells.
func (c *Column) NullCount() int {
	n := 0
	for _, v := range c.values {
		if v.IsNull() {
			n++
		}
	}
	return n
}

// Rename returns the same cells under a different name.
func (c *Column) Rename(name string) *Column {
	return &Column{name: name, kind: c.kind, values: c.values}
}

// Map returns a new column with fn applied to every cell.
func (c *Column) Map(fn func(Value) Value) *Column {
	vals := make([]Value, len(c.values))
	for i, v := range c.values {
		vals[i] = fn(v)
	}
	return newColumnOwned(c.name, vals)
}

func (c *Column) take(rows []int) *Column {
	vals := make([]Value, len(rows))
	for i, r := range rows {
		vals[i] = c.values[r]
	}
	return newColumnOwned(c.name, vals)
}
