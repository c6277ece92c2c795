package table

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "excelcleaner/internal/errors"
)

func TestNewColumn_KindInference(t *testing.T) {
	tests := []struct {
		name   string
		values []Value
		want   Kind
	}{
		{"empty", nil, KindNull},
		{"all null", []Value{Null(), Null()}, KindNull},
		{"ints with nulls", []Value{Int(1), Null(), Int(3)}, KindInt},
		{"ints and floats widen", []Value{Int(1), Float(2.5)}, KindFloat},
		{"strings", []Value{String("a"), Null()}, KindString},
		{"bool and int are mixed", []Value{Bool(true), Int(1)}, KindMixed},
		{"int and string are mixed", []Value{Int(1), String("x")}, KindMixed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NewColumn("c", tt.values).Kind())
		})
	}

	widened := NewColumn("c", []Value{Int(1), Float(2.5)})
	assert.Equal(t, KindFloat, widened.Value(0).Kind())
}

func TestNewColumn_CopiesInput(t *testing.T) {
	vals := []Value{Int(1), Int(2)}
	c := NewColumn("c", vals)
	vals[0] = Int(99)

	assert.True(t, c.Value(0).Equal(Int(1)))

	out := c.Values()
	out[1] = Int(42)
	assert.True(t, c.Value(1).Equal(Int(2)))
}

func TestNew_ReportsAllViolations(t *testing.T) {
	_, err := New(
		NewColumn("a", []Value{Int(1), Int(2)}),
		NewColumn("a", []Value{Int(1), Int(2)}),
		NewColumn("b", []Value{Int(1)}),
	)
	require.Error(t, err)

	appErr, ok := apierrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apierrors.ErrTypeValidation, appErr.Type)
	assert.Len(t, appErr.Violations, 2)
}

func TestFromRows(t *testing.T) {
	tbl, err := FromRows([]string{"cat", "val"}, [][]Value{
		{String("X"), Int(10)},
		{String("Y"), Int(5)},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, tbl.NumRows())
	assert.Equal(t, []string{"cat", "val"}, tbl.ColumnNames())
	v, ok := tbl.Cell(1, "val")
	require.True(t, ok)
	assert.True(t, v.Equal(Int(5)))

	_, err = FromRows([]string{"a"}, [][]Value{{Int(1), Int(2)}})
	assert.Error(t, err)
}

func TestEmpty(t *testing.T) {
	tbl := Empty()
	assert.Equal(t, 0, tbl.NumRows())
	assert.Equal(t, 0, tbl.NumCols())

	tbl2, err := New()
	require.NoError(t, err)
	assert.Equal(t, 0, tbl2.NumRows())
}

func TestWithColumn(t *testing.T) {
	base := MustNew(
		NewColumn("a", []Value{Int(1), Int(2)}),
		NewColumn("b", []Value{Int(3), Int(4)}),
	)

	appended, err := base.WithColumn(NewColumn("c", []Value{Int(5), Int(6)}))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, appended.ColumnNames())
	assert.Equal(t, []string{"a", "b"}, base.ColumnNames(), "receiver must not change")

	replaced, err := base.WithColumn(NewColumn("a", []Value{String("x"), String("y")}))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, replaced.ColumnNames())
	col, _ := replaced.Column("a")
	assert.Equal(t, KindString, col.Kind())

	_, err = base.WithColumn(NewColumn("d", []Value{Int(1)}))
	assert.Error(t, err)
}

func TestSelectRowsAndHead(t *testing.T) {
	tbl := MustNew(NewColumn("a", []Value{Int(1), Int(2), Int(3)}))

	sel := tbl.SelectRows([]int{2, 0})
	assert.Equal(t, 2, sel.NumRows())
	v, _ := sel.Cell(0, "a")
	assert.True(t, v.Equal(Int(3)))

	assert.Equal(t, 2, tbl.Head(2).NumRows())
	assert.Equal(t, 3, tbl.Head(10).NumRows())
	assert.Equal(t, 0, tbl.Head(-1).NumRows())
}

func TestMissingAndRowKey(t *testing.T) {
	tbl := MustNew(
		NewColumn("a", []Value{Int(1), Int(1), Int(2)}),
		NewColumn("b", []Value{String("x"), String("x"), String("x")}),
	)

	assert.Equal(t, []string{"z", "y"}, tbl.Missing("a", "z", "y"))
	assert.Nil(t, tbl.Missing("a", "b"))
	assert.Equal(t, tbl.RowKey(0), tbl.RowKey(1))
	assert.NotEqual(t, tbl.RowKey(0), tbl.RowKey(2))
}
