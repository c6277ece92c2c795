package calculation

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "excelcleaner/internal/errors"
	"excelcleaner/internal/table"
)

func salesTable(t *testing.T) *table.Table {
	t.Helper()
	tbl, err := table.FromRows([]string{"region", "units", "price"}, [][]table.Value{
		{table.String("north"), table.Int(5), table.Float(2.5)},
		{table.String("south"), table.Int(15), table.Null()},
		{table.Null(), table.Int(25), table.Float(1)},
	})
	require.NoError(t, err)
	return tbl
}

func newEngine() *Engine {
	return NewEngine(WithCustomExpressions(true))
}

func values(t *testing.T, tbl *table.Table, name string) []any {
	t.Helper()
	c, ok := tbl.Column(name)
	require.True(t, ok, "column %s", name)
	out := make([]any, c.Len())
	for i, v := range c.Values() {
		out[i] = v.Interface()
	}
	return out
}

func TestApply_SumTreatsNullAsZero(t *testing.T) {
	tbl := table.MustNew(
		table.NewColumn("a", []table.Value{table.Int(1), table.Null()}),
		table.NewColumn("b", []table.Value{table.Int(2), table.Int(3)}),
	)

	res := newEngine().Apply(tbl, []Rule{{Name: "total", Operation: OpSum, Columns: []string{"a", "b"}}})
	require.True(t, res.Success, res.Message)

	assert.Equal(t, []any{int64(3), int64(3)}, values(t, res.Table, "total"))
	assert.Equal(t, []string{"total"}, res.ColumnsAdded)
	assert.Equal(t, "Successfully applied 1 calculation(s)", res.Message)
}

func TestApply_SumFloat(t *testing.T) {
	res := newEngine().Apply(salesTable(t), []Rule{{Name: "s", Operation: OpSum, Columns: []string{"units", "price"}}})
	require.True(t, res.Success, res.Message)
	assert.Equal(t, []any{7.5, 15.0, 26.0}, values(t, res.Table, "s"))
}

func TestApply_CountIfIsPerRowIndicator(t *testing.T) {
	tbl := table.MustNew(table.NewColumn("v", []table.Value{table.Int(5), table.Int(15), table.Int(25)}))

	res := newEngine().Apply(tbl, []Rule{{
		Name: "flag", Operation: OpCountIf, Columns: []string{"v"},
		Condition: &Condition{Operator: OpGt, Value: 10},
	}})
	require.True(t, res.Success, res.Message)
	assert.Equal(t, []any{int64(0), int64(1), int64(1)}, values(t, res.Table, "flag"))
}

func TestApply_Operations(t *testing.T) {
	tests := []struct {
		name string
		rule Rule
		want []any
	}{
		{
			name: "count",
			rule: Rule{Name: "out", Operation: OpCount, Columns: []string{"region", "price"}},
			want: []any{int64(2), int64(1), int64(1)},
		},
		{
			name: "sumif",
			rule: Rule{Name: "out", Operation: OpSumIf, Columns: []string{"region", "units"},
				Condition: &Condition{Operator: OpEq, Value: "south"}},
			want: []any{int64(0), int64(15), int64(0)},
		},
		{
			name: "if",
			rule: Rule{Name: "out", Operation: OpIf, Columns: []string{"units"},
				Condition: &Condition{Operator: OpGe, Value: 15}, TrueValue: "big", FalseValue: "small"},
			want: []any{"small", "big", "big"},
		},
		{
			name: "not equal matches null",
			rule: Rule{Name: "out", Operation: OpCountIf, Columns: []string{"region"},
				Condition: &Condition{Operator: OpNe, Value: "north"}},
			want: []any{int64(0), int64(1), int64(1)},
		},
		{
			name: "in",
			rule: Rule{Name: "out", Operation: OpCountIf, Columns: []string{"units"},
				Condition: &Condition{Operator: OpIn, Value: []any{5, 25.0}}},
			want: []any{int64(1), int64(0), int64(1)},
		},
		{
			name: "contains coerces to text and skips null",
			rule: Rule{Name: "out", Operation: OpCountIf, Columns: []string{"price"},
				Condition: &Condition{Operator: OpContains, Value: ".5"}},
			want: []any{int64(1), int64(0), int64(0)},
		},
		{
			name: "custom expression",
			rule: Rule{Name: "out", Operation: OpCustom, Expression: `units * 2 + (price ?? 0)`},
			want: []any{12.5, 30.0, 51.0},
		},
		{
			name: "custom expression adds bare columns",
			rule: Rule{Name: "out", Operation: OpCustom, Expression: `units + units`},
			want: []any{int64(10), int64(30), int64(50)},
		},
		{
			name: "custom expression compares a bare column",
			rule: Rule{Name: "out", Operation: OpCustom, Expression: `units > 10`},
			want: []any{false, true, true},
		},
		{
			name: "custom expression on a text column",
			rule: Rule{Name: "out", Operation: OpCustom, Expression: `region ?? "none"`},
			want: []any{"north", "south", "none"},
		},
		{
			name: "custom expression with row map and column helper",
			rule: Rule{Name: "out", Operation: OpCustom, Expression: `row["units"] / sum(column("units"))`},
			want: []any{5.0 / 45, 15.0 / 45, 25.0 / 45},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := newEngine().Apply(salesTable(t), []Rule{tt.rule})
			require.True(t, res.Success, res.Message)
			assert.Equal(t, tt.want, values(t, res.Table, "out"))
		})
	}
}

func TestApply_RulesSeeEarlierOutputs(t *testing.T) {
	rules := []Rule{
		{Name: "double", Operation: OpSum, Columns: []string{"units", "units"}},
		{Name: "big", Operation: OpIf, Columns: []string{"double"},
			Condition: &Condition{Operator: OpGt, Value: 20}, TrueValue: true, FalseValue: false},
	}

	res := newEngine().Apply(salesTable(t), rules)
	require.True(t, res.Success, res.Message)
	assert.Equal(t, []string{"double", "big"}, res.ColumnsAdded)
	assert.Equal(t, []any{false, true, true}, values(t, res.Table, "big"))
	require.Len(t, res.Applied, 2)
	assert.Equal(t, "Sum of columns: units, units", res.Applied[0].Details)
}

func TestApply_OverwriteExistingColumn(t *testing.T) {
	in := salesTable(t)
	res := newEngine().Apply(in, []Rule{{Name: "units", Operation: OpCount, Columns: []string{"price"}}})
	require.True(t, res.Success, res.Message)

	assert.Empty(t, res.ColumnsAdded)
	assert.Equal(t, []string{"region", "units", "price"}, res.Table.ColumnNames())
	assert.Equal(t, []any{int64(1), int64(0), int64(1)}, values(t, res.Table, "units"))
	assert.Equal(t, []any{int64(5), int64(15), int64(25)}, values(t, in, "units"), "input untouched")
}

func TestApply_ValidationEnumeratesAllViolations(t *testing.T) {
	rules := []Rule{
		{Name: "a", Operation: OpSum, Columns: []string{"nope", "units", "gone"}},
		{Name: "b", Operation: OpCountIf, Columns: []string{"units"}},
		{Name: "c", Operation: OpSumIf, Columns: []string{"units"}, Condition: &Condition{Operator: "~=", Value: 1}},
		{Name: "d", Operation: "median", Columns: []string{"units"}},
	}

	res := newEngine().Apply(salesTable(t), rules)
	require.False(t, res.Success)
	assert.Nil(t, res.Table)

	appErr, ok := apierrors.AsAppError(res.Err)
	require.True(t, ok)
	assert.Equal(t, apierrors.ErrTypeValidation, appErr.Type)

	var msgs []string
	for _, v := range appErr.Violations {
		msgs = append(msgs, v.Message)
	}
	assert.Contains(t, msgs, "Columns not found: nope, gone")
	assert.Contains(t, msgs, "Condition is required for COUNTIF operation")
	assert.Contains(t, msgs, "SUMIF requires exactly two columns: [condition_column, sum_column]")
	assert.Contains(t, msgs, "Unsupported operator: ~=")
	assert.Contains(t, msgs, "Unsupported operation: median")
	assert.Contains(t, res.Message, "Error applying calculations: ")
}

func TestApply_ComputationErrorIsAtomic(t *testing.T) {
	rules := []Rule{
		{Name: "ok", Operation: OpCount, Columns: []string{"units"}},
		{Name: "bad", Operation: OpSum, Columns: []string{"units", "region"}},
	}

	res := newEngine().Apply(salesTable(t), rules)
	require.False(t, res.Success)
	assert.Nil(t, res.Table)
	assert.Empty(t, res.ColumnsAdded)
	assert.True(t, apierrors.IsType(res.Err, apierrors.ErrTypeComputation))
	assert.Contains(t, res.Error, "north")
}

func TestApply_OrderingAcrossKindsFails(t *testing.T) {
	res := newEngine().Apply(salesTable(t), []Rule{{
		Name: "x", Operation: OpCountIf, Columns: []string{"region"},
		Condition: &Condition{Operator: OpGt, Value: 3},
	}})
	require.False(t, res.Success)
	assert.True(t, apierrors.IsType(res.Err, apierrors.ErrTypeComputation))
}

func TestApply_CustomExpressions(t *testing.T) {
	t.Run("disabled by default", func(t *testing.T) {
		res := NewEngine().Apply(salesTable(t),
			[]Rule{{Name: "x", Operation: OpCustom, Expression: "units"}})
		require.False(t, res.Success)
		assert.Contains(t, res.Error, "Custom expressions are disabled")
	})

	t.Run("unknown identifier fails validation", func(t *testing.T) {
		res := newEngine().Apply(salesTable(t),
			[]Rule{{Name: "x", Operation: OpCustom, Expression: "missing + 1"}})
		require.False(t, res.Success)
		assert.True(t, apierrors.IsType(res.Err, apierrors.ErrTypeValidation))
	})

	t.Run("runtime error names the row", func(t *testing.T) {
		res := newEngine().Apply(salesTable(t),
			[]Rule{{Name: "x", Operation: OpCustom, Expression: "price * 2"}})
		require.False(t, res.Success)
		assert.True(t, apierrors.IsType(res.Err, apierrors.ErrTypeComputation))
		assert.Contains(t, res.Error, "row 1")
	})

	t.Run("non-scalar result", func(t *testing.T) {
		res := newEngine().Apply(salesTable(t),
			[]Rule{{Name: "x", Operation: OpCustom, Expression: "[units]"}})
		require.False(t, res.Success)
		assert.True(t, apierrors.IsType(res.Err, apierrors.ErrTypeComputation))
	})
}

func TestRule_UnmarshalJSON(t *testing.T) {
	var rules []Rule
	err := json.Unmarshal([]byte(`[
		{"name": "flag", "operation": "if", "columns": ["units"],
		 "condition": {"operator": "in", "value": [5, 15]},
		 "true_value": 1, "false_value": 0}
	]`), &rules)
	require.NoError(t, err)
	require.Len(t, rules, 1)

	res := newEngine().Apply(salesTable(t), rules)
	require.True(t, res.Success, res.Message)
	assert.Equal(t, []any{int64(1), int64(1), int64(0)}, values(t, res.Table, "flag"))
}
