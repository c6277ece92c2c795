package pivot

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "excelcleaner/internal/errors"
	"excelcleaner/internal/table"
)

func catTable(t *testing.T) *table.Table {
	t.Helper()
	tbl, err := table.FromRows([]string{"cat", "val"}, [][]table.Value{
		{table.String("X"), table.Int(10)},
		{table.String("X"), table.Int(20)},
		{table.String("Y"), table.Int(5)},
	})
	require.NoError(t, err)
	return tbl
}

func salesTable(t *testing.T) *table.Table {
	t.Helper()
	tbl, err := table.FromRows([]string{"region", "quarter", "units", "price"}, [][]table.Value{
		{table.String("north"), table.String("Q1"), table.Int(10), table.Float(1.5)},
		{table.String("south"), table.String("Q1"), table.Int(4), table.Float(2)},
		{table.String("north"), table.String("Q2"), table.Int(6), table.Null()},
		{table.String("north"), table.String("Q1"), table.Int(2), table.Float(3.5)},
		{table.Null(), table.String("Q2"), table.Int(100), table.Float(9)},
	})
	require.NoError(t, err)
	return tbl
}

func records(t *testing.T, r *Result) []map[string]any {
	t.Helper()
	names := r.Table.ColumnNames()
	out := make([]map[string]any, r.Table.NumRows())
	for i := range out {
		rec := make(map[string]any, len(names))
		for j, v := range r.Table.Row(i) {
			rec[names[j]] = v.Interface()
		}
		out[i] = rec
	}
	return out
}

func TestCreate_SumInFirstOccurrenceOrder(t *testing.T) {
	res, err := Create(catTable(t), Spec{Index: []string{"cat"}, Values: []string{"val"}, Aggregations: Funcs(AggSum)})
	require.NoError(t, err)

	assert.Equal(t, []map[string]any{
		{"cat": "X", "val": int64(30)},
		{"cat": "Y", "val": int64(5)},
	}, records(t, res))
	require.Len(t, res.IndexLevels, 1)
	assert.Equal(t, "cat", *res.IndexLevels[0])
	assert.Equal(t, []*string{nil}, res.ColumnLevels)
}

func TestCreate_MarginsRowAppendedLast(t *testing.T) {
	res, err := Create(catTable(t), Spec{
		Index: []string{"cat"}, Values: []string{"val"}, Aggregations: Funcs(AggSum),
		Margins: true, MarginsName: "Total",
	})
	require.NoError(t, err)

	recs := records(t, res)
	require.Len(t, recs, 3)
	assert.Equal(t, map[string]any{"cat": "Total", "val": int64(35)}, recs[2])
}

func TestCreate_DefaultsToNumericColumnsAndSum(t *testing.T) {
	res, err := Create(salesTable(t), Spec{Index: []string{"region"}})
	require.NoError(t, err)

	assert.Equal(t, []string{"region", "units", "price"}, res.Table.ColumnNames())
	assert.Equal(t, []map[string]any{
		{"region": "north", "units": int64(18), "price": 5.0},
		{"region": "south", "units": int64(4), "price": 2.0},
	}, records(t, res), "rows with a null key are skipped")
}

func TestCreate_CrossTabWithMarginsAndFill(t *testing.T) {
	res, err := Create(salesTable(t), Spec{
		Index:        []string{"region"},
		Columns:      []string{"quarter"},
		Values:       []string{"units"},
		Aggregations: Funcs(AggSum),
		FillValue:    0,
		Margins:      true,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"region", "Q1.units", "Q2.units", "Total.units"}, res.Table.ColumnNames())
	assert.Equal(t, []map[string]any{
		{"region": "north", "Q1.units": int64(12), "Q2.units": int64(6), "Total.units": int64(18)},
		{"region": "south", "Q1.units": int64(4), "Q2.units": int64(0), "Total.units": int64(4)},
		{"region": "Total", "Q1.units": int64(16), "Q2.units": int64(6), "Total.units": int64(22)},
	}, records(t, res))

	require.Len(t, res.ColumnLevels, 2)
	assert.Equal(t, "quarter", *res.ColumnLevels[0])
	assert.Nil(t, res.ColumnLevels[1])
}

func TestCreate_EmptyPairWithoutFillIsNull(t *testing.T) {
	res, err := Create(salesTable(t), Spec{
		Index: []string{"region"}, Columns: []string{"quarter"}, Values: []string{"units"},
	})
	require.NoError(t, err)

	v, ok := res.Table.Cell(1, "Q2.units")
	require.True(t, ok)
	assert.True(t, v.IsNull())
}

func TestCreate_MultipleFunctions(t *testing.T) {
	res, err := Create(salesTable(t), Spec{
		Index: []string{"region"},
		Aggregations: Aggregations{PerColumn: map[string][]AggFunc{
			"units": {AggMin, AggMax},
			"price": {AggMean},
		}},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"region", "units.min", "units.max", "price.mean"}, res.Table.ColumnNames())
	recs := records(t, res)
	assert.Equal(t, int64(2), recs[0]["units.min"])
	assert.Equal(t, int64(10), recs[0]["units.max"])
	assert.Equal(t, 2.5, recs[0]["price.mean"])
	assert.Len(t, res.ColumnLevels, 2)
}

func twoLevelTable(t *testing.T) *table.Table {
	t.Helper()
	tbl, err := table.FromRows([]string{"r", "s", "q", "v"}, [][]table.Value{
		{table.String("A"), table.String("x"), table.String("Q1"), table.Int(1)},
		{table.String("A"), table.String("x"), table.String("Q2"), table.Int(3)},
		{table.String("A"), table.String("y"), table.String("Q1"), table.Int(2)},
		{table.String("B"), table.String("y"), table.String("Q1"), table.Int(4)},
	})
	require.NoError(t, err)
	return tbl
}

func TestCreate_TwoLevelIndex(t *testing.T) {
	tests := []struct {
		name      string
		spec      Spec
		wantCols  []string
		wantRows  [][]any
		wantLevel []*string
	}{
		{
			name: "margins fill and several functions",
			spec: Spec{
				Index: []string{"r", "s"}, Columns: []string{"q"}, Values: []string{"v"},
				Aggregations: Funcs(AggSum, AggMean), Margins: true, FillValue: 0,
			},
			wantCols: []string{"r", "s",
				"Q1.v.sum", "Q2.v.sum", "Total.v.sum",
				"Q1.v.mean", "Q2.v.mean", "Total.v.mean"},
			wantRows: [][]any{
				{"A", "x", int64(1), int64(3), int64(4), 1.0, 3.0, 2.0},
				{"A", "y", int64(2), int64(0), int64(2), 2.0, 0.0, 2.0},
				{"B", "y", int64(4), int64(0), int64(4), 4.0, 0.0, 4.0},
				{"Total", "", int64(7), int64(3), int64(10), 7.0 / 3, 3.0, 2.5},
			},
			wantLevel: []*string{ptr("q"), nil, nil},
		},
		{
			name: "single function without margins",
			spec: Spec{
				Index: []string{"r", "s"}, Columns: []string{"q"}, Values: []string{"v"},
				Aggregations: Funcs(AggSum),
			},
			wantCols: []string{"r", "s", "Q1.v", "Q2.v"},
			wantRows: [][]any{
				{"A", "x", int64(1), int64(3)},
				{"A", "y", int64(2), nil},
				{"B", "y", int64(4), nil},
			},
			wantLevel: []*string{ptr("q"), nil},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Create(twoLevelTable(t), tt.spec)
			require.NoError(t, err)

			assert.Equal(t, tt.wantCols, res.Table.ColumnNames())
			require.Equal(t, len(tt.wantRows), res.Table.NumRows())
			for i, want := range tt.wantRows {
				got := make([]any, len(want))
				for j, v := range res.Table.Row(i) {
					got[j] = v.Interface()
				}
				assert.InDeltaSlice(t, numericOnly(want), numericOnly(got), 1e-12, "row %d", i)
				assert.Equal(t, textOnly(want), textOnly(got), "row %d", i)
			}

			assert.Equal(t, []*string{ptr("r"), ptr("s")}, res.IndexLevels)
			assert.Equal(t, tt.wantLevel, res.ColumnLevels)
		})
	}
}

func ptr(s string) *string { return &s }

// numericOnly keeps numbers as float64 and maps other cells to -1 so rows
// holding inexact means compare with a tolerance.
func numericOnly(row []any) []float64 {
	out := make([]float64, len(row))
	for i, v := range row {
		switch n := v.(type) {
		case int64:
			out[i] = float64(n)
		case float64:
			out[i] = n
		default:
			out[i] = -1
		}
	}
	return out
}

// textOnly keeps the non-numeric cells and the Go type of every cell.
func textOnly(row []any) []any {
	out := make([]any, len(row))
	for i, v := range row {
		switch v.(type) {
		case int64:
			out[i] = "int64"
		case float64:
			out[i] = "float64"
		default:
			out[i] = v
		}
	}
	return out
}

func TestAggregate(t *testing.T) {
	ints := []table.Value{table.Int(2), table.Int(4), table.Int(9)}
	tests := []struct {
		name string
		fn   AggFunc
		vals []table.Value
		want table.Value
	}{
		{"sum ints", AggSum, ints, table.Int(15)},
		{"sum empty", AggSum, nil, table.Int(0)},
		{"sum mixed numbers", AggSum, []table.Value{table.Int(1), table.Float(0.5)}, table.Float(1.5)},
		{"count", AggCount, ints, table.Int(3)},
		{"mean", AggMean, ints, table.Float(5)},
		{"mean empty", AggMean, nil, table.Null()},
		{"min", AggMin, ints, table.Int(2)},
		{"max strings", AggMax, []table.Value{table.String("b"), table.String("c"), table.String("a")}, table.String("c")},
		{"max empty", AggMax, nil, table.Null()},
		{"first", AggFirst, ints, table.Int(2)},
		{"last", AggLast, ints, table.Int(9)},
		{"var", AggVar, ints, table.Float(13)},
		{"std", AggStd, ints, table.Float(math.Sqrt(13))},
		{"std single", AggStd, ints[:1], table.Null()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := aggregate(tt.fn, tt.vals)
			require.NoError(t, err)
			assert.Equal(t, tt.want.Kind(), got.Kind())
			assert.True(t, tt.want.Equal(got), "got %v", got)
		})
	}

	_, err := aggregate(AggSum, []table.Value{table.String("x")})
	assert.True(t, apierrors.IsType(err, apierrors.ErrTypeComputation))

	_, err = aggregate(AggMin, []table.Value{table.String("x"), table.Int(1)})
	assert.True(t, apierrors.IsType(err, apierrors.ErrTypeComputation))
}

func TestCreate_ValidationListsEveryMissingName(t *testing.T) {
	_, err := Create(catTable(t), Spec{Index: []string{"missing1"}, Values: []string{"missing2"}})
	require.Error(t, err)

	appErr, ok := apierrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "Column validation failed", appErr.Message)
	assert.Equal(t, []apierrors.ValidationError{
		{Field: "index", Message: "Index column not found: missing1"},
		{Field: "values", Message: "Value column not found: missing2"},
	}, appErr.Violations)
}

func TestCreate_StructuralViolations(t *testing.T) {
	_, err := Create(catTable(t), Spec{
		Columns:      []string{"nope"},
		Aggregations: Funcs(AggSum, "median"),
	})
	require.Error(t, err)

	appErr, _ := apierrors.AsAppError(err)
	var msgs []string
	for _, v := range appErr.Violations {
		msgs = append(msgs, v.Message)
	}
	assert.ElementsMatch(t, []string{
		"At least one index column must be specified",
		"Invalid aggregation function: median",
		"Column not found: nope",
	}, msgs)
}

func TestCreate_NonNumericSumFails(t *testing.T) {
	_, err := Create(salesTable(t), Spec{Index: []string{"region"}, Values: []string{"quarter"}})
	assert.True(t, apierrors.IsType(err, apierrors.ErrTypeComputation))
}

func TestSpec_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantMulti bool
		wantUnits []AggFunc
	}{
		{"string", `{"index":["region"],"aggfunc":"mean"}`, false, []AggFunc{AggMean}},
		{"list", `{"index":["region"],"aggfunc":["min","max"]}`, true, []AggFunc{AggMin, AggMax}},
		{"mapping", `{"index":["region"],"aggfunc":{"units":"sum","price":["min","max"]}}`, true, []AggFunc{AggSum}},
		{"absent", `{"index":["region"]}`, false, []AggFunc{AggSum}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var spec Spec
			require.NoError(t, json.Unmarshal([]byte(tt.body), &spec))
			assert.Equal(t, tt.wantMulti, spec.Aggregations.multi())
			assert.Equal(t, tt.wantUnits, spec.Aggregations.For("units"))
		})
	}

	var bad Spec
	assert.Error(t, json.Unmarshal([]byte(`{"index":["a"],"aggfunc":5}`), &bad))
}

func TestKeyPath_Flatten(t *testing.T) {
	k := KeyPath{table.String("Q1"), table.Int(2024), table.Float(1)}
	assert.Equal(t, "Q1.2024.1.0", k.Flatten(KeySeparator))

	day := KeyPath{table.Time(time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)), table.String("v")}
	assert.Equal(t, "2024-01-05T00:00:00Z.v", day.Flatten(KeySeparator))
	assert.Equal(t, "a.b", flatten([]string{"", "a", "b"}))
}
