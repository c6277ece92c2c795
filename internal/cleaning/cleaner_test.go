package cleaning

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "excelcleaner/internal/errors"
	"excelcleaner/internal/table"
)

func sampleTable(t *testing.T) *table.Table {
	t.Helper()
	tbl, err := table.FromRows([]string{"name", "qty", "joined"}, [][]table.Value{
		{table.String("  alice "), table.Int(1), table.String("2024-01-05")},
		{table.String("  alice "), table.Int(1), table.String("2024-01-05")},
		{table.String("BOB"), table.Null(), table.String("not a date")},
		{table.Null(), table.Int(3), table.Null()},
	})
	require.NoError(t, err)
	return tbl
}

func column(t *testing.T, tbl *table.Table, name string) []table.Value {
	t.Helper()
	c, ok := tbl.Column(name)
	require.True(t, ok, "column %s", name)
	return c.Values()
}

func TestClean_DefaultsOnlyTrim(t *testing.T) {
	in := sampleTable(t)
	out, log, err := Clean(in, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, []Operation{OpTrimWhitespace}, log.Operations())
	assert.Equal(t, 4, out.NumRows())
	assert.Equal(t, "alice", column(t, out, "name")[0].String())

	// Input is untouched.
	assert.Equal(t, "  alice ", column(t, in, "name")[0].String())
}

func TestClean_FixedOrder(t *testing.T) {
	opts := DefaultOptions()
	opts.RemoveDuplicates = true
	opts.HandleMissing = MissingDrop
	opts.TextCase = CaseUpper
	opts.DateColumns = []string{"joined", "absent"}

	out, log, err := Clean(sampleTable(t), opts)
	require.NoError(t, err)

	assert.Equal(t, []Operation{
		OpRemoveDuplicates, OpDropMissing, OpTrimWhitespace, OpNormalizeCase, OpParseDates,
	}, log.Operations())
	assert.Equal(t, 1, log[0].Details["rows_removed"])
	assert.Equal(t, 2, log[1].Details["rows_removed"])
	assert.Equal(t, "upper", log[3].Details["case"])
	assert.Equal(t, []string{"joined"}, log[4].Details["columns"])

	require.Equal(t, 1, out.NumRows())
	assert.Equal(t, "ALICE", column(t, out, "name")[0].String())
	tm, ok := column(t, out, "joined")[0].TimeValue()
	require.True(t, ok)
	assert.True(t, tm.Equal(time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)), tm)
}

func TestClean_RemoveDuplicatesIdempotent(t *testing.T) {
	opts := Options{RemoveDuplicates: true, HandleMissing: MissingKeep}

	once, _, err := Clean(sampleTable(t), opts)
	require.NoError(t, err)
	twice, log, err := Clean(once, opts)
	require.NoError(t, err)

	assert.Empty(t, log, "nothing left to remove")
	require.Equal(t, once.NumRows(), twice.NumRows())
	for i := 0; i < once.NumRows(); i++ {
		assert.Equal(t, once.RowKey(i), twice.RowKey(i))
	}
}

func TestClean_DropLeavesNoNulls(t *testing.T) {
	out, _, err := Clean(sampleTable(t), Options{HandleMissing: MissingDrop})
	require.NoError(t, err)

	for _, c := range out.Columns() {
		assert.Zero(t, c.NullCount(), "column %s", c.Name())
	}
}

func TestClean_Fill(t *testing.T) {
	var opts Options
	require.NoError(t, json.Unmarshal([]byte(`{"handle_missing":"fill","fill_value":0}`), &opts))
	assert.True(t, opts.TrimWhitespace, "defaults survive decoding")

	out, log, err := Clean(sampleTable(t), opts)
	require.NoError(t, err)

	require.Equal(t, OpFillMissing, log[0].Operation)
	assert.Equal(t, 3, log[0].Details["values_filled"])
	assert.Equal(t, int64(0), log[0].Details["fill_value"])

	qty := column(t, out, "qty")
	assert.True(t, qty[2].Equal(table.Int(0)))
	qtyCol, _ := out.Column("qty")
	assert.Equal(t, table.KindInt, qtyCol.Kind())

	name, _ := out.Column("name")
	assert.Equal(t, table.KindMixed, name.Kind(), "text column filled with a number")
}

func TestClean_NoLogWhenNothingChanges(t *testing.T) {
	tbl := table.MustNew(table.NewColumn("n", []table.Value{table.Int(1), table.Int(2)}))

	_, log, err := Clean(tbl, Options{RemoveDuplicates: true, HandleMissing: MissingDrop, TrimWhitespace: true, TextCase: CaseLower})
	require.NoError(t, err)
	assert.Empty(t, log)
}

func TestClean_CaseOnlyTouchesStrings(t *testing.T) {
	tbl := table.MustNew(table.NewColumn("mixed", []table.Value{
		table.String("hello wORLD"), table.Int(5), table.Null(),
	}))

	out, log, err := Clean(tbl, Options{TextCase: CaseTitle})
	require.NoError(t, err)
	require.Len(t, log, 1)

	vals := column(t, out, "mixed")
	assert.Equal(t, "Hello World", vals[0].String())
	assert.True(t, vals[1].Equal(table.Int(5)))
	assert.True(t, vals[2].IsNull())
}

func TestTitleCase(t *testing.T) {
	assert.Equal(t, "O'Neil Mcdonald", titleCase("o'neil mcDONALD"))
	assert.Equal(t, "Abc1Def", titleCase("abc1def"))
	assert.Equal(t, "", titleCase(""))
}

func TestClean_DatesWithFormat(t *testing.T) {
	tbl := table.MustNew(table.NewColumn("d", []table.Value{
		table.String("05/01/2024"), table.String("2024-01-05"), table.Float(45292),
	}))

	out, log, err := Clean(tbl, Options{DateColumns: []string{"d"}, DateFormat: "%d/%m/%Y"})
	require.NoError(t, err)
	assert.Equal(t, []Operation{OpParseDates}, log.Operations())

	vals := column(t, out, "d")
	tm, ok := vals[0].TimeValue()
	require.True(t, ok)
	assert.True(t, tm.Equal(time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)), tm)
	assert.True(t, vals[1].IsNull(), "wrong format coerces to null")

	serial, ok := vals[2].TimeValue()
	require.True(t, ok)
	assert.True(t, serial.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)), serial)
}

func TestClean_DateFormatErrorIsLogged(t *testing.T) {
	tbl := table.MustNew(table.NewColumn("d", []table.Value{table.String("2024-01-05")}))

	out, log, err := Clean(tbl, Options{DateColumns: []string{"d"}, DateFormat: "%Q"})
	require.NoError(t, err)

	assert.Equal(t, []Operation{OpParseDateError, OpParseDates}, log.Operations())
	assert.Equal(t, "d", log[0].Details["column"])
	assert.Contains(t, log[0].Details["error"], "%Q")
	assert.Equal(t, "2024-01-05", column(t, out, "d")[0].String())
}

func TestOptions_Validate(t *testing.T) {
	err := Options{HandleMissing: "fill", TextCase: "shout"}.Validate()
	require.Error(t, err)

	appErr, ok := apierrors.AsAppError(err)
	require.True(t, ok)
	require.Len(t, appErr.Violations, 2)
	assert.Equal(t, "fill_value", appErr.Violations[0].Field)
	assert.Equal(t, "text_case", appErr.Violations[1].Field)

	assert.Error(t, Options{HandleMissing: "ignore"}.Validate())
	assert.NoError(t, DefaultOptions().Validate())

	_, _, err = Clean(table.Empty(), Options{HandleMissing: "fill"})
	assert.True(t, apierrors.IsType(err, apierrors.ErrTypeValidation))
}

func TestStrftimeLayout(t *testing.T) {
	tests := []struct {
		format  string
		want    string
		wantErr bool
	}{
		{format: "%Y-%m-%d", want: "2006-1-2"},
		{format: "%d/%m/%y %H:%M", want: "2/1/06 15:4"},
		{format: "%H:%M:%S.%f", want: "15:4:5.999999"},
		{format: "100%%", want: "100%"},
		{format: "%Y-%q", wantErr: true},
		{format: "%Y%", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			got, err := strftimeLayout(tt.format)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
