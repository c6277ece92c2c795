package dataprocessing

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	apierrors "excelcleaner/internal/errors"
	"excelcleaner/internal/table"
)

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		want    Format
		wantErr bool
	}{
		{"xlsx", "report.xlsx", FormatXLSX, false},
		{"upper case extension", "REPORT.XLSX", FormatXLSX, false},
		{"csv", "data.csv", FormatCSV, false},
		{"legacy xls", "old.xls", "", true},
		{"text file", "notes.txt", "", true},
		{"no extension", "data", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DetectFormat(tt.file)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, apierrors.IsType(err, apierrors.ErrTypeValidation))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReadCSV(t *testing.T) {
	input := "\ufeffregion,units,price,active,note\n" +
		"North,10,2.5,True,first\n" +
		"South,,3,False,NA\n" +
		"\n" +
		"East,7,N/A,true,\n"

	sheets, err := Read(strings.NewReader(input), "sales.csv", ReadOptions{})
	require.NoError(t, err)
	require.Len(t, sheets, 1)
	assert.Equal(t, CSVSheetName, sheets[0].Name)

	tbl := sheets[0].Table
	assert.Equal(t, []string{"region", "units", "price", "active", "note"}, tbl.ColumnNames())
	assert.Equal(t, 3, tbl.NumRows())

	kinds := map[string]table.Kind{
		"region": table.KindString,
		"units":  table.KindInt,
		"price":  table.KindFloat,
		"active": table.KindBool,
		"note":   table.KindString,
	}
	for name, kind := range kinds {
		col, ok := tbl.Column(name)
		require.True(t, ok, name)
		assert.Equal(t, kind, col.Kind(), name)
	}

	units, _ := tbl.Column("units")
	assert.True(t, units.Value(1).IsNull())
	price, _ := tbl.Column("price")
	assert.True(t, price.Value(2).IsNull())
	note, _ := tbl.Column("note")
	assert.Equal(t, 2, note.NullCount())
}

func TestReadCSVMixedColumnKeepsText(t *testing.T) {
	sheets, err := ReadCSV(strings.NewReader("code\n12\nA7\n"))
	require.NoError(t, err)

	col, ok := sheets[0].Table.Column("code")
	require.True(t, ok)
	assert.Equal(t, table.KindString, col.Kind())
	assert.Equal(t, "12", col.Value(0).String())
}

func TestReadCSVHeaderNames(t *testing.T) {
	sheets, err := ReadCSV(strings.NewReader("a,,a,a\n1,2,3,4,5\n"))
	require.NoError(t, err)

	assert.Equal(t,
		[]string{"a", "Unnamed: 1", "a.1", "a.2", "Unnamed: 4"},
		sheets[0].Table.ColumnNames())
}

func TestReadCSVEmpty(t *testing.T) {
	sheets, err := ReadCSV(strings.NewReader("\n\n"))
	require.NoError(t, err)
	require.Len(t, sheets, 1)
	assert.Equal(t, 0, sheets[0].Table.NumCols())
}

func newWorkbook(t *testing.T) *bytes.Buffer {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	require.NoError(t, f.SetSheetName("Sheet1", "Sales"))
	rows := [][]interface{}{
		{"region", "units", "amount"},
		{"North", 3, 10.5},
		{"South", 4, 20.25},
		{"North", nil, 1.0},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sales", cell, &row))
	}

	_, err := f.NewSheet("Notes")
	require.NoError(t, err)
	require.NoError(t, f.SetCellValue("Notes", "A1", "text"))
	require.NoError(t, f.SetCellValue("Notes", "A2", "hello"))

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func TestReadXLSX(t *testing.T) {
	sheets, err := Read(newWorkbook(t), "book.xlsx", ReadOptions{})
	require.NoError(t, err)
	require.Len(t, sheets, 2)
	assert.Equal(t, "Sales", sheets[0].Name)
	assert.Equal(t, "Notes", sheets[1].Name)

	sales := sheets[0].Table
	assert.Equal(t, []string{"region", "units", "amount"}, sales.ColumnNames())
	assert.Equal(t, 3, sales.NumRows())

	units, _ := sales.Column("units")
	assert.Equal(t, table.KindInt, units.Kind())
	assert.True(t, units.Value(2).IsNull())

	amount, _ := sales.Column("amount")
	assert.Equal(t, table.KindFloat, amount.Kind())
	assert.True(t, amount.Value(1).Equal(table.Float(20.25)))
}

func TestReadXLSXSingleSheet(t *testing.T) {
	sheets, err := ReadXLSX(newWorkbook(t), "Notes")
	require.NoError(t, err)
	require.Len(t, sheets, 1)
	assert.Equal(t, "Notes", sheets[0].Name)
	assert.Equal(t, 1, sheets[0].Table.NumRows())
}

func TestReadXLSXUnknownSheet(t *testing.T) {
	_, err := ReadXLSX(newWorkbook(t), "Missing")
	require.Error(t, err)
	assert.True(t, apierrors.IsType(err, apierrors.ErrTypeNotFound))
}

func TestReadXLSXNotAWorkbook(t *testing.T) {
	_, err := ReadXLSX(strings.NewReader("definitely not a zip"), "")
	require.Error(t, err)
	assert.True(t, apierrors.IsType(err, apierrors.ErrTypeParsing))
}
