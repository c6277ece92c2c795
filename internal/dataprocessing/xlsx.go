package dataprocessing

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/xuri/excelize/v2"

	apierrors "excelcleaner/internal/errors"
)

// ReadXLSX reads every worksheet of a workbook, or only sheetName when it
// is not empty. Cell values are read raw so number formats never leak into
// the data.
func ReadXLSX(r io.Reader, sheetName string) ([]Sheet, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, apierrors.NewParsingError("Error reading file", err)
	}
	defer f.Close()

	names := f.GetSheetList()
	if sheetName != "" {
		if idx, _ := f.GetSheetIndex(sheetName); idx < 0 {
			return nil, apierrors.NewNotFoundError(fmt.Sprintf("sheet %q", sheetName)).
				WithContext("sheets", names)
		}
		names = []string{sheetName}
	}

	sheets := make([]Sheet, 0, len(names))
	for _, name := range names {
		rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, apierrors.NewParsingError(fmt.Sprintf("Error reading sheet %s", name), err)
		}
		t, err := buildTable(rows)
		if err != nil {
			return nil, err
		}
		slog.Debug("worksheet read",
			slog.String("sheet", name),
			slog.Int("rows", t.NumRows()),
			slog.Int("columns", t.NumCols()))
		sheets = append(sheets, Sheet{Name: name, Table: t})
	}
	return sheets, nil
}
