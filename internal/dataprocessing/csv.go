package dataprocessing

import (
	"encoding/csv"
	"io"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	apierrors "excelcleaner/internal/errors"
)

// ReadCSV reads a comma separated file into a single sheet. A leading
// byte order mark is dropped and ragged rows are accepted.
func ReadCSV(r io.Reader) ([]Sheet, error) {
	decoded := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))

	reader := csv.NewReader(decoded)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, apierrors.NewParsingError("Error reading file", err)
	}

	t, err := buildTable(rows)
	if err != nil {
		return nil, err
	}
	return []Sheet{{Name: CSVSheetName, Table: t}}, nil
}
