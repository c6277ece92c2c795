package dataprocessing

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	apierrors "excelcleaner/internal/errors"
	"excelcleaner/internal/table"
)

// Format identifies an input file format by extension.
type Format string

const (
	FormatXLSX Format = ".xlsx"
	FormatXLS  Format = ".xls"
	FormatCSV  Format = ".csv"
)

// CSVSheetName is the sheet name given to the single table of a csv file.
const CSVSheetName = "Sheet1"

// Sheet is one named table read from a file.
type Sheet struct {
	Name  string
	Table *table.Table
}

// ReadOptions narrows what Read returns.
type ReadOptions struct {
	// SheetName restricts a workbook to one worksheet. Ignored for csv.
	SheetName string
}

// DetectFormat returns the format for a file name, or an error listing the
// supported extensions.
func DetectFormat(filename string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch Format(ext) {
	case FormatXLSX, FormatCSV:
		return Format(ext), nil
	case FormatXLS:
		return "", apierrors.NewAppValidationError("Unsupported file type",
			apierrors.Violation("file", "Legacy .xls workbooks are not supported; save the file as .xlsx"))
	}
	return "", apierrors.NewAppValidationError("Unsupported file type",
		apierrors.Violation("file", fmt.Sprintf("Unsupported file type: %s. Supported types: .xlsx, .csv", ext)))
}

// Read parses r according to the extension of filename and returns its sheets
// in file order.
func Read(r io.Reader, filename string, opts ReadOptions) ([]Sheet, error) {
	format, err := DetectFormat(filename)
	if err != nil {
		return nil, err
	}

	var sheets []Sheet
	switch format {
	case FormatCSV:
		sheets, err = ReadCSV(r)
	default:
		sheets, err = ReadXLSX(r, opts.SheetName)
	}
	if err != nil {
		return nil, err
	}
	return sheets, nil
}

// buildTable converts raw text rows into a typed table. The first row that
// is not blank is the header.
func buildTable(rows [][]string) (*table.Table, error) {
	rows = dropBlankRows(rows)
	if len(rows) == 0 {
		return table.Empty(), nil
	}

	width := 0
	for _, row := range rows {
		width = max(width, len(row))
	}
	names := headerNames(rows[0], width)

	body := rows[1:]
	cols := make([]*table.Column, width)
	cells := make([]string, len(body))
	for j := 0; j < width; j++ {
		for i, row := range body {
			cells[i] = ""
			if j < len(row) {
				cells[i] = row[j]
			}
		}
		cols[j] = table.NewColumn(names[j], inferColumn(cells))
	}

	t, err := table.New(cols...)
	if err != nil {
		return nil, apierrors.NewParsingError("Error reading file", err)
	}
	return t, nil
}

func dropBlankRows(rows [][]string) [][]string {
	out := rows[:0:0]
	for _, row := range rows {
		for _, cell := range row {
			if strings.TrimSpace(cell) != "" {
				out = append(out, row)
				break
			}
		}
	}
	return out
}

// headerNames fills blank header cells with "Unnamed: <index>" and suffixes
// repeats with ".1", ".2" and so on.
func headerNames(header []string, width int) []string {
	names := make([]string, width)
	seen := make(map[string]int, width)
	for j := range names {
		name := ""
		if j < len(header) {
			name = strings.TrimSpace(header[j])
		}
		if name == "" {
			name = fmt.Sprintf("Unnamed: %d", j)
		}
		base := name
		for seen[name] > 0 {
			name = fmt.Sprintf("%s.%d", base, seen[base])
			seen[base]++
		}
		seen[name]++
		names[j] = name
	}
	return names
}
