// Package exporter encodes tables for download.
//
// WorkbookWriter produces an .xlsx workbook with one worksheet per table,
// column widths fitted to their content and, optionally, native Excel
// charts drawn from chart configs. WriteCSV produces a single table as
// comma separated text.
//
// Example usage:
//
//	w := exporter.NewWorkbookWriter(logger)
//	err := w.Write(out, []exporter.SheetData{
//	    {Name: "Sales", Table: t, Charts: charts},
//	    {Name: "Sales_pivot_1", Table: pivoted},
//	})
//
//	err = exporter.WriteCSV(out, t, exporter.CSVOptions{BOMPrefix: true})
package exporter
