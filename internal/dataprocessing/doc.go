// Package dataprocessing turns uploaded spreadsheet files into tables.
//
// Two formats are understood:
//
//	.xlsx  every worksheet becomes one named sheet (read with excelize)
//	.csv   the whole file becomes a single sheet named "Sheet1"
//
// The first non-blank row of a sheet is its header. Missing or repeated
// header names are made unique ("Unnamed: 3", "amount.1"), the way the
// upload API has always named them.
//
// # Type inference
//
// Cells arrive as text and are typed per column:
//
//   - null tokens ("", "NA", "N/A", "NaN", "null", "None", ...) become null
//   - a column whose remaining cells are all integers becomes an int column
//   - a column of numbers becomes a float column
//   - a column of True/False becomes a bool column
//   - anything else keeps the original text
//
// Dates are not inferred here. Date cells in workbooks come through as
// Excel serial numbers and are converted by the cleaning stage when the
// column is listed in its date columns.
//
// # Usage
//
//	sheets, err := dataprocessing.Read(r, "sales.xlsx", dataprocessing.ReadOptions{})
//	if err != nil {
//	    return err
//	}
//	for _, s := range sheets {
//	    fmt.Println(s.Name, s.Table.NumRows())
//	}
package dataprocessing
