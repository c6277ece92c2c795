// Package cleaning implements the cleaning stage of the pipeline.
//
// Clean runs a fixed sequence of optional steps over a table and records
// each applied step in a Log:
//
//  1. remove duplicate rows (full-row equality, first occurrence kept)
//  2. drop or fill missing values
//  3. trim whitespace in text columns
//  4. normalise text case
//  5. parse date columns
//
// Cell-level date failures become nulls; they never fail the call.
package cleaning
