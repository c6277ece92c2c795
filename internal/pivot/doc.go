// Package pivot builds grouped, cross-tabulated aggregates of a table.
//
// Rows are grouped by the index columns and, optionally, sub-grouped by
// the cross-tab columns. Each (row group, column group, value column)
// triple is reduced with one or more of sum, count, mean, min, max,
// first, last, std and var. Margins add a grand-total row and, when
// cross-tab columns are set, a grand-total column per value and function.
//
// The result is flattened: every output column name joins the column
// group values, the value column name and, when any value column has more
// than one function, the function name, using KeySeparator.
package pivot
