// Package calculation applies declarative rules that each derive one
// column from existing ones.
//
// Supported operations are sum, count, countif, sumif, if and custom.
// countif produces a per-row 1/0 indicator rather than a total, which is
// what existing rule sets depend on.
//
// Custom rules are expressions in the expr language
// (github.com/expr-lang/expr), evaluated once per row. They can read the
// current row's cells by column name or through row["name"], and whole
// columns through column("name"). No other host functionality is exposed,
// and the capability is off until enabled with WithCustomExpressions.
package calculation
