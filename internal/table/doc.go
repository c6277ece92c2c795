// Package table provides the immutable columnar dataset every pipeline
// stage consumes and produces.
//
// A Table is an ordered set of uniquely named columns of equal length.
// Each column holds Values of a single Kind: null, boolean, integer,
// float, string or time. Columns whose cells disagree on kind (for
// example an integer column filled with a text placeholder) report
// KindMixed.
//
// Tables are never modified after construction. Transforms such as
// WithColumn and SelectRows return new Tables that share unchanged
// columns with the receiver, so a Table may be read from several
// goroutines at once.
package table
