package cleaning

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"excelcleaner/internal/table"
)

// Clean applies the configured operations in a fixed order: duplicates,
// missing values, whitespace, case, dates. The input table is not
// modified. An error is returned only for invalid options.
func Clean(t *table.Table, opts Options) (*table.Table, Log, error) {
	if err := opts.Validate(); err != nil {
		return nil, nil, err
	}

	log := Log{}
	out := t

	if opts.RemoveDuplicates {
		out = removeDuplicates(out, &log)
	}

	switch opts.HandleMissing {
	case MissingDrop:
		out = dropMissing(out, &log)
	case MissingFill:
		fill, _ := table.FromAny(opts.FillValue)
		out = fillMissing(out, fill, &log)
	}

	if opts.TrimWhitespace {
		out = trimWhitespace(out, &log)
	}

	if opts.TextCase != CaseNone {
		out = normalizeCase(out, opts.TextCase, &log)
	}

	if len(opts.DateColumns) > 0 {
		out = parseDates(out, opts.DateColumns, opts.DateFormat, &log)
	}

	return out, log, nil
}

func removeDuplicates(t *table.Table, log *Log) *table.Table {
	seen := make(map[string]struct{}, t.NumRows())
	keep := make([]int, 0, t.NumRows())
	for i := 0; i < t.NumRows(); i++ {
		key := t.RowKey(i)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		keep = append(keep, i)
	}

	removed := t.NumRows() - len(keep)
	if removed == 0 {
		return t
	}
	log.add(OpRemoveDuplicates, map[string]any{"rows_removed": removed})
	return t.SelectRows(keep)
}

func dropMissing(t *table.Table, log *Log) *table.Table {
	keep := make([]int, 0, t.NumRows())
rows:
	for i := 0; i < t.NumRows(); i++ {
		for _, v := range t.Row(i) {
			if v.IsNull() {
				continue rows
			}
		}
		keep = append(keep, i)
	}

	removed := t.NumRows() - len(keep)
	if removed == 0 {
		return t
	}
	log.add(OpDropMissing, map[string]any{"rows_removed": removed})
	return t.SelectRows(keep)
}

func fillMissing(t *table.Table, fill table.Value, log *Log) *table.Table {
	filled := 0
	out := t.MapColumns(func(c *table.Column) *table.Column {
		n := c.NullCount()
		if n == 0 {
			return c
		}
		filled += n
		return c.Map(func(v table.Value) table.Value {
			if v.IsNull() {
				return fill
			}
			return v
		})
	})

	if filled == 0 {
		return t
	}
	log.add(OpFillMissing, map[string]any{"values_filled": filled, "fill_value": fill.Interface()})
	return out
}

// mapText applies fn to string cells of text columns and reports whether
// any text column exists.
func mapText(t *table.Table, fn func(string) string) (*table.Table, bool) {
	found := false
	out := t.MapColumns(func(c *table.Column) *table.Column {
		if !c.IsText() {
			return c
		}
		found = true
		return c.Map(func(v table.Value) table.Value {
			if s, ok := v.StringValue(); ok {
				return table.String(fn(s))
			}
			return v
		})
	})
	return out, found
}

func trimWhitespace(t *table.Table, log *Log) *table.Table {
	out, found := mapText(t, strings.TrimSpace)
	if !found {
		return t
	}
	log.add(OpTrimWhitespace, nil)
	return out
}

func normalizeCase(t *table.Table, tc TextCase, log *Log) *table.Table {
	var fn func(string) string
	switch tc {
	case CaseUpper:
		fn = cases.Upper(language.Und).String
	case CaseLower:
		fn = cases.Lower(language.Und).String
	case CaseTitle:
		fn = titleCase
	default:
		return t
	}

	out, found := mapText(t, fn)
	if !found {
		return t
	}
	log.add(OpNormalizeCase, map[string]any{"case": string(tc)})
	return out
}

// titleCase upper-cases the first letter of every run of letters and
// lower-cases the rest, so "o'neil mcdonald" becomes "O'Neil Mcdonald".
func titleCase(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prevLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			if prevLetter {
				b.WriteRune(unicode.ToLower(r))
			} else {
				b.WriteRune(unicode.ToTitle(r))
			}
			prevLetter = true
			continue
		}
		b.WriteRune(r)
		prevLetter = false
	}
	return b.String()
}
