package exporter

import (
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"excelcleaner/internal/table"
)

// formatCell renders a value as csv text. Nulls are empty.
func formatCell(v table.Value) string {
	if v.IsNull() {
		return ""
	}
	return v.String()
}

// cellValue returns the native value excelize stores for v.
func cellValue(v table.Value) interface{} {
	switch v.Kind() {
	case table.KindNull:
		return nil
	case table.KindFloat:
		f, _ := v.Float()
		if math.IsInf(f, 0) || math.IsNaN(f) {
			return nil
		}
		return f
	}
	return v.Interface()
}

const (
	maxColumnWidth = 50
	widthPadding   = 2
)

// columnWidth fits a column to its longest rendered cell or its header,
// capped at maxColumnWidth.
func columnWidth(c *table.Column) float64 {
	longest := utf8.RuneCountInString(c.Name())
	for i := 0; i < c.Len(); i++ {
		longest = max(longest, utf8.RuneCountInString(formatCell(c.Value(i))))
	}
	return float64(min(longest+widthPadding, maxColumnWidth))
}

const maxSheetNameLen = 31

// sheetName makes name acceptable to Excel: forbidden characters become
// underscores, the result is at most 31 characters and unique within used.
func sheetName(name string, used map[string]bool) string {
	clean := strings.Map(func(r rune) rune {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			return '_'
		}
		return r
	}, strings.Trim(name, "'"))
	if clean == "" {
		clean = "Sheet"
	}
	clean = truncateRunes(clean, maxSheetNameLen)

	candidate := clean
	for n := 2; used[strings.ToLower(candidate)]; n++ {
		suffix := "~" + strconv.Itoa(n)
		candidate = truncateRunes(clean, maxSheetNameLen-len(suffix)) + suffix
	}
	used[strings.ToLower(candidate)] = true
	return candidate
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
