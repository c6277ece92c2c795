package cleaning

import (
	"fmt"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/xuri/excelize/v2"

	"excelcleaner/internal/table"
)

func parseDates(t *table.Table, columns []string, format string, log *Log) *table.Table {
	var present []string
	for _, c := range columns {
		if t.Has(c) {
			present = append(present, c)
		}
	}
	if len(present) == 0 {
		return t
	}

	parse := inferDate
	if format != "" {
		layout, err := strftimeLayout(format)
		if err != nil {
			for _, c := range present {
				log.add(OpParseDateError, map[string]any{"column": c, "error": err.Error()})
			}
			log.add(OpParseDates, map[string]any{"columns": present})
			return t
		}
		parse = func(s string) (time.Time, error) { return time.Parse(layout, s) }
	}

	out := t
	for _, name := range present {
		col, _ := out.Column(name)
		parsed := col.Map(func(v table.Value) table.Value { return toDate(v, parse) })
		// Replacing a column of the same length cannot fail.
		out, _ = out.WithColumn(parsed)
	}

	log.add(OpParseDates, map[string]any{"columns": present})
	return out
}

// toDate converts one cell; anything unparseable becomes null.
func toDate(v table.Value, parse func(string) (time.Time, error)) table.Value {
	switch v.Kind() {
	case table.KindTime, table.KindNull:
		return v
	case table.KindInt, table.KindFloat:
		serial, _ := v.Float()
		tm, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return table.Null()
		}
		return table.Time(tm)
	case table.KindString:
		s, _ := v.StringValue()
		s = strings.TrimSpace(s)
		if s == "" {
			return table.Null()
		}
		tm, err := parse(s)
		if err != nil {
			return table.Null()
		}
		return table.Time(tm)
	}
	return table.Null()
}

func inferDate(s string) (time.Time, error) {
	return dateparse.ParseIn(s, time.UTC)
}

var strftimeDirectives = map[byte]string{
	'Y': "2006",
	'y': "06",
	'm': "1",
	'd': "2",
	'j': "002",
	'H': "15",
	'I': "3",
	'M': "4",
	'S': "5",
	'p': "PM",
	'b': "Jan",
	'B': "January",
	'a': "Mon",
	'A': "Monday",
	'f': "999999",
	'z': "-0700",
	'Z': "MST",
	'%': "%",
}

// strftimeLayout translates a strftime format into a time.Parse layout.
func strftimeLayout(format string) (string, error) {
	var b strings.Builder
	for i := 0; i < len(format); i++ {
		c := format[i]
		if c != '%' {
			b.WriteByte(c)
			continue
		}
		if i+1 >= len(format) {
			return "", fmt.Errorf("date format %q ends with a bare %%", format)
		}
		i++
		d, ok := strftimeDirectives[format[i]]
		if !ok {
			return "", fmt.Errorf("unsupported directive %%%c in date format %q", format[i], format)
		}
		if format[i] == 'f' {
			// Fractional seconds attach to the preceding seconds field.
			s := b.String()
			if !strings.HasSuffix(s, ".") {
				return "", fmt.Errorf("%%f must follow a '.' in date format %q", format)
			}
			b.Reset()
			b.WriteString(strings.TrimSuffix(s, "."))
			d = ".999999"
		}
		b.WriteString(d)
	}
	return b.String(), nil
}
