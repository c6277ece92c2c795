package dataprocessing

import (
	"strconv"
	"strings"

	"excelcleaner/internal/table"
)

// nullTokens are the cell texts read as missing values.
var nullTokens = map[string]struct{}{
	"":     {},
	"#N/A": {},
	"N/A":  {},
	"n/a":  {},
	"NA":   {},
	"NaN":  {},
	"nan":  {},
	"-NaN": {},
	"NULL": {},
	"null": {},
	"None": {},
	"<NA>": {},
}

// IsNullToken reports whether a raw cell text stands for a missing value.
func IsNullToken(s string) bool {
	_, ok := nullTokens[strings.TrimSpace(s)]
	return ok
}

type columnGuess int

const (
	guessInt columnGuess = iota
	guessFloat
	guessBool
	guessText
)

// inferColumn types one column of raw cells. The whole column settles on a
// single kind; a column that mixes numbers and words keeps its text.
func inferColumn(cells []string) []table.Value {
	guess := guessInt
	sawValue := false
	for _, c := range cells {
		if IsNullToken(c) {
			continue
		}
		s := strings.TrimSpace(c)
		cell := classify(s)
		switch {
		case !sawValue:
			guess = cell
		case guess == cell:
		case guess == guessInt && cell == guessFloat, guess == guessFloat && cell == guessInt:
			guess = guessFloat
		default:
			guess = guessText
		}
		sawValue = true
		if guess == guessText {
			break
		}
	}

	out := make([]table.Value, len(cells))
	for i, c := range cells {
		if IsNullToken(c) {
			out[i] = table.Null()
			continue
		}
		s := strings.TrimSpace(c)
		switch guess {
		case guessInt:
			n, _ := strconv.ParseInt(s, 10, 64)
			out[i] = table.Int(n)
		case guessFloat:
			f, _ := strconv.ParseFloat(s, 64)
			out[i] = table.Float(f)
		case guessBool:
			out[i] = table.Bool(parseBool(s))
		default:
			out[i] = table.String(c)
		}
	}
	return out
}

func classify(s string) columnGuess {
	if _, err := strconv.ParseInt(s, 10, 64); err == nil {
		return guessInt
	}
	if _, err := strconv.ParseFloat(s, 64); err == nil {
		return guessFloat
	}
	if isBool(s) {
		return guessBool
	}
	return guessText
}

func isBool(s string) bool {
	switch s {
	case "True", "TRUE", "true", "False", "FALSE", "false":
		return true
	}
	return false
}

func parseBool(s string) bool {
	return strings.EqualFold(s, "true")
}
