package cleaning

import (
	"bytes"
	"encoding/json"
	"fmt"

	apierrors "excelcleaner/internal/errors"
	"excelcleaner/internal/table"
)

// MissingStrategy selects how null cells are handled.
type MissingStrategy string

const (
	MissingKeep MissingStrategy = "keep"
	MissingDrop MissingStrategy = "drop"
	MissingFill MissingStrategy = "fill"
)

// TextCase selects case normalisation for text cells.
type TextCase string

const (
	CaseNone  TextCase = ""
	CaseUpper TextCase = "upper"
	CaseLower TextCase = "lower"
	CaseTitle TextCase = "title"
)

// Options configures a cleaning run. Decode it with encoding/json or start
// from DefaultOptions; fields left out keep their defaults.
type Options struct {
	RemoveDuplicates bool            `json:"remove_duplicates"`
	HandleMissing    MissingStrategy `json:"handle_missing"`
	FillValue        any             `json:"fill_value,omitempty"`
	TrimWhitespace   bool            `json:"trim_whitespace"`
	TextCase         TextCase        `json:"text_case,omitempty"`
	DateColumns      []string        `json:"date_columns,omitempty"`
	// DateFormat uses strftime directives, e.g. "%Y-%m-%d".
	DateFormat string `json:"date_format,omitempty"`
}

// DefaultOptions keeps missing values and trims whitespace.
func DefaultOptions() Options {
	return Options{
		HandleMissing:  MissingKeep,
		TrimWhitespace: true,
	}
}

// UnmarshalJSON decodes on top of DefaultOptions and keeps integral fill
// values as integers.
func (o *Options) UnmarshalJSON(data []byte) error {
	type plain Options
	p := plain(DefaultOptions())
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&p); err != nil {
		return err
	}
	*o = Options(p)
	return nil
}

// Validate reports every invalid field.
func (o Options) Validate() error {
	var violations []apierrors.ValidationError

	switch o.HandleMissing {
	case "", MissingKeep, MissingDrop:
	case MissingFill:
		if o.FillValue == nil {
			violations = append(violations, apierrors.Violation("fill_value",
				"fill_value is required when handle_missing is fill"))
		} else if _, err := table.FromAny(o.FillValue); err != nil {
			violations = append(violations, apierrors.Violation("fill_value", err.Error()))
		}
	default:
		violations = append(violations, apierrors.Violation("handle_missing",
			fmt.Sprintf("Unsupported handle_missing %q: must be one of keep, drop, fill", o.HandleMissing)))
	}

	switch o.TextCase {
	case CaseNone, CaseUpper, CaseLower, CaseTitle:
	default:
		violations = append(violations, apierrors.Violation("text_case",
			fmt.Sprintf("Unsupported text_case %q: must be one of upper, lower, title", o.TextCase)))
	}

	for i, c := range o.DateColumns {
		if c == "" {
			violations = append(violations, apierrors.Violation(fmt.Sprintf("date_columns[%d]", i), "column name must not be empty"))
		}
	}

	if len(violations) > 0 {
		return apierrors.NewAppValidationError("Invalid cleaning options", violations...)
	}
	return nil
}
