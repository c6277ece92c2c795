package pivot

import (
	"bytes"
	"encoding/json"
	"fmt"

	apierrors "excelcleaner/internal/errors"
)

// AggFunc names an aggregation function.
type AggFunc string

const (
	AggSum   AggFunc = "sum"
	AggCount AggFunc = "count"
	AggMean  AggFunc = "mean"
	AggMin   AggFunc = "min"
	AggMax   AggFunc = "max"
	AggFirst AggFunc = "first"
	AggLast  AggFunc = "last"
	AggStd   AggFunc = "std"
	AggVar   AggFunc = "var"
)

func (f AggFunc) valid() bool {
	switch f {
	case AggSum, AggCount, AggMean, AggMin, AggMax, AggFirst, AggLast, AggStd, AggVar:
		return true
	}
	return false
}

// DefaultMarginsName labels the grand-total row and column.
const DefaultMarginsName = "Total"

// Aggregations is either one list of functions applied to every value
// column or a per-column mapping. In JSON it is a string, a list of
// strings, or an object whose values are a string or a list of strings.
type Aggregations struct {
	Default   []AggFunc
	PerColumn map[string][]AggFunc
}

// Funcs is a shorthand for the same functions on every value column.
func Funcs(fns ...AggFunc) Aggregations {
	return Aggregations{Default: fns}
}

// IsPerColumn reports whether a per-column mapping is configured.
func (a Aggregations) IsPerColumn() bool { return a.PerColumn != nil }

// For returns the functions applied to a value column.
func (a Aggregations) For(column string) []AggFunc {
	if a.PerColumn != nil {
		return a.PerColumn[column]
	}
	if len(a.Default) == 0 {
		return []AggFunc{AggSum}
	}
	return a.Default
}

// multi reports whether any value column gets more than one function,
// which adds the function name to flattened keys.
func (a Aggregations) multi() bool {
	if len(a.Default) > 1 {
		return true
	}
	for _, fns := range a.PerColumn {
		if len(fns) > 1 {
			return true
		}
	}
	return false
}

func (a *Aggregations) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*a = Aggregations{}
		return nil
	}

	switch data[0] {
	case '{':
		var raw map[string]json.RawMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		per := make(map[string][]AggFunc, len(raw))
		for col, v := range raw {
			fns, err := decodeFuncs(v)
			if err != nil {
				return fmt.Errorf("aggfunc for column %s: %w", col, err)
			}
			per[col] = fns
		}
		*a = Aggregations{PerColumn: per}
		return nil
	default:
		fns, err := decodeFuncs(data)
		if err != nil {
			return fmt.Errorf("aggfunc: %w", err)
		}
		*a = Aggregations{Default: fns}
		return nil
	}
}

func decodeFuncs(data json.RawMessage) ([]AggFunc, error) {
	var one AggFunc
	if err := json.Unmarshal(data, &one); err == nil {
		return []AggFunc{one}, nil
	}
	var many []AggFunc
	if err := json.Unmarshal(data, &many); err != nil {
		return nil, fmt.Errorf("expected a string or a list of strings")
	}
	return many, nil
}

func (a Aggregations) MarshalJSON() ([]byte, error) {
	collapse := func(fns []AggFunc) any {
		if len(fns) == 1 {
			return fns[0]
		}
		return fns
	}
	if a.PerColumn != nil {
		out := make(map[string]any, len(a.PerColumn))
		for col, fns := range a.PerColumn {
			out[col] = collapse(fns)
		}
		return json.Marshal(out)
	}
	if len(a.Default) == 0 {
		return json.Marshal(AggSum)
	}
	return json.Marshal(collapse(a.Default))
}

// Spec configures a pivot.
type Spec struct {
	Index        []string     `json:"index"`
	Columns      []string     `json:"columns,omitempty"`
	Values       []string     `json:"values,omitempty"`
	Aggregations Aggregations `json:"aggfunc"`
	FillValue    any          `json:"fill_value,omitempty"`
	Margins      bool         `json:"margins"`
	MarginsName  string       `json:"margins_name,omitempty"`
}

// UnmarshalJSON keeps integral fill values as integers.
func (s *Spec) UnmarshalJSON(data []byte) error {
	type plain Spec
	var p plain
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&p); err != nil {
		return err
	}
	*s = Spec(p)
	return nil
}

func (s Spec) marginsName() string {
	if s.MarginsName == "" {
		return DefaultMarginsName
	}
	return s.MarginsName
}

// Validate checks the spec's structure without looking at any table.
func (s Spec) Validate() error {
	if v := s.violations(); len(v) > 0 {
		return apierrors.NewAppValidationError("Invalid pivot configuration", v...)
	}
	return nil
}

func (s Spec) violations() []apierrors.ValidationError {
	var out []apierrors.ValidationError
	if len(s.Index) == 0 {
		out = append(out, apierrors.Violation("index", "At least one index column must be specified"))
	}

	check := func(field string, fns []AggFunc) {
		if len(fns) == 0 {
			out = append(out, apierrors.Violation(field, "At least one aggregation function must be specified"))
		}
		for _, f := range fns {
			if !f.valid() {
				out = append(out, apierrors.Violation(field, fmt.Sprintf("Invalid aggregation function: %s", f)))
			}
		}
	}
	if s.Aggregations.PerColumn != nil {
		for _, col := range sortedKeys(s.Aggregations.PerColumn) {
			check("aggfunc."+col, s.Aggregations.PerColumn[col])
		}
	} else if s.Aggregations.Default != nil {
		check("aggfunc", s.Aggregations.Default)
	}
	return out
}
