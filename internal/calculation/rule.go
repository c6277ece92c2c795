package calculation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	apierrors "excelcleaner/internal/errors"
	"excelcleaner/internal/table"
)

// Operation is the kind of derived column a rule produces.
type Operation string

const (
	OpSum     Operation = "sum"
	OpCount   Operation = "count"
	OpCountIf Operation = "countif"
	OpSumIf   Operation = "sumif"
	OpIf      Operation = "if"
	OpCustom  Operation = "custom"
)

// Operator is a condition comparison.
type Operator string

const (
	OpEq       Operator = "=="
	OpNe       Operator = "!="
	OpGt       Operator = ">"
	OpGe       Operator = ">="
	OpLt       Operator = "<"
	OpLe       Operator = "<="
	OpIn       Operator = "in"
	OpContains Operator = "contains"
)

// Condition is evaluated against every cell of a rule's predicate column.
type Condition struct {
	Operator Operator `json:"operator"`
	Value    any      `json:"value"`
}

func (c *Condition) String() string {
	if c == nil {
		return ""
	}
	return fmt.Sprintf("%s %v", c.Operator, c.Value)
}

// Rule declares one derived column.
type Rule struct {
	Name       string     `json:"name"`
	Operation  Operation  `json:"operation"`
	Columns    []string   `json:"columns"`
	Condition  *Condition `json:"condition,omitempty"`
	TrueValue  any        `json:"true_value,omitempty"`
	FalseValue any        `json:"false_value,omitempty"`
	// Expression is evaluated once per row for custom rules.
	Expression string `json:"custom_function,omitempty"`
}

// UnmarshalJSON keeps integral literals as integers.
func (r *Rule) UnmarshalJSON(data []byte) error {
	type plain Rule
	var p plain
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&p); err != nil {
		return err
	}
	*r = Rule(p)
	return nil
}

// violations checks the rule's structure. Column existence is checked
// separately because it depends on the rules applied before this one.
func (r Rule) violations(field string, allowCustom bool) []apierrors.ValidationError {
	var out []apierrors.ValidationError
	add := func(f, msg string) {
		out = append(out, apierrors.Violation(field+f, msg))
	}

	if strings.TrimSpace(r.Name) == "" {
		add(".name", "Rule name is required")
	}

	upper := strings.ToUpper(string(r.Operation))
	switch r.Operation {
	case OpSum, OpCount:
		if len(r.Columns) == 0 {
			add(".columns", "At least one column must be specified")
		}
	case OpCountIf, OpIf:
		if len(r.Columns) != 1 {
			add(".columns", fmt.Sprintf("%s requires exactly one column", upper))
		}
		if r.Condition == nil {
			add(".condition", fmt.Sprintf("Condition is required for %s operation", upper))
		}
	case OpSumIf:
		if len(r.Columns) != 2 {
			add(".columns", "SUMIF requires exactly two columns: [condition_column, sum_column]")
		}
		if r.Condition == nil {
			add(".condition", "Condition is required for SUMIF operation")
		}
	case OpCustom:
		if !allowCustom {
			add(".operation", "Custom expressions are disabled")
		}
		if strings.TrimSpace(r.Expression) == "" {
			add(".custom_function", "Custom function is required for CUSTOM operation")
		}
	default:
		add(".operation", fmt.Sprintf("Unsupported operation: %s", r.Operation))
	}

	if r.Condition != nil {
		for _, msg := range conditionViolations(r.Condition) {
			add(".condition", msg)
		}
	}

	if r.Operation == OpIf {
		if _, err := table.FromAny(r.TrueValue); err != nil {
			add(".true_value", err.Error())
		}
		if _, err := table.FromAny(r.FalseValue); err != nil {
			add(".false_value", err.Error())
		}
	}

	return out
}

func conditionViolations(c *Condition) []string {
	switch c.Operator {
	case OpEq, OpNe, OpContains:
		if _, err := table.FromAny(c.Value); err != nil {
			return []string{err.Error()}
		}
	case OpGt, OpGe, OpLt, OpLe:
		v, err := table.FromAny(c.Value)
		if err != nil {
			return []string{err.Error()}
		}
		if v.IsNull() {
			return []string{fmt.Sprintf("Operator %s requires a non-null value", c.Operator)}
		}
	case OpIn:
		list, ok := c.Value.([]any)
		if !ok {
			return []string{"Operator in requires a list value"}
		}
		for _, item := range list {
			if _, err := table.FromAny(item); err != nil {
				return []string{err.Error()}
			}
		}
	default:
		return []string{fmt.Sprintf("Unsupported operator: %s", c.Operator)}
	}
	return nil
}

// describe renders a human-readable summary of what the rule did.
func (r Rule) describe() string {
	switch r.Operation {
	case OpSum:
		return "Sum of columns: " + strings.Join(r.Columns, ", ")
	case OpCount:
		return "Count of non-null values in columns: " + strings.Join(r.Columns, ", ")
	case OpCountIf:
		return fmt.Sprintf("Indicator of values in '%s' where %s", r.Columns[0], r.Condition)
	case OpSumIf:
		return fmt.Sprintf("Sum of '%s' where '%s' %s", r.Columns[1], r.Columns[0], r.Condition)
	case OpIf:
		return fmt.Sprintf("IF '%s' %s THEN %v ELSE %v", r.Columns[0], r.Condition, r.TrueValue, r.FalseValue)
	case OpCustom:
		return "Applied custom function: " + r.Expression
	}
	return ""
}
