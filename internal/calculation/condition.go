package calculation

import (
	"fmt"
	"strings"

	apierrors "excelcleaner/internal/errors"
	"excelcleaner/internal/table"
)

// predicate tests one cell. Errors are computation failures.
type predicate func(v table.Value) (bool, error)

// compileCondition turns a validated condition into a predicate.
func compileCondition(c *Condition) predicate {
	switch c.Operator {
	case OpEq:
		target, _ := table.FromAny(c.Value)
		return func(v table.Value) (bool, error) {
			return !v.IsNull() && !target.IsNull() && v.Equal(target), nil
		}
	case OpNe:
		target, _ := table.FromAny(c.Value)
		return func(v table.Value) (bool, error) {
			return v.IsNull() || target.IsNull() || !v.Equal(target), nil
		}
	case OpGt, OpGe, OpLt, OpLe:
		target, _ := table.FromAny(c.Value)
		op := c.Operator
		return func(v table.Value) (bool, error) {
			if v.IsNull() {
				return false, nil
			}
			cmp, err := v.Compare(target)
			if err != nil {
				return false, fmt.Errorf("cannot compare %q with %q using %s: %w", v.String(), target.String(), op, err)
			}
			switch op {
			case OpGt:
				return cmp > 0, nil
			case OpGe:
				return cmp >= 0, nil
			case OpLt:
				return cmp < 0, nil
			default:
				return cmp <= 0, nil
			}
		}
	case OpIn:
		items, _ := c.Value.([]any)
		set := make(map[string]struct{}, len(items))
		for _, item := range items {
			v, _ := table.FromAny(item)
			set[string(v.AppendKey(nil))] = struct{}{}
		}
		return func(v table.Value) (bool, error) {
			_, ok := set[string(v.AppendKey(nil))]
			return ok, nil
		}
	case OpContains:
		target, _ := table.FromAny(c.Value)
		needle := target.String()
		return func(v table.Value) (bool, error) {
			if v.IsNull() {
				return false, nil
			}
			return strings.Contains(v.String(), needle), nil
		}
	}
	return func(table.Value) (bool, error) {
		return false, fmt.Errorf("Unsupported operator: %s", c.Operator)
	}
}

// evalCondition evaluates c over every cell of col.
func evalCondition(rule Rule, col *table.Column, c *Condition) ([]bool, error) {
	pred := compileCondition(c)
	out := make([]bool, col.Len())
	for i := 0; i < col.Len(); i++ {
		ok, err := pred(col.Value(i))
		if err != nil {
			return nil, apierrors.NewComputationError(
				fmt.Sprintf("Rule %s failed on column %s at row %d", rule.Name, col.Name(), i), err).
				WithContext("rule", rule.Name).
				WithContext("row", i)
		}
		out[i] = ok
	}
	return out, nil
}
