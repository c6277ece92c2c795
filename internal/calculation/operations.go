package calculation

import (
	"fmt"

	apierrors "excelcleaner/internal/errors"
	"excelcleaner/internal/table"
)

// sumColumns adds the listed columns row by row, treating nulls as zero.
// The result is integral when every contributing cell is.
func sumColumns(rule Rule, cols []*table.Column) (*table.Column, error) {
	n := cols[0].Len()
	ints := make([]int64, n)
	floats := make([]float64, n)
	integral := true

	for _, c := range cols {
		for i := 0; i < n; i++ {
			v := c.Value(i)
			switch v.Kind() {
			case table.KindNull:
			case table.KindInt:
				x, _ := v.IntValue()
				ints[i] += x
				floats[i] += float64(x)
			case table.KindBool:
				if b, _ := v.BoolValue(); b {
					ints[i]++
					floats[i]++
				}
			case table.KindFloat:
				x, _ := v.Float()
				floats[i] += x
				integral = false
			default:
				return nil, apierrors.NewComputationError(
					fmt.Sprintf("Cannot sum non-numeric value %q in column %s at row %d", v.String(), c.Name(), i), nil).
					WithContext("rule", rule.Name).
					WithContext("row", i)
			}
		}
	}

	out := make([]table.Value, n)
	for i := range out {
		if integral {
			out[i] = table.Int(ints[i])
		} else {
			out[i] = table.Float(floats[i])
		}
	}
	return table.NewColumn(rule.Name, out), nil
}

func countColumns(rule Rule, cols []*table.Column) *table.Column {
	n := cols[0].Len()
	out := make([]table.Value, n)
	for i := 0; i < n; i++ {
		count := 0
		for _, c := range cols {
			if !c.Value(i).IsNull() {
				count++
			}
		}
		out[i] = table.Int(int64(count))
	}
	return table.NewColumn(rule.Name, out)
}

// countIf yields a per-row 1/0 indicator of the condition, not a total.
func countIf(rule Rule, col *table.Column) (*table.Column, error) {
	mask, err := evalCondition(rule, col, rule.Condition)
	if err != nil {
		return nil, err
	}
	out := make([]table.Value, len(mask))
	for i, ok := range mask {
		if ok {
			out[i] = table.Int(1)
		} else {
			out[i] = table.Int(0)
		}
	}
	return table.NewColumn(rule.Name, out), nil
}

func sumIf(rule Rule, predCol, valueCol *table.Column) (*table.Column, error) {
	mask, err := evalCondition(rule, predCol, rule.Condition)
	if err != nil {
		return nil, err
	}
	out := make([]table.Value, len(mask))
	for i, ok := range mask {
		if ok {
			out[i] = valueCol.Value(i)
		} else {
			out[i] = table.Int(0)
		}
	}
	return table.NewColumn(rule.Name, out), nil
}

func ifThenElse(rule Rule, col *table.Column) (*table.Column, error) {
	mask, err := evalCondition(rule, col, rule.Condition)
	if err != nil {
		return nil, err
	}
	whenTrue, _ := table.FromAny(rule.TrueValue)
	whenFalse, _ := table.FromAny(rule.FalseValue)

	out := make([]table.Value, len(mask))
	for i, ok := range mask {
		if ok {
			out[i] = whenTrue
		} else {
			out[i] = whenFalse
		}
	}
	return table.NewColumn(rule.Name, out), nil
}
