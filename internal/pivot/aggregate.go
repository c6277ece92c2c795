package pivot

import (
	"fmt"
	"math"

	apierrors "excelcleaner/internal/errors"
	"excelcleaner/internal/table"
)

// aggregate reduces the non-null values of one group.
func aggregate(fn AggFunc, vals []table.Value) (table.Value, error) {
	switch fn {
	case AggCount:
		return table.Int(int64(len(vals))), nil
	case AggFirst:
		if len(vals) == 0 {
			return table.Null(), nil
		}
		return vals[0], nil
	case AggLast:
		if len(vals) == 0 {
			return table.Null(), nil
		}
		return vals[len(vals)-1], nil
	case AggMin, AggMax:
		return extreme(fn, vals)
	case AggSum:
		return sum(vals)
	case AggMean, AggStd, AggVar:
		xs, err := floats(fn, vals)
		if err != nil {
			return table.Null(), err
		}
		return moment(fn, xs), nil
	}
	return table.Null(), fmt.Errorf("invalid aggregation function: %s", fn)
}

func sum(vals []table.Value) (table.Value, error) {
	var i int64
	var f float64
	integral := true
	for _, v := range vals {
		switch v.Kind() {
		case table.KindInt:
			x, _ := v.IntValue()
			i += x
			f += float64(x)
		case table.KindBool:
			if b, _ := v.BoolValue(); b {
				i++
				f++
			}
		case table.KindFloat:
			x, _ := v.Float()
			f += x
			integral = false
		default:
			return table.Null(), nonNumeric(AggSum, v)
		}
	}
	if integral {
		return table.Int(i), nil
	}
	return table.Float(f), nil
}

func floats(fn AggFunc, vals []table.Value) ([]float64, error) {
	xs := make([]float64, len(vals))
	for i, v := range vals {
		x, ok := v.Float()
		if !ok {
			return nil, nonNumeric(fn, v)
		}
		xs[i] = x
	}
	return xs, nil
}

// moment computes mean, or sample variance and standard deviation.
func moment(fn AggFunc, xs []float64) table.Value {
	n := float64(len(xs))
	if len(xs) == 0 || (fn != AggMean && len(xs) < 2) {
		return table.Null()
	}
	var mean float64
	for _, x := range xs {
		mean += x
	}
	mean /= n
	if fn == AggMean {
		return table.Float(mean)
	}

	var ss float64
	for _, x := range xs {
		d := x - mean
		ss += d * d
	}
	variance := ss / (n - 1)
	if fn == AggVar {
		return table.Float(variance)
	}
	return table.Float(math.Sqrt(variance))
}

func extreme(fn AggFunc, vals []table.Value) (table.Value, error) {
	if len(vals) == 0 {
		return table.Null(), nil
	}
	best := vals[0]
	for _, v := range vals[1:] {
		c, err := v.Compare(best)
		if err != nil {
			return table.Null(), apierrors.NewComputationError(
				fmt.Sprintf("Cannot compute %s over mixed values %q and %q", fn, best.String(), v.String()), err)
		}
		if (fn == AggMin && c < 0) || (fn == AggMax && c > 0) {
			best = v
		}
	}
	return best, nil
}

func nonNumeric(fn AggFunc, v table.Value) error {
	return apierrors.NewComputationError(
		fmt.Sprintf("Cannot compute %s of non-numeric value %q", fn, v.String()), nil)
}
