package table

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Kind enumerates the logical cell types.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindTime
	// KindMixed is only reported by columns whose cells disagree on kind.
	KindMixed
)

var kindNames = [...]string{"null", "bool", "int", "float", "string", "time", "mixed"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", k)
}

// IsNumeric reports whether k is an integer or float kind.
func (k Kind) IsNumeric() bool { return k == KindInt || k == KindFloat }

// ErrIncomparable is returned when ordering values of incompatible kinds.
var ErrIncomparable = errors.New("values are not comparable")

// TimeLayout is the textual form used for time cells.
const TimeLayout = "2006-01-02 15:04:05"

// Value is an immutable scalar cell.
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	s    string
	t    time.Time
}

func Null() Value            { return Value{} }
func Bool(b bool) Value      { return Value{kind: KindBool, b: b} }
func Int(i int64) Value      { return Value{kind: KindInt, i: i} }
func String(s string) Value  { return Value{kind: KindString, s: s} }
func Time(t time.Time) Value { return Value{kind: KindTime, t: t} }

// Float returns a float cell; NaN is treated as missing.
func Float(f float64) Value {
	if math.IsNaN(f) {
		return Null()
	}
	return Value{kind: KindFloat, f: f}
}

// FromAny converts a decoded JSON scalar or native Go scalar into a Value.
// Integral json.Number values become integers.
func FromAny(v any) (Value, error) {
	switch x := v.(type) {
	case nil:
		return Null(), nil
	case Value:
		return x, nil
	case bool:
		return Bool(x), nil
	case int:
		return Int(int64(x)), nil
	case int8:
		return Int(int64(x)), nil
	case int16:
		return Int(int64(x)), nil
	case int32:
		return Int(int64(x)), nil
	case int64:
		return Int(x), nil
	case uint8:
		return Int(int64(x)), nil
	case uint16:
		return Int(int64(x)), nil
	case uint32:
		return Int(int64(x)), nil
	case float32:
		return Float(float64(x)), nil
	case float64:
		return Float(x), nil
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return Int(i), nil
		}
		f, err := x.Float64()
		if err != nil {
			return Null(), fmt.Errorf("invalid number %q: %w", x.String(), err)
		}
		return Float(f), nil
	case string:
		return String(x), nil
	case time.Time:
		return Time(x), nil
	default:
		return Null(), fmt.Errorf("unsupported cell type %T", v)
	}
}

// MustFromAny is FromAny for literals known to be valid.
func MustFromAny(v any) Value {
	val, err := FromAny(v)
	if err != nil {
		panic(err)
	}
	return val
}

func (v Value) Kind() Kind   { return v.kind }
func (v Value) IsNull() bool { return v.kind == KindNull }

// BoolValue returns the boolean payload.
func (v Value) BoolValue() (bool, bool) { return v.b, v.kind == KindBool }

// IntValue returns the integer payload.
func (v Value) IntValue() (int64, bool) { return v.i, v.kind == KindInt }

// StringValue returns the string payload.
func (v Value) StringValue() (string, bool) { return v.s, v.kind == KindString }

// TimeValue returns the time payload.
func (v Value) TimeValue() (time.Time, bool) { return v.t, v.kind == KindTime }

// Float returns the numeric view of v. Booleans count as 0 and 1.
func (v Value) Float() (float64, bool) {
	switch v.kind {
	case KindInt:
		return float64(v.i), true
	case KindFloat:
		return v.f, true
	case KindBool:
		if v.b {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

// String renders v as text. Integral floats keep a trailing ".0" so that
// 1 and 1.0 stay distinguishable; null renders as the empty string.
func (v Value) String() string {
	switch v.kind {
	case KindBool:
		if v.b {
			return "True"
		}
		return "False"
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return formatFloat(v.f)
	case KindString:
		return v.s
	case KindTime:
		return v.t.Format(TimeLayout)
	}
	return ""
}

func formatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}

// Interface returns the native Go value: nil, bool, int64, float64,
// string or time.Time.
func (v Value) Interface() any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindString:
		return v.s
	case KindTime:
		return v.t
	}
	return nil
}

// Equal reports structural equality. Two nulls are equal, and integers
// compare equal to floats of the same numeric value.
func (v Value) Equal(o Value) bool {
	if v.kind.IsNumeric() && o.kind.IsNumeric() {
		if v.kind == KindInt && o.kind == KindInt {
			return v.i == o.i
		}
		a, _ := v.Float()
		b, _ := o.Float()
		return a == b
	}
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.b == o.b
	case KindString:
		return v.s == o.s
	case KindTime:
		return v.t.Equal(o.t)
	}
	return false
}

// Compare orders two non-null values of compatible kinds, returning -1, 0
// or 1. Numbers (booleans included) compare numerically, strings
// lexicographically and times chronologically.
func (v Value) Compare(o Value) (int, error) {
	if v.IsNull() || o.IsNull() {
		return 0, fmt.Errorf("%w: null", ErrIncomparable)
	}
	vn := v.kind.IsNumeric() || v.kind == KindBool
	on := o.kind.IsNumeric() || o.kind == KindBool
	switch {
	case vn && on:
		if v.kind == KindInt && o.kind == KindInt {
			return cmp3(v.i < o.i, v.i > o.i), nil
		}
		a, _ := v.Float()
		b, _ := o.Float()
		return cmp3(a < b, a > b), nil
	case v.kind == KindString && o.kind == KindString:
		return strings.Compare(v.s, o.s), nil
	case v.kind == KindTime && o.kind == KindTime:
		return v.t.Compare(o.t), nil
	}
	return 0, fmt.Errorf("%w: %s and %s", ErrIncomparable, v.kind, o.kind)
}

func cmp3(less, greater bool) int {
	switch {
	case less:
		return -1
	case greater:
		return 1
	}
	return 0
}

// AppendKey appends an unambiguous encoding of v to buf. Values that are
// Equal produce identical encodings, so the result can key a map.
func (v Value) AppendKey(buf []byte) []byte {
	switch v.kind {
	case KindNull:
		return append(buf, 'z', ';')
	case KindBool:
		if v.b {
			return append(buf, 'b', '1', ';')
		}
		return append(buf, 'b', '0', ';')
	case KindInt:
		buf = append(buf, 'n')
		buf = strconv.AppendInt(buf, v.i, 10)
		return append(buf, ';')
	case KindFloat:
		if v.f == math.Trunc(v.f) && math.Abs(v.f) < 1<<63 {
			buf = append(buf, 'n')
			buf = strconv.AppendInt(buf, int64(v.f), 10)
			return append(buf, ';')
		}
		buf = append(buf, 'f')
		buf = strconv.AppendFloat(buf, v.f, 'g', -1, 64)
		return append(buf, ';')
	case KindString:
		buf = append(buf, 's')
		buf = strconv.AppendInt(buf, int64(len(v.s)), 10)
		buf = append(buf, ':')
		return append(buf, v.s...)
	case KindTime:
		buf = append(buf, 't')
		buf = strconv.AppendInt(buf, v.t.UnixNano(), 10)
		return append(buf, ';')
	}
	return buf
}
