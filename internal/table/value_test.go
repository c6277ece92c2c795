package table

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromAny(t *testing.T) {
	ts := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		in   any
		want Value
	}{
		{"nil", nil, Null()},
		{"bool", true, Bool(true)},
		{"int", 7, Int(7)},
		{"float", 2.5, Float(2.5)},
		{"nan is null", math.NaN(), Null()},
		{"integral json number", json.Number("42"), Int(42)},
		{"fractional json number", json.Number("4.2"), Float(4.2)},
		{"string", "x", String("x")},
		{"time", ts, Time(ts)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromAny(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want.Kind(), got.Kind())
			assert.True(t, tt.want.Equal(got))
		})
	}

	_, err := FromAny([]int{1})
	assert.Error(t, err)
}

func TestValue_String(t *testing.T) {
	tests := []struct {
		in   Value
		want string
	}{
		{Null(), ""},
		{Bool(true), "True"},
		{Int(-3), "-3"},
		{Float(1), "1.0"},
		{Float(2.5), "2.5"},
		{Float(math.Inf(1)), "inf"},
		{String(" a "), " a "},
		{Time(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)), "2024-01-02 03:04:05"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.String())
		})
	}
}

func TestValue_Equal(t *testing.T) {
	assert.True(t, Int(1).Equal(Float(1)))
	assert.True(t, Null().Equal(Null()))
	assert.False(t, Null().Equal(Int(0)))
	assert.False(t, String("1").Equal(Int(1)))
	assert.True(t, String("a").Equal(String("a")))
	assert.False(t, Bool(true).Equal(Int(1)))
}

func TestValue_Compare(t *testing.T) {
	c, err := Int(2).Compare(Float(1.5))
	require.NoError(t, err)
	assert.Equal(t, 1, c)

	c, err = String("apple").Compare(String("banana"))
	require.NoError(t, err)
	assert.Equal(t, -1, c)

	c, err = Bool(true).Compare(Int(1))
	require.NoError(t, err)
	assert.Equal(t, 0, c)

	_, err = String("a").Compare(Int(1))
	assert.ErrorIs(t, err, ErrIncomparable)

	_, err = Null().Compare(Int(1))
	assert.ErrorIs(t, err, ErrIncomparable)
}

func TestValue_AppendKey(t *testing.T) {
	key := func(v Value) string { return string(v.AppendKey(nil)) }

	assert.Equal(t, key(Int(3)), key(Float(3)))
	assert.NotEqual(t, key(Int(3)), key(String("3")))
	assert.NotEqual(t, key(Null()), key(String("")))

	// Length prefixes keep concatenated string keys unambiguous.
	ab := string(String("b").AppendKey(String("a").AppendKey(nil)))
	abJoined := string(String("").AppendKey(String("ab").AppendKey(nil)))
	assert.NotEqual(t, ab, abJoined)
}
