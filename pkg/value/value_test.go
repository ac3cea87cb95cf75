package value

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewNumberCoercesNaN(t *testing.T) {
	v := NewNumber(math.NaN())
	assert.Equal(t, Number, v.Kind())
	assert.Equal(t, float64(0), v.ToNumber())
}

func TestToNumber(t *testing.T) {
	cases := []struct {
		name string
		v    Value
		want float64
	}{
		{"number", NewNumber(3.5), 3.5},
		{"numeric string", NewString("42"), 42},
		{"padded numeric string", NewString("  7  "), 7},
		{"non numeric string", NewString("banana"), 0},
		{"empty string", NewString(""), 0},
		{"true", NewBoolean(true), 1},
		{"false", NewBoolean(false), 0},
		{"undefined", Empty, 0},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, c.v.ToNumber())
		})
	}
}

func TestToBoolean(t *testing.T) {
	assert.True(t, NewNumber(1).ToBoolean())
	assert.False(t, NewNumber(0).ToBoolean())
	assert.False(t, NewString("").ToBoolean())
	assert.False(t, NewString("0").ToBoolean())
	assert.False(t, NewString("false").ToBoolean())
	assert.False(t, NewString("FALSE").ToBoolean())
	assert.True(t, NewString("false ").ToBoolean())
	assert.True(t, NewString("hello").ToBoolean())
	assert.False(t, Empty.ToBoolean())
}

func TestEqualCrossType(t *testing.T) {
	assert.True(t, NewBoolean(true).Equal(NewNumber(1)))
	assert.True(t, NewBoolean(false).Equal(NewNumber(0)))
	assert.True(t, NewBoolean(true).Equal(NewString("true")))
	assert.True(t, NewBoolean(true).Equal(NewString("TRUE")))
	assert.True(t, NewNumber(42).Equal(NewString("42")))
	assert.True(t, NewNumber(1.5).Equal(NewNumber(1.5+epsilon/2)))
	assert.False(t, NewNumber(1).Equal(NewString("  ")))
	assert.True(t, NewString("Hello").Equal(NewString("hello")))
}

func TestCompareNumericVsLexical(t *testing.T) {
	require.Equal(t, -1, NewNumber(1).Compare(NewNumber(2)))
	require.Equal(t, 1, NewNumber(10).Compare(NewNumber(2)))
	require.Equal(t, 0, NewString("abc").Compare(NewString("ABC")))
	require.Equal(t, -1, NewString("apple").Compare(NewString("banana")))
}

func TestStringRendering(t *testing.T) {
	assert.Equal(t, "undefined", Empty.String())
	assert.Equal(t, "true", NewBoolean(true).String())
	assert.Equal(t, "3", NewNumber(3).String())
	assert.Equal(t, "hi", NewString("hi").String())
}

func TestIsWhitespace(t *testing.T) {
	assert.True(t, NewString("   ").IsWhitespace())
	assert.False(t, NewString(" x ").IsWhitespace())
	assert.False(t, NewNumber(0).IsWhitespace())
}
