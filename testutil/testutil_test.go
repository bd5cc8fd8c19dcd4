package testutil

import (
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestRNG_Deterministic(t *testing.T) {
	a, b := NewRNG(4711), NewRNG(4711)
	assert.Equal(t, a.String(50), b.String(50))
	assert.Equal(t, a.Bytes(32), b.Bytes(32))
	assert.Equal(t, a.Int64(), b.Int64())

	c := NewRNG(4711)
	first := c.String(20)
	c.Bytes(8)
	c.Reset()
	assert.Equal(t, first, c.String(20))
	assert.Equal(t, uint64(4711), c.Seed())
}

func TestRNG_String(t *testing.T) {
	s := NewRNG(1).String(200)
	assert.Equal(t, 200, utf8.RuneCountInString(s))
}

func TestRNG_Values(t *testing.T) {
	vals := NewRNG(2).Values(2000, 16, 0.25)
	assert.Len(t, vals, 2000)

	nulls := 0
	for _, v := range vals {
		if v.Null {
			nulls++
			assert.Empty(t, v.Str)
			continue
		}
		assert.LessOrEqual(t, utf8.RuneCountInString(v.Str), 16)
	}
	assert.InDelta(t, 500, nulls, 100)
}
