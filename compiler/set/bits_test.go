package set

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBits(t *testing.T) {
	var s Bits[int]

	assert.False(t, s.IsSet(3))
	assert.Nil(t, s.Slice())

	s.Set(3)
	s.Set(64)
	s.Set(200)
	s.Set(3)

	assert.True(t, s.IsSet(3))
	assert.True(t, s.IsSet(64))
	assert.False(t, s.IsSet(65))
	assert.Equal(t, 3, s.Size())
	assert.Equal(t, []int{3, 64, 200}, s.Slice())

	s.Clear(64)
	s.Clear(1000)

	assert.Equal(t, []int{3, 200}, s.Slice())

	var x Bits[int]
	x.Set(5)
	x.Merge(s)

	assert.Equal(t, []int{3, 5, 200}, x.Slice())

	x.Reset()

	assert.Equal(t, 0, x.Size())
	assert.False(t, x.IsSet(3))
}

func TestBitsRangeStop(t *testing.T) {
	var s Bits[int64]

	for _, k := range []int64{1, 2, 70, 130} {
		s.Set(k)
	}

	var got []int64

	s.Range(func(k int64) bool {
		got = append(got, k)
		return len(got) < 2
	})

	assert.Equal(t, []int64{1, 2}, got)
}
