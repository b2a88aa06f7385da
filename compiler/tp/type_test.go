package tp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	for _, x := range []Type{Any{}, Bool{}, Int64, Callable{}, ArgList{}} {
		y, err := Parse(x.String())
		require.NoError(t, err)
		assert.Equal(t, x, y)
	}

	x, err := Parse("")
	require.NoError(t, err)
	assert.Equal(t, Any{}, x)

	_, err = Parse("string")
	assert.Error(t, err)
}

func TestInt(t *testing.T) {
	assert.Equal(t, "int", Int64.String())
	assert.Equal(t, 8, Int64.Size())
	assert.Equal(t, "int32", Int{Bits: 32, Signed: true}.String())
	assert.Equal(t, "uint8", Int{Bits: 8}.String())
}

func TestIsCallable(t *testing.T) {
	assert.True(t, IsCallable(Callable{}))
	assert.False(t, IsCallable(Any{}))
	assert.False(t, IsCallable(ArgList{}))
	assert.False(t, IsCallable(nil))
}
