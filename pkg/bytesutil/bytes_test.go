package bytesutil

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConcatDoesNotAlias(t *testing.T) {
	a := []byte{1, 2}
	b := []byte{3}
	out := Concat(a, b)
	require.Equal(t, []byte{1, 2, 3}, out)

	out[0] = 9
	assert.Equal(t, byte(1), a[0], "Concat must not alias its inputs")
}

func TestConcatTo(t *testing.T) {
	dst := make([]byte, 1, 8)
	dst[0] = 0xaa
	out := ConcatTo(dst, []byte{0xbb}, nil, []byte{0xcc, 0xdd})
	assert.Equal(t, []byte{0xaa, 0xbb, 0xcc, 0xdd}, out)
	assert.Len(t, dst, 1)
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal(nil, []byte{}))
	assert.True(t, Equal([]byte{1, 2, 3}, []byte{1, 2, 3}))
	assert.False(t, Equal([]byte{1, 2, 3}, []byte{1, 2}))
	assert.False(t, Equal([]byte{1, 2, 3}, []byte{1, 2, 4}))
}

func TestClone(t *testing.T) {
	assert.Nil(t, Clone(nil))

	src := []byte{1, 2, 3}
	c := Clone(src)
	c[0] = 7
	assert.Equal(t, byte(1), src[0])
}

func TestHexRoundTrip(t *testing.T) {
	b, err := FromHex("0xdeadBEEF")
	require.NoError(t, err)
	assert.Equal(t, []byte{0xde, 0xad, 0xbe, 0xef}, b)
	assert.Equal(t, "0xdeadbeef", ToHex(b))

	b, err = FromHex("0102")
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2}, b)

	_, err = FromHex("0xzz")
	assert.Error(t, err)
}

func TestHexJSON(t *testing.T) {
	type doc struct {
		Data Hex `json:"data"`
	}
	out, err := json.Marshal(doc{Data: Hex{0x01, 0xff}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"data":"0x01ff"}`, string(out))

	var back doc
	require.NoError(t, json.Unmarshal(out, &back))
	assert.Equal(t, Hex{0x01, 0xff}, back.Data)
}
