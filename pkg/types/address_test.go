package types

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testHex = "c1a0d6f0e1b2a3948576a5b4c3d2e1f0a9b8c7d6e5f4a3b2c1d0e9f8a7b6c5d4"

func TestParseAddress(t *testing.T) {
	a, err := ParseAddress(testHex)
	require.NoError(t, err)
	assert.Equal(t, testHex, a.String())
	assert.False(t, a.IsZero())

	upper, err := ParseAddress("dat://" + strings.ToUpper(testHex) + "/")
	require.NoError(t, err)
	assert.Equal(t, a, upper)
}

func TestParseAddress_Invalid(t *testing.T) {
	cases := []string{
		"",
		"abc",
		testHex[:62],
		testHex + "00",
		"zz" + testHex[2:],
	}
	for _, c := range cases {
		_, err := ParseAddress(c)
		assert.ErrorIs(t, err, ErrInvalidAddress, c)
	}
}

func TestAddressFromBytes(t *testing.T) {
	a := MustParseAddress(testHex)

	b, err := AddressFromBytes(a.Bytes())
	require.NoError(t, err)
	assert.Equal(t, a, b)

	_, err = AddressFromBytes([]byte{1, 2, 3})
	assert.ErrorIs(t, err, ErrInvalidKeyLength)
}

func TestAddress_BytesIsCopy(t *testing.T) {
	a := MustParseAddress(testHex)
	b := a.Bytes()
	b[0] ^= 0xff
	assert.Equal(t, testHex, a.String())
}

func TestDiscoveryKey(t *testing.T) {
	a := MustParseAddress(testHex)
	other := MustParseAddress(strings.Repeat("0", 63) + "1")

	dk := a.DiscoveryKey()
	assert.Equal(t, dk, a.DiscoveryKey())
	assert.NotEqual(t, dk, other.DiscoveryKey())
	assert.NotEqual(t, a.String(), dk.String())
	assert.Len(t, dk.String(), 64)
}

func TestHandleState_String(t *testing.T) {
	assert.Equal(t, "created", StateCreated.String())
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "swarming", StateSwarming.String())
	assert.Equal(t, "closed", StateClosed.String())
	assert.Equal(t, "unknown", HandleState(99).String())

	assert.Equal(t, "join", EventJoin.String())
	assert.Equal(t, "leave", EventLeave.String())
	assert.Equal(t, "close", EventClose.String())
}
