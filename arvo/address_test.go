// Copyright (c) 2025 The Arvo developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package arvo_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arvo-network/arvo/arvo"
)

func TestAddressTextRoundTrip(t *testing.T) {
	addr := arvo.BytesToAddress([]byte("01234567890123456789"))

	text := addr.Text("arvo")
	prefix, parsed, err := arvo.ParseAddress(text)
	require.NoError(t, err)
	assert.Equal(t, "arvo", prefix)
	assert.Equal(t, addr, parsed)

	// prefixes containing '1' still parse, the body length fixes the split
	text = addr.Text("pre1fix")
	prefix, parsed, err = arvo.ParseAddress(text)
	require.NoError(t, err)
	assert.Equal(t, "pre1fix", prefix)
	assert.Equal(t, addr, parsed)
}

func TestParseAddressRejects(t *testing.T) {
	for _, s := range []string{
		"",
		"noseparator",
		"arvo1",             // no body
		"arvo1zz",           // bad hex
		"arvo1" + "00",      // too short
		"1" + "0000000000000000000000000000000000000000", // empty prefix
	} {
		_, _, err := arvo.ParseAddress(s)
		assert.Error(t, err, "input %q", s)
	}
}

func TestBytesToAddressCropExtend(t *testing.T) {
	// shorter input is left-padded
	addr := arvo.BytesToAddress([]byte{0x01})
	assert.Equal(t, byte(0x01), addr.Bytes()[19])
	assert.True(t, arvo.BytesToAddress(nil).IsZero())

	// longer input is cropped from the left
	long := make([]byte, 24)
	long[23] = 0xaa
	assert.Equal(t, byte(0xaa), arvo.BytesToAddress(long).Bytes()[19])
}

func TestBlake2b(t *testing.T) {
	h1 := arvo.Blake2b([]byte("hello"))
	h2 := arvo.Blake2b([]byte("hello"))
	assert.Equal(t, h1, h2)
	assert.NotEqual(t, h1, arvo.Blake2b([]byte("world")))

	// chunking does not change the digest
	assert.Equal(t, h1, arvo.Blake2b([]byte("he"), []byte("llo")))
}
