// Copyright (c) 2025 The Arvo developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package arvo

import (
	"encoding/hex"

	"github.com/pkg/errors"
)

const (
	// AddressLength length of address in bytes.
	AddressLength = 20
)

// Address account address.
type Address [AddressLength]byte

// Bytes returns byte slice form of address.
func (a Address) Bytes() []byte {
	return a[:]
}

// IsZero returns if address has all zero bytes.
func (a Address) IsZero() bool {
	return a == Address{}
}

// Text formats the address into its textual form, which is the
// prefix, a '1' separator and the hex encoded address bytes.
func (a Address) Text(prefix string) string {
	return prefix + "1" + hex.EncodeToString(a[:])
}

// String implements the stringer interface.
// The bare hex form is used when no prefix is known.
func (a Address) String() string {
	return "0x" + hex.EncodeToString(a[:])
}

// BytesToAddress converts byte slice into address.
// If b is larger than address length, b will be cropped (from the left).
// If b is smaller than address length, b will be extended (from the left).
func BytesToAddress(b []byte) Address {
	var addr Address
	if len(b) > AddressLength {
		b = b[len(b)-AddressLength:]
	}
	copy(addr[AddressLength-len(b):], b)
	return addr
}

// ParseAddress parses the textual form of an address and returns
// the address bytes along with its prefix. The body has a fixed length,
// so the separator position is unambiguous even though hex digits may
// contain '1'.
func ParseAddress(s string) (prefix string, addr Address, err error) {
	const bodyLen = AddressLength * 2
	if len(s) < bodyLen+2 {
		return "", Address{}, errors.New("invalid address length")
	}
	sep := len(s) - bodyLen - 1
	if s[sep] != '1' {
		return "", Address{}, errors.New("missing address separator")
	}
	prefix, body := s[:sep], s[sep+1:]
	if _, err := hex.Decode(addr[:], []byte(body)); err != nil {
		return "", Address{}, errors.WithMessage(err, "invalid address body")
	}
	return prefix, addr, nil
}

// MustParseAddress parses the textual form of an address, discarding the
// prefix. It panics on failure and is intended for fixtures and genesis
// presets.
func MustParseAddress(s string) Address {
	_, addr, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return addr
}
