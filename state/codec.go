// Copyright (c) 2025 The Arvo developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/arvo-network/arvo/arvo"
)

// Stored values carry a one byte kind tag ahead of their RLP payload.
// Decoding through a wrapper of the wrong kind is a schema defect and
// surfaces as ErrTypeMismatch, which is fatal.
const (
	TagBalance byte = iota + 1
	TagNonce
	TagAddress
	TagText
	TagPower
	TagFees
	TagFlag
	TagBridgeAccount
	TagValidatorUpdates
	TagFeeTotals
	TagDeposits
)

// ErrTypeMismatch means a stored value was decoded as the wrong logical type.
var ErrTypeMismatch = errors.New("stored value type mismatch")

// EncodeTyped encodes the payload with the given kind tag.
func EncodeTyped(tag byte, payload any) ([]byte, error) {
	enc, err := rlp.EncodeToBytes(payload)
	if err != nil {
		return nil, errors.Wrap(err, "encode typed value")
	}
	return append([]byte{tag}, enc...), nil
}

// DecodeTyped decodes raw into out, checking the kind tag.
func DecodeTyped(raw []byte, tag byte, out any) error {
	if len(raw) == 0 {
		return errors.New("empty typed value")
	}
	if raw[0] != tag {
		return errors.WithMessagef(ErrTypeMismatch, "tag %d, want %d", raw[0], tag)
	}
	if err := rlp.DecodeBytes(raw[1:], out); err != nil {
		return errors.Wrap(err, "decode typed value")
	}
	return nil
}

// EncodeBalance encodes an account balance.
func EncodeBalance(v *uint256.Int) []byte {
	enc, _ := EncodeTyped(TagBalance, v.Bytes())
	return enc
}

// DecodeBalance decodes an account balance. Empty raw decodes to zero.
func DecodeBalance(raw []byte) (*uint256.Int, error) {
	if len(raw) == 0 {
		return uint256.NewInt(0), nil
	}
	var b []byte
	if err := DecodeTyped(raw, TagBalance, &b); err != nil {
		return nil, err
	}
	return new(uint256.Int).SetBytes(b), nil
}

// EncodeAddress encodes an address value.
func EncodeAddress(addr arvo.Address) []byte {
	enc, _ := EncodeTyped(TagAddress, addr.Bytes())
	return enc
}

// DecodeAddress decodes an address value.
func DecodeAddress(raw []byte) (arvo.Address, error) {
	var b []byte
	if err := DecodeTyped(raw, TagAddress, &b); err != nil {
		return arvo.Address{}, err
	}
	if len(b) != arvo.AddressLength {
		return arvo.Address{}, errors.New("invalid stored address length")
	}
	return arvo.BytesToAddress(b), nil
}

// EncodeUint64 encodes a uint64 with the given tag (nonce, power).
func EncodeUint64(tag byte, v uint64) []byte {
	enc, _ := EncodeTyped(tag, v)
	return enc
}

// DecodeUint64 decodes a uint64 stored with the given tag.
// Empty raw decodes to zero.
func DecodeUint64(raw []byte, tag byte) (uint64, error) {
	if len(raw) == 0 {
		return 0, nil
	}
	var v uint64
	if err := DecodeTyped(raw, tag, &v); err != nil {
		return 0, err
	}
	return v, nil
}

// EncodeText encodes a short string value (asset denoms, prefixes).
func EncodeText(s string) []byte {
	enc, _ := EncodeTyped(TagText, s)
	return enc
}

// DecodeText decodes a string value.
func DecodeText(raw []byte) (string, error) {
	var s string
	if err := DecodeTyped(raw, TagText, &s); err != nil {
		return "", err
	}
	return s, nil
}

// EncodeFlag encodes a presence flag (relayer set, allowed fee assets).
func EncodeFlag(v bool) []byte {
	enc, _ := EncodeTyped(TagFlag, v)
	return enc
}

// DecodeFlag decodes a presence flag. Empty raw decodes to false.
func DecodeFlag(raw []byte) (bool, error) {
	if len(raw) == 0 {
		return false, nil
	}
	var v bool
	if err := DecodeTyped(raw, TagFlag, &v); err != nil {
		return false, err
	}
	return v, nil
}
