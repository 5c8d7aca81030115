// Copyright (c) 2025 The Arvo developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package accounts manages account balances and nonces, plus the immutable
// chain parameters fixed at genesis (chain id, base address prefix, native
// asset).
package accounts

import (
	"encoding/hex"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/arvo-network/arvo/arvo"
	"github.com/arvo-network/arvo/state"
)

// Verifiable store keys.
const (
	chainIDKey     = "chain/id"
	basePrefixKey  = "chain/base_prefix"
	nativeAssetKey = "chain/native_asset"
)

func balanceKey(addr arvo.Address, asset string) string {
	return "accounts/" + hex.EncodeToString(addr.Bytes()) + "/balance/" + asset
}

func nonceKey(addr arvo.Address) string {
	return "accounts/" + hex.EncodeToString(addr.Bytes()) + "/nonce"
}

// ChainID reads the chain id fixed at genesis.
func ChainID(st state.Reader) (string, error) {
	raw, err := st.Get(chainIDKey)
	if err != nil {
		return "", err
	}
	return state.DecodeText(raw)
}

// BasePrefix reads the chain's base address prefix fixed at genesis.
func BasePrefix(st state.Reader) (string, error) {
	raw, err := st.Get(basePrefixKey)
	if err != nil {
		return "", err
	}
	return state.DecodeText(raw)
}

// NativeAsset reads the chain's native asset fixed at genesis.
func NativeAsset(st state.Reader) (string, error) {
	raw, err := st.Get(nativeAssetKey)
	if err != nil {
		return "", err
	}
	return state.DecodeText(raw)
}

// GetBalance reads the balance of the account in the given asset.
// Unknown accounts read as zero.
func GetBalance(st state.Reader, addr arvo.Address, asset string) (*uint256.Int, error) {
	raw, err := st.Get(balanceKey(addr, asset))
	if err != nil {
		return nil, err
	}
	return state.DecodeBalance(raw)
}

// SetBalance writes the balance of the account in the given asset.
func SetBalance(st state.Writer, addr arvo.Address, asset string, balance *uint256.Int) {
	st.Put(balanceKey(addr, asset), state.EncodeBalance(balance))
}

// AddBalance credits the account.
func AddBalance(st interface {
	state.Reader
	state.Writer
}, addr arvo.Address, asset string, amount *uint256.Int) error {
	balance, err := GetBalance(st, addr, asset)
	if err != nil {
		return err
	}
	sum, overflow := new(uint256.Int).AddOverflow(balance, amount)
	if overflow {
		return errors.New("balance overflow")
	}
	SetBalance(st, addr, asset, sum)
	return nil
}

// SubBalance debits the account. The first return value reports whether the
// balance was sufficient; if not, nothing is written.
func SubBalance(st interface {
	state.Reader
	state.Writer
}, addr arvo.Address, asset string, amount *uint256.Int) (bool, error) {
	balance, err := GetBalance(st, addr, asset)
	if err != nil {
		return false, err
	}
	if balance.Lt(amount) {
		return false, nil
	}
	SetBalance(st, addr, asset, new(uint256.Int).Sub(balance, amount))
	return true, nil
}

// GetNonce reads the account nonce.
func GetNonce(st state.Reader, addr arvo.Address) (uint32, error) {
	raw, err := st.Get(nonceKey(addr))
	if err != nil {
		return 0, err
	}
	v, err := state.DecodeUint64(raw, state.TagNonce)
	return uint32(v), err
}

// SetNonce writes the account nonce.
func SetNonce(st state.Writer, addr arvo.Address, nonce uint32) {
	st.Put(nonceKey(addr), state.EncodeUint64(state.TagNonce, uint64(nonce)))
}
