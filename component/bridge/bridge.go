// Copyright (c) 2025 The Arvo developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package bridge manages bridge accounts, the IBC authority addresses and
// the per-block deposit records.
package bridge

import (
	"encoding/hex"

	"github.com/holiman/uint256"

	"github.com/arvo-network/arvo/arvo"
	"github.com/arvo-network/arvo/state"
)

const (
	accountKeyPfx = "bridge/account/"
	ibcSudoKey    = "ibc/sudo"
	relayerKeyPfx = "ibc/relayer/"
)

// deposits of the current block, block-scoped
var blockDepositsKey = []byte("block/deposits")

func accountKey(addr arvo.Address) string {
	return accountKeyPfx + hex.EncodeToString(addr.Bytes())
}

func relayerKey(addr arvo.Address) string {
	return relayerKeyPfx + hex.EncodeToString(addr.Bytes())
}

// Account is the stored registration of a bridge account: the rollup the
// account bridges to and the only asset it accepts.
type Account struct {
	RollupID arvo.Bytes32
	Asset    string
}

// GetAccount reads the bridge registration of an address, nil when the
// address is not a bridge account.
func GetAccount(st state.Reader, addr arvo.Address) (*Account, error) {
	raw, err := st.Get(accountKey(addr))
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, nil
	}
	var acc Account
	if err := state.DecodeTyped(raw, state.TagBridgeAccount, &acc); err != nil {
		return nil, err
	}
	return &acc, nil
}

// SetAccount writes the bridge registration of an address.
func SetAccount(st state.Writer, addr arvo.Address, acc *Account) error {
	enc, err := state.EncodeTyped(state.TagBridgeAccount, acc)
	if err != nil {
		return err
	}
	st.Put(accountKey(addr), enc)
	return nil
}

// IBCSudoAddress reads the stored IBC sudo address.
func IBCSudoAddress(st state.Reader) (arvo.Address, error) {
	raw, err := st.Get(ibcSudoKey)
	if err != nil {
		return arvo.Address{}, err
	}
	return state.DecodeAddress(raw)
}

// SetIBCSudoAddress writes the IBC sudo address.
func SetIBCSudoAddress(st state.Writer, addr arvo.Address) {
	st.Put(ibcSudoKey, state.EncodeAddress(addr))
}

// IsRelayer reports whether the address is an authorized IBC relayer.
func IsRelayer(st state.Reader, addr arvo.Address) (bool, error) {
	raw, err := st.Get(relayerKey(addr))
	if err != nil {
		return false, err
	}
	return state.DecodeFlag(raw)
}

// SetRelayer adds or removes an IBC relayer.
func SetRelayer(st state.Writer, addr arvo.Address, authorized bool) {
	if !authorized {
		st.Delete(relayerKey(addr))
		return
	}
	st.Put(relayerKey(addr), state.EncodeFlag(true))
}

// Deposit is one asset lock into a bridge account, addressed to a rollup.
type Deposit struct {
	Bridge                  arvo.Address
	RollupID                arvo.Bytes32
	Asset                   string
	Amount                  []byte
	Origin                  arvo.Address
	DestinationChainAddress string
	// SourceTxID identifies the transaction that locked the funds, so the
	// rollup can correlate deposits back to sequencer transactions.
	SourceTxID arvo.Bytes32
}

// BlockDeposits reads the deposits recorded so far in this block.
func BlockDeposits(st state.Reader) ([]Deposit, error) {
	raw, err := st.NonverifiableGet(blockDepositsKey)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, nil
	}
	var deps []Deposit
	if err := state.DecodeTyped(raw, state.TagDeposits, &deps); err != nil {
		return nil, err
	}
	return deps, nil
}

// RecordDeposit appends a deposit to the block's record, preserving
// execution order.
func RecordDeposit(st state.ReadWriter, dep *Deposit) error {
	deps, err := BlockDeposits(st)
	if err != nil {
		return err
	}
	deps = append(deps, *dep)
	enc, err := state.EncodeTyped(state.TagDeposits, deps)
	if err != nil {
		return err
	}
	st.NonverifiablePut(blockDepositsKey, enc)
	return nil
}

// DepositAmount decodes the deposit's amount.
func (d *Deposit) DepositAmount() *uint256.Int {
	return new(uint256.Int).SetBytes(d.Amount)
}
