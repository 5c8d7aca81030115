// Copyright (c) 2025 The Arvo developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package authority manages the sudo address and the validator set.
package authority

import (
	"encoding/hex"
	"sort"

	"github.com/arvo-network/arvo/arvo"
	"github.com/arvo-network/arvo/state"
)

const (
	sudoKey         = "authority/sudo"
	validatorKeyPfx = "authority/validator/"
)

// pending validator updates of the current block, block-scoped
var pendingUpdatesKey = []byte("block/validator_updates")

func validatorKey(addr arvo.Address) string {
	return validatorKeyPfx + hex.EncodeToString(addr.Bytes())
}

// SudoAddress reads the currently stored sudo address.
func SudoAddress(st state.Reader) (arvo.Address, error) {
	raw, err := st.Get(sudoKey)
	if err != nil {
		return arvo.Address{}, err
	}
	return state.DecodeAddress(raw)
}

// SetSudoAddress writes the sudo address.
func SetSudoAddress(st state.Writer, addr arvo.Address) {
	st.Put(sudoKey, state.EncodeAddress(addr))
}

// ValidatorPower reads the power of a validator, 0 when unknown.
func ValidatorPower(st state.Reader, addr arvo.Address) (uint64, error) {
	raw, err := st.Get(validatorKey(addr))
	if err != nil {
		return 0, err
	}
	return state.DecodeUint64(raw, state.TagPower)
}

// SetValidatorPower writes the power of a validator. Power 0 removes it.
func SetValidatorPower(st state.Writer, addr arvo.Address, power uint64) {
	if power == 0 {
		st.Delete(validatorKey(addr))
		return
	}
	st.Put(validatorKey(addr), state.EncodeUint64(state.TagPower, power))
}

// Update is one accumulated validator update awaiting end of block.
type Update struct {
	Address arvo.Address
	Power   uint64
}

// PendingUpdates reads the validator updates accumulated in this block.
func PendingUpdates(st state.Reader) ([]Update, error) {
	raw, err := st.NonverifiableGet(pendingUpdatesKey)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, nil
	}
	var ups []Update
	if err := state.DecodeTyped(raw, state.TagValidatorUpdates, &ups); err != nil {
		return nil, err
	}
	return ups, nil
}

// RecordUpdate upserts one validator update into the block's accumulated
// set, keeping it sorted for determinism.
func RecordUpdate(st state.ReadWriter, addr arvo.Address, power uint64) error {
	ups, err := PendingUpdates(st)
	if err != nil {
		return err
	}
	i := sort.Search(len(ups), func(i int) bool {
		return string(ups[i].Address.Bytes()) >= string(addr.Bytes())
	})
	if i < len(ups) && ups[i].Address == addr {
		ups[i].Power = power
	} else {
		ups = append(ups, Update{})
		copy(ups[i+1:], ups[i:])
		ups[i] = Update{Address: addr, Power: power}
	}
	enc, err := state.EncodeTyped(state.TagValidatorUpdates, ups)
	if err != nil {
		return err
	}
	st.NonverifiablePut(pendingUpdatesKey, enc)
	return nil
}
