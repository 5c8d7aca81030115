// Copyright (c) 2025 The Arvo developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package fees manages fee configuration, allowed fee assets and the
// per-block fee totals.
package fees

import (
	"sort"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/arvo-network/arvo/arvo"
	"github.com/arvo-network/arvo/component/accounts"
	"github.com/arvo-network/arvo/state"
	"github.com/arvo-network/arvo/tx"
)

const (
	configKeyPfx  = "fees/"
	allowedKeyPfx = "fees/allowed/"
)

// fee totals of the current block, block-scoped
var blockTotalsKey = []byte("block/fees")

// Components is one action kind's fee configuration. The fee charged is
// Base + Multiplier * len(payload bytes).
type Components struct {
	Base       *uint256.Int
	Multiplier *uint256.Int
}

// Cost computes the fee for a payload of the given size.
func (c *Components) Cost(payloadLen int) *uint256.Int {
	cost := new(uint256.Int).Mul(c.Multiplier, uint256.NewInt(uint64(payloadLen)))
	return cost.Add(cost, c.Base)
}

type storedComponents struct {
	Base       []byte
	Multiplier []byte
}

func configKey(kind tx.ActionKind) string {
	return configKeyPfx + kind.String()
}

func allowedKey(asset string) string {
	return allowedKeyPfx + asset
}

// ComponentsFor reads the fee configuration of an action kind. A nil
// result means the kind is fee-exempt.
func ComponentsFor(st state.Reader, kind tx.ActionKind) (*Components, error) {
	raw, err := st.Get(configKey(kind))
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, nil
	}
	var sc storedComponents
	if err := state.DecodeTyped(raw, state.TagFees, &sc); err != nil {
		return nil, err
	}
	return &Components{
		Base:       new(uint256.Int).SetBytes(sc.Base),
		Multiplier: new(uint256.Int).SetBytes(sc.Multiplier),
	}, nil
}

// SetComponents writes the fee configuration of an action kind.
func SetComponents(st state.Writer, kind tx.ActionKind, c *Components) error {
	enc, err := state.EncodeTyped(state.TagFees, &storedComponents{
		Base:       c.Base.Bytes(),
		Multiplier: c.Multiplier.Bytes(),
	})
	if err != nil {
		return err
	}
	st.Put(configKey(kind), enc)
	return nil
}

// IsAllowedAsset reports whether the asset may be used to pay fees.
func IsAllowedAsset(st state.Reader, asset string) (bool, error) {
	raw, err := st.Get(allowedKey(asset))
	if err != nil {
		return false, err
	}
	return state.DecodeFlag(raw)
}

// SetAllowedAsset marks the asset as accepted or not for fee payment.
func SetAllowedAsset(st state.Writer, asset string, allowed bool) {
	if !allowed {
		st.Delete(allowedKey(asset))
		return
	}
	st.Put(allowedKey(asset), state.EncodeFlag(true))
}

// total is the accumulated fee amount of one asset within a block.
type total struct {
	Asset  string
	Amount []byte
}

// BlockTotals reads the fee totals accumulated so far in this block,
// keyed by asset.
func BlockTotals(st state.Reader) ([]tx.EventAttribute, error) {
	totals, err := readTotals(st)
	if err != nil {
		return nil, err
	}
	attrs := make([]tx.EventAttribute, 0, len(totals))
	for _, t := range totals {
		attrs = append(attrs, tx.EventAttribute{
			Key:   t.Asset,
			Value: new(uint256.Int).SetBytes(t.Amount).Dec(),
		})
	}
	return attrs, nil
}

func readTotals(st state.Reader) ([]total, error) {
	raw, err := st.NonverifiableGet(blockTotalsKey)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, nil
	}
	var totals []total
	if err := state.DecodeTyped(raw, state.TagFeeTotals, &totals); err != nil {
		return nil, err
	}
	return totals, nil
}

// Accrue adds the amount to the block's fee total of the asset, keeping
// the totals sorted by asset for determinism.
func Accrue(st state.ReadWriter, asset string, amount *uint256.Int) error {
	totals, err := readTotals(st)
	if err != nil {
		return err
	}
	i := sort.Search(len(totals), func(i int) bool { return totals[i].Asset >= asset })
	if i < len(totals) && totals[i].Asset == asset {
		sum := new(uint256.Int).SetBytes(totals[i].Amount)
		if _, overflow := sum.AddOverflow(sum, amount); overflow {
			return errors.Errorf("fee total overflow for asset %q", asset)
		}
		totals[i].Amount = sum.Bytes()
	} else {
		totals = append(totals, total{})
		copy(totals[i+1:], totals[i:])
		totals[i] = total{Asset: asset, Amount: amount.Bytes()}
	}
	enc, err := state.EncodeTyped(state.TagFeeTotals, totals)
	if err != nil {
		return err
	}
	st.NonverifiablePut(blockTotalsKey, enc)
	return nil
}

// Deduct charges the fee from the payer's balance and accrues it into the
// block totals. Insufficient balance reports ok=false without mutating.
func Deduct(st state.ReadWriter, payer arvo.Address, asset string, amount *uint256.Int) (ok bool, err error) {
	if amount.IsZero() {
		return true, nil
	}
	sufficient, err := accounts.SubBalance(st, payer, asset, amount)
	if err != nil || !sufficient {
		return false, err
	}
	if err := Accrue(st, asset, amount); err != nil {
		return false, err
	}
	st.EmitEvent(tx.NewEvent("fee.deduct",
		"payer", payer.String(),
		"asset", asset,
		"amount", amount.Dec(),
	))
	return true, nil
}
