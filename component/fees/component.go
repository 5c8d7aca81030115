// Copyright (c) 2025 The Arvo developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package fees

import (
	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/arvo-network/arvo/component"
	"github.com/arvo-network/arvo/genesis"
	"github.com/arvo-network/arvo/state"
	"github.com/arvo-network/arvo/tx"
)

// Fees is the fee configuration and accounting component.
type Fees struct{}

var _ component.Component = (*Fees)(nil)

// Name implements component.Component.
func (*Fees) Name() string { return "fees" }

// InitChain seeds the fee configuration and the allowed fee assets.
func (*Fees) InitChain(st state.ReadWriter, app *genesis.AppState) error {
	for name, fc := range app.Fees {
		kind, err := tx.ParseActionKind(name)
		if err != nil {
			return err
		}
		base, overflow := uint256.FromBig(fc.Base)
		if overflow {
			return errors.Errorf("%s: base fee too large", name)
		}
		multiplier, overflow := uint256.FromBig(fc.Multiplier)
		if overflow {
			return errors.Errorf("%s: fee multiplier too large", name)
		}
		if err := SetComponents(st, kind, &Components{Base: base, Multiplier: multiplier}); err != nil {
			return err
		}
	}
	for _, asset := range app.AllowedFeeAssets {
		SetAllowedAsset(st, asset, true)
	}
	return nil
}

// BeginBlock implements component.Component.
func (*Fees) BeginBlock(_ state.ReadWriter, _ *component.BeginBlockContext) error {
	return nil
}

// EndBlock emits the block's fee totals as a single event and clears the
// accumulator for the next block.
func (*Fees) EndBlock(st state.ReadWriter) ([]component.ValidatorUpdate, error) {
	attrs, err := BlockTotals(st)
	if err != nil {
		return nil, err
	}
	if len(attrs) == 0 {
		return nil, nil
	}
	st.NonverifiableDelete(blockTotalsKey)
	st.EmitEvent(tx.Event{Type: "block.fees", Attributes: attrs})
	return nil, nil
}
