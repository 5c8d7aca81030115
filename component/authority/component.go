// Copyright (c) 2025 The Arvo developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package authority

import (
	"github.com/arvo-network/arvo/component"
	"github.com/arvo-network/arvo/genesis"
	"github.com/arvo-network/arvo/state"
)

// Authority is the sudo and validator-set component.
type Authority struct{}

var _ component.Component = (*Authority)(nil)

// Name implements component.Component.
func (*Authority) Name() string { return "authority" }

// InitChain seeds the sudo address and the genesis validator set.
func (*Authority) InitChain(st state.ReadWriter, app *genesis.AppState) error {
	sudo, err := app.ParseAddress(app.SudoAddress)
	if err != nil {
		return err
	}
	SetSudoAddress(st, sudo)

	for _, v := range app.Validators {
		addr, err := app.ParseAddress(v.Address)
		if err != nil {
			return err
		}
		SetValidatorPower(st, addr, v.Power)
	}
	return nil
}

// BeginBlock removes validators reported byzantine by consensus. The
// removals are recorded as pending updates so consensus sees them at end
// of block like any other change.
func (*Authority) BeginBlock(st state.ReadWriter, ctx *component.BeginBlockContext) error {
	for _, addr := range ctx.Byzantine {
		power, err := ValidatorPower(st, addr)
		if err != nil {
			return err
		}
		if power == 0 {
			continue
		}
		SetValidatorPower(st, addr, 0)
		if err := RecordUpdate(st, addr, 0); err != nil {
			return err
		}
	}
	return nil
}

// EndBlock drains the block's accumulated validator updates, applies them
// to the stored set and reports them to consensus.
func (*Authority) EndBlock(st state.ReadWriter) ([]component.ValidatorUpdate, error) {
	ups, err := PendingUpdates(st)
	if err != nil {
		return nil, err
	}
	if len(ups) == 0 {
		return nil, nil
	}
	st.NonverifiableDelete(pendingUpdatesKey)

	out := make([]component.ValidatorUpdate, 0, len(ups))
	for _, u := range ups {
		SetValidatorPower(st, u.Address, u.Power)
		out = append(out, component.ValidatorUpdate{Address: u.Address, Power: u.Power})
	}
	return out, nil
}
