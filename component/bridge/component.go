// Copyright (c) 2025 The Arvo developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package bridge

import (
	"strconv"

	"github.com/arvo-network/arvo/component"
	"github.com/arvo-network/arvo/genesis"
	"github.com/arvo-network/arvo/state"
	"github.com/arvo-network/arvo/tx"
)

// Bridge is the bridge and IBC authority component.
type Bridge struct{}

var _ component.Component = (*Bridge)(nil)

// Name implements component.Component.
func (*Bridge) Name() string { return "bridge" }

// InitChain seeds the IBC sudo address and the relayer set.
func (*Bridge) InitChain(st state.ReadWriter, app *genesis.AppState) error {
	sudo, err := app.ParseAddress(app.IBCSudoAddress)
	if err != nil {
		return err
	}
	SetIBCSudoAddress(st, sudo)

	for _, r := range app.IBCRelayers {
		addr, err := app.ParseAddress(r)
		if err != nil {
			return err
		}
		SetRelayer(st, addr, true)
	}
	return nil
}

// BeginBlock implements component.Component.
func (*Bridge) BeginBlock(_ state.ReadWriter, _ *component.BeginBlockContext) error {
	return nil
}

// EndBlock emits one event per deposit recorded in this block and clears
// the record for the next block.
func (*Bridge) EndBlock(st state.ReadWriter) ([]component.ValidatorUpdate, error) {
	deps, err := BlockDeposits(st)
	if err != nil {
		return nil, err
	}
	if len(deps) == 0 {
		return nil, nil
	}
	st.NonverifiableDelete(blockDepositsKey)

	for i := range deps {
		dep := &deps[i]
		st.EmitEvent(tx.NewEvent("bridge.deposit",
			"index", strconv.Itoa(i),
			"bridge", dep.Bridge.String(),
			"rollup", dep.RollupID.String(),
			"asset", dep.Asset,
			"amount", dep.DepositAmount().Dec(),
			"origin", dep.Origin.String(),
			"destination", dep.DestinationChainAddress,
			"sourceTx", dep.SourceTxID.String(),
		))
	}
	return nil, nil
}
