// Copyright (c) 2025 The Arvo developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package accounts

import (
	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/arvo-network/arvo/component"
	"github.com/arvo-network/arvo/genesis"
	"github.com/arvo-network/arvo/state"
)

// Accounts is the balances component.
type Accounts struct{}

var _ component.Component = (*Accounts)(nil)

// Name implements component.Component.
func (*Accounts) Name() string { return "accounts" }

// InitChain seeds the immutable chain parameters and the genesis balances,
// denominated in the native asset.
func (*Accounts) InitChain(st state.ReadWriter, app *genesis.AppState) error {
	st.Put(chainIDKey, state.EncodeText(app.ChainID))
	st.Put(basePrefixKey, state.EncodeText(app.AddressPrefix))
	st.Put(nativeAssetKey, state.EncodeText(app.NativeAsset))

	for _, acc := range app.Accounts {
		addr, err := app.ParseAddress(acc.Address)
		if err != nil {
			return err
		}
		balance, overflow := uint256.FromBig(acc.Balance)
		if overflow {
			return errors.Errorf("%s: balance too large", acc.Address)
		}
		SetBalance(st, addr, app.NativeAsset, balance)
	}
	return nil
}

// BeginBlock implements component.Component.
func (*Accounts) BeginBlock(_ state.ReadWriter, _ *component.BeginBlockContext) error {
	return nil
}

// EndBlock implements component.Component.
func (*Accounts) EndBlock(_ state.ReadWriter) ([]component.ValidatorUpdate, error) {
	return nil, nil
}
