// Copyright (c) 2025 The Arvo developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package action

import (
	"github.com/pkg/errors"

	"github.com/arvo-network/arvo/arvo"
	"github.com/arvo-network/arvo/component/accounts"
	"github.com/arvo-network/arvo/state"
	"github.com/arvo-network/arvo/tx"
)

// ScreenTx runs the construction path over every action of the
// transaction without executing anything. It is the admission-time gate,
// run against the latest committed snapshot; passing it is optimistic and
// does not guarantee the transaction survives execution.
//
// The nonce gate is >= rather than ==: a resident transaction may be
// queued behind others from the same account.
func ScreenTx(st state.Reader, trx *tx.Transaction) error {
	if size := trx.Size(); size > arvo.MaxTxSize {
		return Validationf("tx size %d exceeds %d", size, arvo.MaxTxSize)
	}

	chainID, err := accounts.ChainID(st)
	if err != nil {
		return err
	}
	if trx.ChainID() != chainID {
		return Validationf("chain id %q, want %q", trx.ChainID(), chainID)
	}

	nonce, err := accounts.GetNonce(st, trx.Signer())
	if err != nil {
		return err
	}
	if trx.Nonce() < nonce {
		return Validationf("nonce %d below account nonce %d", trx.Nonce(), nonce)
	}

	acts, err := trx.Actions()
	if err != nil {
		return Validationf("decode actions: %v", err)
	}
	if len(acts) == 0 {
		return Validationf("no actions")
	}
	if len(acts) > arvo.MaxActionsPerTx {
		return Validationf("%d actions exceeds %d", len(acts), arvo.MaxActionsPerTx)
	}
	for i, act := range acts {
		if _, err := Construct(act, trx.Signer(), st); err != nil {
			return errors.WithMessagef(err, "action %d (%v)", i, act.Kind())
		}
	}
	return nil
}
