// Copyright (c) 2025 The Arvo developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package action

import (
	"github.com/holiman/uint256"

	"github.com/arvo-network/arvo/component/accounts"
	"github.com/arvo-network/arvo/component/fees"
	"github.com/arvo-network/arvo/state"
	"github.com/arvo-network/arvo/tx"
)

// Every fee-bearing action settles through the same path: its fee is
// base + multiplier * payload size per the stored fee configuration of its
// kind, charged in the action's declared fee asset via fees.Deduct.

var zero = uint256.NewInt(0)

// feeAsset returns the action's declared fee asset, empty for the
// fee-exempt kinds.
func (c *CheckedAction) feeAsset() string {
	switch a := c.act.(type) {
	case *tx.Transfer:
		return a.FeeAsset
	case *tx.RollupDataSubmission:
		return a.FeeAsset
	case *tx.BridgeLock:
		return a.FeeAsset
	case *tx.InitBridgeAccount:
		return a.FeeAsset
	}
	return ""
}

// payloadSize is the byte count entering the multiplier term of the fee.
func (c *CheckedAction) payloadSize() int {
	switch a := c.act.(type) {
	case *tx.RollupDataSubmission:
		return len(a.Data)
	case *tx.BridgeLock:
		return len(a.DestinationChainAddress)
	}
	return 0
}

// fee computes the action's fee against the current fee configuration. A
// kind without stored components is fee-exempt.
func (c *CheckedAction) fee(st state.Reader) (asset string, amount *uint256.Int, err error) {
	asset = c.feeAsset()
	if asset == "" {
		return "", zero, nil
	}
	fc, err := fees.ComponentsFor(st, c.act.Kind())
	if err != nil {
		return "", nil, err
	}
	if fc == nil {
		return asset, zero, nil
	}
	return asset, fc.Cost(c.payloadSize()), nil
}

// checkFeeFunds verifies the fee asset is accepted and the signer can
// cover the fee alone. Combined amount+fee sufficiency for value-moving
// actions is checked by checkFunds. A declared fee asset must be allowed
// even when the charged fee works out to zero.
func (c *CheckedAction) checkFeeFunds(st state.Reader, asset string, fee *uint256.Int) error {
	if asset == "" {
		return nil
	}
	allowed, err := fees.IsAllowedAsset(st, asset)
	if err != nil {
		return err
	}
	if !allowed {
		return errValidationf("%v: fee asset %q not allowed", c.act.Kind(), asset)
	}
	if fee.IsZero() {
		return nil
	}
	balance, err := accounts.GetBalance(st, c.signer, asset)
	if err != nil {
		return err
	}
	if balance.Lt(fee) {
		return insufficientFundsError{asset: asset, needed: fee, have: balance}
	}
	return nil
}

// checkFunds verifies the signer can cover the transferred amount, and
// the fee on top of it when both are denominated in the same asset.
func (c *CheckedAction) checkFunds(st state.Reader, asset string, amount *uint256.Int, feeAsset string, fee *uint256.Int) error {
	needed := amount
	if asset == feeAsset && !fee.IsZero() {
		var overflow bool
		if needed, overflow = new(uint256.Int).AddOverflow(amount, fee); overflow {
			return errValidationf("%v: amount plus fee overflows", c.act.Kind())
		}
	}
	balance, err := accounts.GetBalance(st, c.signer, asset)
	if err != nil {
		return err
	}
	if balance.Lt(needed) {
		return insufficientFundsError{asset: asset, needed: needed, have: balance}
	}
	return nil
}
