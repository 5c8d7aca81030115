// Copyright (c) 2025 The Arvo developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package action implements the validate-then-execute pipeline over the
// closed action set.
//
// Construct runs stateless, immutable-state and mutable-state checks in
// order and yields an immutable CheckedAction. Execute re-runs the mutable
// checks against the state it is given before the first write: an action
// constructed early in a block may be executed after other actions have
// changed the relevant state. All checks precede all writes, so a rejected
// action leaves no partial effects.
package action

import (
	"github.com/holiman/uint256"

	"github.com/arvo-network/arvo/arvo"
	"github.com/arvo-network/arvo/component/accounts"
	"github.com/arvo-network/arvo/component/authority"
	"github.com/arvo-network/arvo/component/bridge"
	"github.com/arvo-network/arvo/component/fees"
	"github.com/arvo-network/arvo/state"
	"github.com/arvo-network/arvo/tx"
	"github.com/arvo-network/arvo/xenv"
)

// State is the mutable view an action executes against. Ephemeral objects
// carry the block context and the IBC module handle.
type State interface {
	state.ReadWriter
	xenv.ObjectReader
}

// CheckedAction is a validated, executable action. It is immutable after
// construction; addresses are resolved once, mutable state is re-checked
// at execution time.
type CheckedAction struct {
	act    tx.Action
	signer arvo.Address

	// destination or subject address, resolved during the immutable
	// checks for the kinds that carry a textual address
	addr arvo.Address
}

// Act returns the underlying action.
func (c *CheckedAction) Act() tx.Action { return c.act }

// Signer returns the resolved signer.
func (c *CheckedAction) Signer() arvo.Address { return c.signer }

// Construct validates the raw action against st and wraps it. st is the
// latest committed snapshot on the admission path, or the live block view
// during block execution.
func Construct(raw tx.Action, signer arvo.Address, st state.Reader) (*CheckedAction, error) {
	c := &CheckedAction{act: raw, signer: signer}

	if err := c.checkStateless(); err != nil {
		return nil, err
	}
	if err := c.checkImmutable(st); err != nil {
		return nil, err
	}
	if err := c.checkMutable(st); err != nil {
		return nil, err
	}
	return c, nil
}

// checkStateless validates syntactic constraints on the action alone.
func (c *CheckedAction) checkStateless() error {
	switch a := c.act.(type) {
	case *tx.Transfer:
		if a.Amount == nil {
			return errValidationf("transfer: amount not set")
		}
		if a.Asset == "" {
			return errValidationf("transfer: empty asset")
		}
	case *tx.RollupDataSubmission:
		if len(a.Data) == 0 {
			return errValidationf("rollup data submission: empty data")
		}
		if a.RollupID.IsZero() {
			return errValidationf("rollup data submission: zero rollup id")
		}
	case *tx.BridgeLock:
		if a.Amount == nil {
			return errValidationf("bridge lock: amount not set")
		}
		if a.DestinationChainAddress == "" {
			return errValidationf("bridge lock: empty destination chain address")
		}
	case *tx.InitBridgeAccount:
		if a.RollupID.IsZero() {
			return errValidationf("init bridge account: zero rollup id")
		}
		if a.Asset == "" {
			return errValidationf("init bridge account: empty asset")
		}
	case *tx.SudoAddressChange, *tx.IbcSudoChange, *tx.IbcRelayerChange:
		// address syntax is prefix-dependent, checked as immutable state
	case *tx.IbcRelay:
		if len(a.Data) == 0 {
			return errValidationf("ibc relay: empty data")
		}
	case *tx.FeeChange:
		if a.Target.String() == "unknown" {
			return errValidationf("fee change: unknown target kind")
		}
		if a.Base == nil || a.Multiplier == nil {
			return errValidationf("fee change: fee components not set")
		}
	case *tx.FeeAssetChange:
		if a.Asset == "" {
			return errValidationf("fee asset change: empty asset")
		}
	case *tx.ValidatorUpdate:
		// nothing beyond the address, checked as immutable state
	}
	return nil
}

// checkImmutable validates against state fixed for the whole chain: the
// base address prefix set at genesis. Textual addresses are resolved here.
func (c *CheckedAction) checkImmutable(st state.Reader) error {
	prefix, err := accounts.BasePrefix(st)
	if err != nil {
		return err
	}

	resolve := func(s, what string) error {
		p, addr, err := arvo.ParseAddress(s)
		if err != nil {
			return errValidationf("%s: %v", what, err)
		}
		if p != prefix {
			return errValidationf("%s: address prefix %q, want %q", what, p, prefix)
		}
		c.addr = addr
		return nil
	}

	switch a := c.act.(type) {
	case *tx.Transfer:
		return resolve(a.To, "transfer destination")
	case *tx.BridgeLock:
		return resolve(a.To, "bridge lock destination")
	case *tx.SudoAddressChange:
		return resolve(a.NewAddress, "new sudo address")
	case *tx.IbcSudoChange:
		return resolve(a.NewAddress, "new ibc sudo address")
	case *tx.IbcRelayerChange:
		return resolve(a.Address, "relayer address")
	case *tx.ValidatorUpdate:
		return resolve(a.Address, "validator address")
	}
	return nil
}

// checkMutable validates against state other actions in the same block may
// have changed. Run at construction as an optimistic gate and again,
// mandatorily, at execution.
func (c *CheckedAction) checkMutable(st state.Reader) error {
	feeAsset, fee, err := c.fee(st)
	if err != nil {
		return err
	}
	if err := c.checkFeeFunds(st, feeAsset, fee); err != nil {
		return err
	}

	switch a := c.act.(type) {
	case *tx.Transfer:
		if acc, err := bridge.GetAccount(st, c.signer); err != nil {
			return err
		} else if acc != nil {
			return errAuthorizationf("transfer: signer %v is a bridge account", c.signer)
		}
		return c.checkFunds(st, a.Asset, a.Amount, feeAsset, fee)

	case *tx.RollupDataSubmission:
		// fee funds only, checked above

	case *tx.BridgeLock:
		acc, err := bridge.GetAccount(st, c.addr)
		if err != nil {
			return err
		}
		if acc == nil {
			return errAuthorizationf("bridge lock: destination %v is not a bridge account", c.addr)
		}
		if acc.Asset != a.Asset {
			return errAuthorizationf("bridge lock: asset %q, bridge accepts %q", a.Asset, acc.Asset)
		}
		return c.checkFunds(st, a.Asset, a.Amount, feeAsset, fee)

	case *tx.InitBridgeAccount:
		acc, err := bridge.GetAccount(st, c.signer)
		if err != nil {
			return err
		}
		if acc != nil {
			return errAuthorizationf("init bridge account: bridge account already exists for %v", c.signer)
		}

	case *tx.SudoAddressChange:
		return c.requireSudo(st, "sudo address change")

	case *tx.IbcSudoChange:
		return c.requireIBCSudo(st, "ibc sudo change")

	case *tx.IbcRelayerChange:
		return c.requireIBCSudo(st, "ibc relayer change")

	case *tx.IbcRelay:
		ok, err := bridge.IsRelayer(st, c.signer)
		if err != nil {
			return err
		}
		if !ok {
			return errAuthorizationf("ibc relay: signer %v is not a registered relayer", c.signer)
		}

	case *tx.FeeChange:
		return c.requireSudo(st, "fee change")

	case *tx.FeeAssetChange:
		return c.requireSudo(st, "fee asset change")

	case *tx.ValidatorUpdate:
		return c.requireSudo(st, "validator update")
	}
	return nil
}

func (c *CheckedAction) requireSudo(st state.Reader, what string) error {
	sudo, err := authority.SudoAddress(st)
	if err != nil {
		return err
	}
	if c.signer != sudo {
		return errAuthorizationf("%s: signer %v is not the sudo address", what, c.signer)
	}
	return nil
}

func (c *CheckedAction) requireIBCSudo(st state.Reader, what string) error {
	sudo, err := bridge.IBCSudoAddress(st)
	if err != nil {
		return err
	}
	if c.signer != sudo {
		return errAuthorizationf("%s: signer %v is not the ibc sudo address", what, c.signer)
	}
	return nil
}

// Execute re-runs the mutable checks against st and applies the action's
// effects. Check failures reject without any write.
func (c *CheckedAction) Execute(st State) error {
	if err := c.checkMutable(st); err != nil {
		return err
	}

	feeAsset, fee, err := c.fee(st)
	if err != nil {
		return err
	}
	if !fee.IsZero() {
		// sufficiency was just re-checked; failure here is a fault
		ok, err := fees.Deduct(st, c.signer, feeAsset, fee)
		if err != nil {
			return err
		}
		if !ok {
			return insufficientFundsError{asset: feeAsset, needed: fee}
		}
	}
	return c.apply(st)
}

// apply performs the action's writes. The mutable checks have passed
// against the same state immediately before.
func (c *CheckedAction) apply(st State) error {
	switch a := c.act.(type) {
	case *tx.Transfer:
		if ok, err := accounts.SubBalance(st, c.signer, a.Asset, a.Amount); err != nil {
			return err
		} else if !ok {
			return insufficientFundsError{asset: a.Asset, needed: a.Amount}
		}
		if err := accounts.AddBalance(st, c.addr, a.Asset, a.Amount); err != nil {
			return err
		}
		st.EmitEvent(tx.NewEvent("account.transfer",
			"from", c.signer.String(),
			"to", c.addr.String(),
			"asset", a.Asset,
			"amount", a.Amount.Dec(),
		))

	case *tx.RollupDataSubmission:
		st.EmitEvent(tx.NewEvent("rollup.data",
			"rollup", a.RollupID.String(),
			"digest", arvo.Blake2b(a.Data).String(),
		))

	case *tx.BridgeLock:
		acc, err := bridge.GetAccount(st, c.addr)
		if err != nil {
			return err
		}
		if ok, err := accounts.SubBalance(st, c.signer, a.Asset, a.Amount); err != nil {
			return err
		} else if !ok {
			return insufficientFundsError{asset: a.Asset, needed: a.Amount}
		}
		if err := accounts.AddBalance(st, c.addr, a.Asset, a.Amount); err != nil {
			return err
		}
		var sourceTx arvo.Bytes32
		if txc := xenv.TxContextOf(st); txc != nil {
			sourceTx = txc.ID
		}
		if err := bridge.RecordDeposit(st, &bridge.Deposit{
			Bridge:                  c.addr,
			RollupID:                acc.RollupID,
			Asset:                   a.Asset,
			Amount:                  a.Amount.Bytes(),
			Origin:                  c.signer,
			DestinationChainAddress: a.DestinationChainAddress,
			SourceTxID:              sourceTx,
		}); err != nil {
			return err
		}
		st.EmitEvent(tx.NewEvent("bridge.lock",
			"from", c.signer.String(),
			"bridge", c.addr.String(),
			"asset", a.Asset,
			"amount", a.Amount.Dec(),
			"destination", a.DestinationChainAddress,
		))

	case *tx.InitBridgeAccount:
		if err := bridge.SetAccount(st, c.signer, &bridge.Account{
			RollupID: a.RollupID,
			Asset:    a.Asset,
		}); err != nil {
			return err
		}
		st.EmitEvent(tx.NewEvent("bridge.init",
			"bridge", c.signer.String(),
			"rollup", a.RollupID.String(),
			"asset", a.Asset,
		))

	case *tx.SudoAddressChange:
		authority.SetSudoAddress(st, c.addr)
		st.EmitEvent(tx.NewEvent("authority.sudo_change",
			"previous", c.signer.String(),
			"new", c.addr.String(),
		))

	case *tx.IbcSudoChange:
		bridge.SetIBCSudoAddress(st, c.addr)
		st.EmitEvent(tx.NewEvent("ibc.sudo_change",
			"previous", c.signer.String(),
			"new", c.addr.String(),
		))

	case *tx.IbcRelayerChange:
		bridge.SetRelayer(st, c.addr, !a.Remove)
		st.EmitEvent(tx.NewEvent("ibc.relayer_change",
			"relayer", c.addr.String(),
			"removed", boolString(a.Remove),
		))

	case *tx.IbcRelay:
		mod, ok := st.Object(xenv.IBCModuleKey)
		if !ok {
			return errValidationf("ibc relay: no ibc module available")
		}
		events, err := mod.(bridge.Module).Relay(xenv.BlockContextOf(st), st, a.Data)
		if err != nil {
			return err
		}
		for _, ev := range events {
			st.EmitEvent(ev)
		}

	case *tx.FeeChange:
		if err := fees.SetComponents(st, a.Target, &fees.Components{
			Base:       a.Base,
			Multiplier: a.Multiplier,
		}); err != nil {
			return err
		}
		st.EmitEvent(tx.NewEvent("fees.change",
			"target", a.Target.String(),
			"base", a.Base.Dec(),
			"multiplier", a.Multiplier.Dec(),
		))

	case *tx.FeeAssetChange:
		fees.SetAllowedAsset(st, a.Asset, !a.Remove)
		st.EmitEvent(tx.NewEvent("fees.asset_change",
			"asset", a.Asset,
			"removed", boolString(a.Remove),
		))

	case *tx.ValidatorUpdate:
		if err := authority.RecordUpdate(st, c.addr, a.Power); err != nil {
			return err
		}
		st.EmitEvent(tx.NewEvent("authority.validator_update",
			"validator", c.addr.String(),
			"power", uint256.NewInt(a.Power).Dec(),
		))
	}
	return nil
}

func boolString(v bool) string {
	if v {
		return "true"
	}
	return "false"
}
