// Copyright (c) 2025 The Arvo developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package tx

import (
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/arvo-network/arvo/arvo"
)

// ActionKind identifies an action variant. The set of variants is closed;
// decoding and dispatch are exhaustive over it.
type ActionKind uint8

const (
	KindTransfer ActionKind = iota + 1
	KindRollupDataSubmission
	KindBridgeLock
	KindInitBridgeAccount
	KindSudoAddressChange
	KindIbcSudoChange
	KindIbcRelayerChange
	KindIbcRelay
	KindFeeChange
	KindFeeAssetChange
	KindValidatorUpdate
)

// String returns the canonical name of the kind, which is also the key
// suffix of its fee configuration.
func (k ActionKind) String() string {
	switch k {
	case KindTransfer:
		return "transfer"
	case KindRollupDataSubmission:
		return "rollup_data_submission"
	case KindBridgeLock:
		return "bridge_lock"
	case KindInitBridgeAccount:
		return "init_bridge_account"
	case KindSudoAddressChange:
		return "sudo_address_change"
	case KindIbcSudoChange:
		return "ibc_sudo_change"
	case KindIbcRelayerChange:
		return "ibc_relayer_change"
	case KindIbcRelay:
		return "ibc_relay"
	case KindFeeChange:
		return "fee_change"
	case KindFeeAssetChange:
		return "fee_asset_change"
	case KindValidatorUpdate:
		return "validator_update"
	}
	return "unknown"
}

// ParseActionKind resolves a kind name as produced by String.
func ParseActionKind(name string) (ActionKind, error) {
	for k := KindTransfer; k <= KindValidatorUpdate; k++ {
		if k.String() == name {
			return k, nil
		}
	}
	return 0, errors.Errorf("unknown action kind %q", name)
}

// Action is one variant of the closed action set.
type Action interface {
	Kind() ActionKind
}

// Transfer moves amount of asset from the signer to the destination account.
type Transfer struct {
	To       string // textual destination address, must carry the chain's base prefix
	Asset    string
	Amount   *uint256.Int
	FeeAsset string
}

func (*Transfer) Kind() ActionKind { return KindTransfer }

// RollupDataSubmission posts opaque data for a rollup. It touches no account
// state besides fees.
type RollupDataSubmission struct {
	RollupID arvo.Bytes32
	Data     []byte
	FeeAsset string
}

func (*RollupDataSubmission) Kind() ActionKind { return KindRollupDataSubmission }

// BridgeLock locks amount of asset into a registered bridge account,
// recording a deposit for the bridge's rollup.
type BridgeLock struct {
	To                      string // bridge account address
	Asset                   string
	Amount                  *uint256.Int
	FeeAsset                string
	DestinationChainAddress string
}

func (*BridgeLock) Kind() ActionKind { return KindBridgeLock }

// InitBridgeAccount registers the signer as a bridge account for a rollup.
type InitBridgeAccount struct {
	RollupID arvo.Bytes32
	Asset    string
	FeeAsset string
}

func (*InitBridgeAccount) Kind() ActionKind { return KindInitBridgeAccount }

// SudoAddressChange rotates the chain's sudo address. Signer must be the
// currently stored sudo address.
type SudoAddressChange struct {
	NewAddress string
}

func (*SudoAddressChange) Kind() ActionKind { return KindSudoAddressChange }

// IbcSudoChange rotates the IBC sudo address.
type IbcSudoChange struct {
	NewAddress string
}

func (*IbcSudoChange) Kind() ActionKind { return KindIbcSudoChange }

// IbcRelayerChange adds or removes an IBC relayer.
type IbcRelayerChange struct {
	Address string
	Remove  bool
}

func (*IbcRelayerChange) Kind() ActionKind { return KindIbcRelayerChange }

// IbcRelay carries an opaque IBC message for the embedded bridge module.
type IbcRelay struct {
	Data []byte
}

func (*IbcRelay) Kind() ActionKind { return KindIbcRelay }

// FeeChange updates the fee components of one action kind.
type FeeChange struct {
	Target     ActionKind
	Base       *uint256.Int
	Multiplier *uint256.Int
}

func (*FeeChange) Kind() ActionKind { return KindFeeChange }

// FeeAssetChange adds or removes an asset from the allowed fee asset set.
type FeeAssetChange struct {
	Asset  string
	Remove bool
}

func (*FeeAssetChange) Kind() ActionKind { return KindFeeAssetChange }

// ValidatorUpdate changes the power of one validator; power 0 removes it.
// The update takes effect at end of block.
type ValidatorUpdate struct {
	Address string
	Power   uint64
}

func (*ValidatorUpdate) Kind() ActionKind { return KindValidatorUpdate }

// actionEnvelope is the wire form of one action: a kind tag plus the
// RLP encoded variant payload.
type actionEnvelope struct {
	Kind    uint8
	Payload []byte
}

func sealAction(a Action) (*actionEnvelope, error) {
	payload, err := rlp.EncodeToBytes(a)
	if err != nil {
		return nil, errors.Wrap(err, "encode action payload")
	}
	return &actionEnvelope{Kind: uint8(a.Kind()), Payload: payload}, nil
}

func (e *actionEnvelope) open() (Action, error) {
	var a Action
	switch ActionKind(e.Kind) {
	case KindTransfer:
		a = new(Transfer)
	case KindRollupDataSubmission:
		a = new(RollupDataSubmission)
	case KindBridgeLock:
		a = new(BridgeLock)
	case KindInitBridgeAccount:
		a = new(InitBridgeAccount)
	case KindSudoAddressChange:
		a = new(SudoAddressChange)
	case KindIbcSudoChange:
		a = new(IbcSudoChange)
	case KindIbcRelayerChange:
		a = new(IbcRelayerChange)
	case KindIbcRelay:
		a = new(IbcRelay)
	case KindFeeChange:
		a = new(FeeChange)
	case KindFeeAssetChange:
		a = new(FeeAssetChange)
	case KindValidatorUpdate:
		a = new(ValidatorUpdate)
	default:
		return nil, errors.Errorf("unknown action kind %d", e.Kind)
	}
	if err := rlp.DecodeBytes(e.Payload, a); err != nil {
		return nil, errors.Wrapf(err, "decode %v action", ActionKind(e.Kind))
	}
	return a, nil
}
