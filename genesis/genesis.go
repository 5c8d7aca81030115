// Copyright (c) 2025 The Arvo developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package genesis defines the application genesis document consumed by the
// engine's init-chain path.
package genesis

import (
	"encoding/json"
	"math/big"
	"os"

	"github.com/pkg/errors"

	"github.com/arvo-network/arvo/arvo"
)

// AppState is the user-facing genesis document.
type AppState struct {
	ChainID          string                   `json:"chainId"`
	AddressPrefix    string                   `json:"addressPrefix"`
	NativeAsset      string                   `json:"nativeAsset"`
	SudoAddress      string                   `json:"sudoAddress"`
	IBCSudoAddress   string                   `json:"ibcSudoAddress"`
	IBCRelayers      []string                 `json:"ibcRelayers,omitempty"`
	AllowedFeeAssets []string                 `json:"allowedFeeAssets"`
	Accounts         []Account                `json:"accounts"`
	Validators       []Validator              `json:"validators,omitempty"`
	Fees             map[string]FeeComponents `json:"fees"`
}

// Account is one genesis account allocation.
type Account struct {
	Address string   `json:"address"`
	Balance *big.Int `json:"balance"`
}

// Validator is one genesis validator.
type Validator struct {
	Address string `json:"address"`
	Power   uint64 `json:"power"`
}

// FeeComponents is the wire form of one action kind's fee configuration.
// The charged fee is base + multiplier * payload byte length.
type FeeComponents struct {
	Base       *big.Int `json:"base"`
	Multiplier *big.Int `json:"multiplier"`
}

// Load reads and validates an app state document from the given file.
func Load(path string) (*AppState, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read genesis file")
	}
	var app AppState
	if err := json.Unmarshal(raw, &app); err != nil {
		return nil, errors.Wrap(err, "unmarshal genesis file")
	}
	if err := app.Validate(); err != nil {
		return nil, err
	}
	return &app, nil
}

// Validate performs structural validation of the document.
func (a *AppState) Validate() error {
	if a.ChainID == "" {
		return errors.New("chainId must be set")
	}
	if a.AddressPrefix == "" {
		return errors.New("addressPrefix must be set")
	}
	if a.NativeAsset == "" {
		return errors.New("nativeAsset must be set")
	}
	if _, err := a.ParseAddress(a.SudoAddress); err != nil {
		return errors.WithMessage(err, "sudoAddress")
	}
	if _, err := a.ParseAddress(a.IBCSudoAddress); err != nil {
		return errors.WithMessage(err, "ibcSudoAddress")
	}
	for _, r := range a.IBCRelayers {
		if _, err := a.ParseAddress(r); err != nil {
			return errors.WithMessage(err, "ibcRelayers")
		}
	}
	for _, acc := range a.Accounts {
		if _, err := a.ParseAddress(acc.Address); err != nil {
			return errors.WithMessage(err, "accounts")
		}
		if acc.Balance == nil || acc.Balance.Sign() < 0 {
			return errors.Errorf("%s: balance must be a non-negative integer", acc.Address)
		}
	}
	for _, v := range a.Validators {
		if _, err := a.ParseAddress(v.Address); err != nil {
			return errors.WithMessage(err, "validators")
		}
		if v.Power == 0 {
			return errors.Errorf("%s: validator power must be positive", v.Address)
		}
	}
	for name, fc := range a.Fees {
		if fc.Base == nil || fc.Base.Sign() < 0 || fc.Multiplier == nil || fc.Multiplier.Sign() < 0 {
			return errors.Errorf("fees.%s: base and multiplier must be non-negative", name)
		}
	}
	return nil
}

// ParseAddress parses a textual address and checks it carries the
// document's address prefix.
func (a *AppState) ParseAddress(s string) (arvo.Address, error) {
	prefix, addr, err := arvo.ParseAddress(s)
	if err != nil {
		return arvo.Address{}, err
	}
	if prefix != a.AddressPrefix {
		return arvo.Address{}, errors.Errorf("address %q: prefix %q, want %q", s, prefix, a.AddressPrefix)
	}
	return addr, nil
}
