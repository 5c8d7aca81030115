// Copyright (c) 2025 The Arvo developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package component defines the block lifecycle hooks which mutate
// block-level state outside of individual transactions.
package component

import (
	"github.com/arvo-network/arvo/arvo"
	"github.com/arvo-network/arvo/genesis"
	"github.com/arvo-network/arvo/state"
	"github.com/arvo-network/arvo/xenv"
)

// BeginBlockContext is handed to the begin-block hooks.
type BeginBlockContext struct {
	Block *xenv.BlockContext
	// Byzantine are validators reported as misbehaving by consensus;
	// they are removed from the active set before any transaction runs.
	Byzantine []arvo.Address
}

// ValidatorUpdate is one validator-set change to report back to consensus.
// Power 0 removes the validator.
type ValidatorUpdate struct {
	Address arvo.Address
	Power   uint64
}

// Component is the lifecycle of one state module.
type Component interface {
	// Name identifies the component in logs.
	Name() string

	// InitChain seeds genesis state. Called exactly once before any block,
	// write-only.
	InitChain(st state.ReadWriter, app *genesis.AppState) error

	// BeginBlock runs before any transaction of the block.
	BeginBlock(st state.ReadWriter, ctx *BeginBlockContext) error

	// EndBlock runs after all transactions of the block. Validator set
	// changes to report are returned by the authority component, nil by
	// the others.
	EndBlock(st state.ReadWriter) ([]ValidatorUpdate, error)
}
