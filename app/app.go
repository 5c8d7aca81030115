// Copyright (c) 2025 The Arvo developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package app is the consensus-facing state transition engine. It drives
// genesis, the per-block hook/execute/commit cycle and admission-time
// transaction screening over the layered store.
package app

import (
	"sync"

	"github.com/ethereum/go-ethereum/log"
	"github.com/pkg/errors"

	"github.com/arvo-network/arvo/action"
	"github.com/arvo-network/arvo/arvo"
	"github.com/arvo-network/arvo/component"
	"github.com/arvo-network/arvo/component/accounts"
	"github.com/arvo-network/arvo/component/authority"
	"github.com/arvo-network/arvo/component/bridge"
	"github.com/arvo-network/arvo/component/fees"
	"github.com/arvo-network/arvo/genesis"
	"github.com/arvo-network/arvo/metrics"
	"github.com/arvo-network/arvo/state"
	"github.com/arvo-network/arvo/store"
	"github.com/arvo-network/arvo/tx"
	"github.com/arvo-network/arvo/xenv"
)

var (
	logger = log.New("pkg", "app")

	metricTxExecuted = metrics.LazyLoadCounter("app_tx_executed_count")
	metricTxRejected = metrics.LazyLoadCounter("app_tx_rejected_count")
)

// Options configures optional collaborators of the engine.
type Options struct {
	// IBCModule handles relayed IBC messages. Defaults to the recording
	// stand-in when nil.
	IBCModule bridge.Module
}

// App processes blocks one at a time: exactly one block transaction is
// live between BeginBlock and Commit, and the next block cannot begin
// until the previous one has committed.
type App struct {
	store      *store.Store
	components []component.Component
	ibcModule  bridge.Module

	mu       sync.Mutex
	btx      *state.BlockTxn
	blockCtx *xenv.BlockContext
}

// New creates the engine over the given store and component set.
func New(s *store.Store, components []component.Component, opts Options) *App {
	ibcModule := opts.IBCModule
	if ibcModule == nil {
		ibcModule = &bridge.RecordingModule{}
	}
	return &App{
		store:      s,
		components: components,
		ibcModule:  ibcModule,
	}
}

// DefaultComponents returns the builtin component set in hook order.
func DefaultComponents() []component.Component {
	return []component.Component{
		&accounts.Accounts{},
		&authority.Authority{},
		&fees.Fees{},
		&bridge.Bridge{},
	}
}

// InitChain seeds genesis state and commits it as version 1. It must be
// called exactly once, on an empty store, before any block.
func (a *App) InitChain(appState *genesis.AppState) (arvo.Bytes32, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if v := a.store.LatestVersion(); v != 0 {
		return arvo.Bytes32{}, errors.Errorf("init chain: store already at version %d", v)
	}
	if err := appState.Validate(); err != nil {
		return arvo.Bytes32{}, errors.WithMessage(err, "init chain")
	}

	snap, err := a.store.LatestSnapshot()
	if err != nil {
		return arvo.Bytes32{}, err
	}
	btx, err := state.NewBlockTxn(snap)
	if err != nil {
		return arvo.Bytes32{}, err
	}
	for _, c := range a.components {
		if err := c.InitChain(btx, appState); err != nil {
			return arvo.Bytes32{}, errors.WithMessagef(err, "init chain: component %s", c.Name())
		}
	}
	root, err := a.store.Commit(btx)
	if err != nil {
		return arvo.Bytes32{}, err
	}
	logger.Info("chain initialized", "chain", appState.ChainID, "root", root.AbbrevString())
	return root, nil
}

// BeginBlock opens the block transaction for the next version and runs the
// components' begin-block hooks. It fails while a block is in progress.
func (a *App) BeginBlock(blk *xenv.BlockContext, byzantine []arvo.Address) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.btx != nil {
		return errors.New("begin block: previous block not committed")
	}
	snap, err := a.store.LatestSnapshot()
	if err != nil {
		return err
	}
	if snap.Version() == 0 {
		return errors.New("begin block: chain not initialized")
	}
	btx, err := state.NewBlockTxn(snap)
	if err != nil {
		return err
	}
	btx.SetObject(xenv.BlockContextKey, blk)
	btx.SetObject(xenv.IBCModuleKey, a.ibcModule)

	ctx := &component.BeginBlockContext{Block: blk, Byzantine: byzantine}
	for _, c := range a.components {
		if err := c.BeginBlock(btx, ctx); err != nil {
			return errors.WithMessagef(err, "begin block: component %s", c.Name())
		}
	}
	a.btx = btx
	a.blockCtx = blk
	return nil
}

// ExecuteTx runs one transaction inside a nested transaction of the
// current block. An expected rejection (validation, authorization,
// insufficient funds, bad nonce) discards only this transaction's writes
// and is reported via action.IsExpected; any other error is fatal to the
// block.
func (a *App) ExecuteTx(trx *tx.Transaction) (tx.Events, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.btx == nil {
		return nil, errors.New("execute tx: no block in progress")
	}

	atx, err := a.btx.BeginNested()
	if err != nil {
		return nil, err
	}
	applied := false
	defer func() {
		if !applied {
			atx.Discard()
		}
	}()

	if err := a.executeTx(atx, trx); err != nil {
		if action.IsExpected(err) {
			metricTxRejected().Add(1)
			id := trx.ID()
			logger.Debug("tx rejected", "id", id.AbbrevString(), "err", err)
		}
		return nil, err
	}
	events, err := atx.Apply()
	if err != nil {
		return nil, err
	}
	applied = true
	metricTxExecuted().Add(1)
	return events, nil
}

func (a *App) executeTx(atx *state.ActionTxn, trx *tx.Transaction) error {
	signer := trx.Signer()
	id := trx.ID()
	atx.SetObject(xenv.TxContextKey, &xenv.TransactionContext{
		ID:     id,
		Origin: signer,
		Block:  a.blockCtx.Hash,
	})

	chainID, err := accounts.ChainID(atx)
	if err != nil {
		return err
	}
	if trx.ChainID() != chainID {
		return action.Validationf("chain id %q, want %q", trx.ChainID(), chainID)
	}

	nonce, err := accounts.GetNonce(atx, signer)
	if err != nil {
		return err
	}
	if trx.Nonce() != nonce {
		return action.Validationf("nonce %d, want %d", trx.Nonce(), nonce)
	}
	accounts.SetNonce(atx, signer, nonce+1)

	acts, err := trx.Actions()
	if err != nil {
		return action.Validationf("decode actions: %v", err)
	}
	for i, act := range acts {
		checked, err := action.Construct(act, signer, atx)
		if err != nil {
			return errors.WithMessagef(err, "action %d (%v)", i, act.Kind())
		}
		if err := checked.Execute(atx); err != nil {
			return errors.WithMessagef(err, "action %d (%v)", i, act.Kind())
		}
	}
	return nil
}

// EndBlock runs the components' end-block hooks and returns the validator
// set changes plus all events the block accumulated outside of individual
// transactions.
func (a *App) EndBlock() ([]component.ValidatorUpdate, tx.Events, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.btx == nil {
		return nil, nil, errors.New("end block: no block in progress")
	}
	var updates []component.ValidatorUpdate
	for _, c := range a.components {
		ups, err := c.EndBlock(a.btx)
		if err != nil {
			return nil, nil, errors.WithMessagef(err, "end block: component %s", c.Name())
		}
		updates = append(updates, ups...)
	}
	return updates, a.btx.Events(), nil
}

// Commit persists the block transaction as the next version and returns
// its root hash. The engine is ready for the next BeginBlock afterwards.
func (a *App) Commit() (arvo.Bytes32, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.btx == nil {
		return arvo.Bytes32{}, errors.New("commit: no block in progress")
	}
	root, err := a.store.Commit(a.btx)
	if err != nil {
		return arvo.Bytes32{}, err
	}
	a.btx = nil
	a.blockCtx = nil
	return root, nil
}

// Abort drops the block in progress without committing. It is the
// driver's escape hatch when block production fails midway.
func (a *App) Abort() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.btx = nil
	a.blockCtx = nil
}

// CheckTx screens a transaction against the latest committed snapshot
// without executing it. The result is optimistic; execution inside a block
// re-validates everything.
func (a *App) CheckTx(trx *tx.Transaction) error {
	snap, err := a.store.LatestSnapshot()
	if err != nil {
		return err
	}
	if snap.Version() == 0 {
		return errors.New("check tx: chain not initialized")
	}
	return action.ScreenTx(snap, trx)
}

// Store exposes the underlying store, for admission-time readers.
func (a *App) Store() *store.Store { return a.store }
