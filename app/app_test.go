// Copyright (c) 2025 The Arvo developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package app_test

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arvo-network/arvo/action"
	"github.com/arvo-network/arvo/app"
	"github.com/arvo-network/arvo/arvo"
	"github.com/arvo-network/arvo/component/accounts"
	"github.com/arvo-network/arvo/genesis"
	"github.com/arvo-network/arvo/store"
	"github.com/arvo-network/arvo/tx"
	"github.com/arvo-network/arvo/xenv"
)

func newApp(t *testing.T) *app.App {
	s, err := store.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return app.New(s, app.DefaultComponents(), app.Options{})
}

func initChain(t *testing.T, a *app.App) *genesis.AppState {
	appState := genesis.NewDevnet()
	root, err := a.InitChain(appState)
	require.NoError(t, err)
	assert.False(t, root.IsZero())
	assert.Equal(t, uint64(1), a.Store().LatestVersion())
	return appState
}

func blockCtx(number uint64) *xenv.BlockContext {
	return &xenv.BlockContext{
		ChainID: "arvo-dev",
		Number:  number,
		Time:    1700000000 + number,
		Hash:    arvo.Blake2b([]byte{byte(number)}),
	}
}

func transferTx(t *testing.T, nonce uint32, from genesis.DevAccount, to arvo.Address, amount uint64) *tx.Transaction {
	trx, err := tx.New("arvo-dev", nonce, from.Address, []tx.Action{
		&tx.Transfer{
			To:       to.Text(genesis.DevAddressPrefix),
			Asset:    "nria",
			Amount:   uint256.NewInt(amount),
			FeeAsset: "nria",
		},
	})
	require.NoError(t, err)
	return trx
}

func TestAppLifecycle(t *testing.T) {
	a := newApp(t)

	// nothing works before genesis
	assert.Error(t, a.BeginBlock(blockCtx(2), nil))

	initChain(t, a)

	// genesis only happens once
	_, err := a.InitChain(genesis.NewDevnet())
	assert.Error(t, err)

	require.NoError(t, a.BeginBlock(blockCtx(2), nil))

	// block N+1 cannot begin before block N commits
	assert.Error(t, a.BeginBlock(blockCtx(3), nil))

	dev := genesis.DevAccounts()
	recipient := arvo.BytesToAddress([]byte("recipient"))
	events, err := a.ExecuteTx(transferTx(t, 0, dev[0], recipient, 1000))
	require.NoError(t, err)
	assert.NotEmpty(t, events)

	ups, blockEvents, err := a.EndBlock()
	require.NoError(t, err)
	assert.Empty(t, ups)
	// the transfer fee surfaces in the block fee totals event
	require.NotEmpty(t, blockEvents)
	assert.Equal(t, "block.fees", blockEvents[0].Type)

	root, err := a.Commit()
	require.NoError(t, err)
	assert.False(t, root.IsZero())
	assert.Equal(t, uint64(2), a.Store().LatestVersion())

	// committed state is visible in the next snapshot
	snap, err := a.Store().LatestSnapshot()
	require.NoError(t, err)
	balance, err := accounts.GetBalance(snap, recipient, "nria")
	require.NoError(t, err)
	assert.Equal(t, uint256.NewInt(1000), balance)

	// the engine is ready for the next block
	require.NoError(t, a.BeginBlock(blockCtx(3), nil))
	_, err = a.Commit()
	require.NoError(t, err)
}

func TestAppNonceHandling(t *testing.T) {
	a := newApp(t)
	initChain(t, a)
	require.NoError(t, a.BeginBlock(blockCtx(2), nil))

	dev := genesis.DevAccounts()
	recipient := arvo.BytesToAddress([]byte("recipient"))

	// wrong starting nonce is rejected
	_, err := a.ExecuteTx(transferTx(t, 5, dev[0], recipient, 10))
	require.Error(t, err)
	assert.True(t, action.IsExpected(err))

	_, err = a.ExecuteTx(transferTx(t, 0, dev[0], recipient, 10))
	require.NoError(t, err)

	// replaying the same nonce fails, the incremented one works
	_, err = a.ExecuteTx(transferTx(t, 0, dev[0], recipient, 10))
	require.Error(t, err)
	assert.True(t, action.IsExpected(err))
	_, err = a.ExecuteTx(transferTx(t, 1, dev[0], recipient, 10))
	require.NoError(t, err)

	_, err = a.ExecuteTx(transferTx(t, 2, dev[0], recipient, 10))
	require.NoError(t, err)
}

func TestAppRejectedTxLeavesNoTrace(t *testing.T) {
	a := newApp(t)
	initChain(t, a)
	require.NoError(t, a.BeginBlock(blockCtx(2), nil))

	dev := genesis.DevAccounts()
	recipient := arvo.BytesToAddress([]byte("recipient"))

	// second action of the tx fails; the first action's transfer and the
	// nonce bump must both roll back
	trx, err := tx.New("arvo-dev", 0, dev[3].Address, []tx.Action{
		&tx.Transfer{
			To:       recipient.Text(genesis.DevAddressPrefix),
			Asset:    "nria",
			Amount:   uint256.NewInt(500),
			FeeAsset: "nria",
		},
		&tx.SudoAddressChange{NewAddress: recipient.Text(genesis.DevAddressPrefix)},
	})
	require.NoError(t, err)

	_, err = a.ExecuteTx(trx)
	require.Error(t, err)
	assert.True(t, action.IsAuthorization(err))

	// same nonce succeeds with a valid action set
	_, err = a.ExecuteTx(transferTx(t, 0, dev[3], recipient, 500))
	require.NoError(t, err)

	_, _, err = a.EndBlock()
	require.NoError(t, err)
	_, err = a.Commit()
	require.NoError(t, err)

	snap, err := a.Store().LatestSnapshot()
	require.NoError(t, err)
	balance, err := accounts.GetBalance(snap, recipient, "nria")
	require.NoError(t, err)
	assert.Equal(t, uint256.NewInt(500), balance)
}

func TestAppWrongChainID(t *testing.T) {
	a := newApp(t)
	initChain(t, a)
	require.NoError(t, a.BeginBlock(blockCtx(2), nil))

	dev := genesis.DevAccounts()
	trx, err := tx.New("other-chain", 0, dev[0].Address, []tx.Action{
		&tx.Transfer{
			To:       dev[1].Address.Text(genesis.DevAddressPrefix),
			Asset:    "nria",
			Amount:   uint256.NewInt(1),
			FeeAsset: "nria",
		},
	})
	require.NoError(t, err)

	_, err = a.ExecuteTx(trx)
	require.Error(t, err)
	assert.True(t, action.IsValidation(err))
}

func TestAppValidatorUpdatesReported(t *testing.T) {
	a := newApp(t)
	initChain(t, a)
	require.NoError(t, a.BeginBlock(blockCtx(2), nil))

	dev := genesis.DevAccounts()
	v := dev[5].Address
	trx, err := tx.New("arvo-dev", 0, dev[0].Address, []tx.Action{
		&tx.ValidatorUpdate{Address: v.Text(genesis.DevAddressPrefix), Power: 42},
	})
	require.NoError(t, err)
	_, err = a.ExecuteTx(trx)
	require.NoError(t, err)

	ups, _, err := a.EndBlock()
	require.NoError(t, err)
	require.Len(t, ups, 1)
	assert.Equal(t, v, ups[0].Address)
	assert.Equal(t, uint64(42), ups[0].Power)

	_, err = a.Commit()
	require.NoError(t, err)
}

func TestAppAbort(t *testing.T) {
	a := newApp(t)
	initChain(t, a)

	dev := genesis.DevAccounts()
	recipient := arvo.BytesToAddress([]byte("recipient"))

	require.NoError(t, a.BeginBlock(blockCtx(2), nil))
	_, err := a.ExecuteTx(transferTx(t, 0, dev[0], recipient, 1000))
	require.NoError(t, err)
	a.Abort()

	// nothing committed, block slot free again
	assert.Equal(t, uint64(1), a.Store().LatestVersion())
	require.NoError(t, a.BeginBlock(blockCtx(2), nil))

	// the aborted transfer left no trace, same nonce works
	_, err = a.ExecuteTx(transferTx(t, 0, dev[0], recipient, 1000))
	require.NoError(t, err)
	_, _, err = a.EndBlock()
	require.NoError(t, err)
	_, err = a.Commit()
	require.NoError(t, err)
}

func TestAppCheckTx(t *testing.T) {
	a := newApp(t)
	initChain(t, a)

	dev := genesis.DevAccounts()
	recipient := arvo.BytesToAddress([]byte("recipient"))

	// screening is read-only against the latest committed snapshot
	require.NoError(t, a.CheckTx(transferTx(t, 0, dev[0], recipient, 10)))
	// a future nonce is acceptable at admission
	require.NoError(t, a.CheckTx(transferTx(t, 3, dev[0], recipient, 10)))

	snap, err := a.Store().LatestSnapshot()
	require.NoError(t, err)
	balance, err := accounts.GetBalance(snap, recipient, "nria")
	require.NoError(t, err)
	assert.True(t, balance.IsZero())

	err = a.CheckTx(transferTx(t, 0, dev[0], recipient, 10))
	require.NoError(t, err)
}
