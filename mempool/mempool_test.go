// Copyright (c) 2025 The Arvo developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package mempool_test

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arvo-network/arvo/action"
	"github.com/arvo-network/arvo/app"
	"github.com/arvo-network/arvo/arvo"
	"github.com/arvo-network/arvo/genesis"
	"github.com/arvo-network/arvo/mempool"
	"github.com/arvo-network/arvo/store"
	"github.com/arvo-network/arvo/tx"
	"github.com/arvo-network/arvo/xenv"
)

func newEngine(t *testing.T) *app.App {
	s, err := store.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	a := app.New(s, app.DefaultComponents(), app.Options{})
	_, err = a.InitChain(genesis.NewDevnet())
	require.NoError(t, err)
	return a
}

func transferTx(t *testing.T, nonce uint32, from genesis.DevAccount, amount uint64) *tx.Transaction {
	to := arvo.BytesToAddress([]byte("recipient"))
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

func TestPoolAdd(t *testing.T) {
	a := newEngine(t)
	pool := mempool.New(a.Store(), mempool.Options{Limit: 10, LimitPerAccount: 2})
	dev := genesis.DevAccounts()

	trx := transferTx(t, 0, dev[0], 100)
	require.NoError(t, pool.Add(trx))
	assert.Equal(t, 1, pool.Len())

	// duplicates are refused
	assert.ErrorIs(t, pool.Add(trx), mempool.ErrKnownTx)

	// queued nonces are acceptable, up to the account quota
	require.NoError(t, pool.Add(transferTx(t, 1, dev[0], 100)))
	assert.ErrorIs(t, pool.Add(transferTx(t, 2, dev[0], 100)), mempool.ErrAccountQuota)

	// a failing construction is refused with the action's rejection class
	err := pool.Add(transferTx(t, 0, genesis.DevAccount{Address: arvo.BytesToAddress([]byte("pauper"))}, 100))
	require.Error(t, err)
	assert.True(t, action.IsInsufficientFunds(err))

	dump := pool.Dump()
	require.Len(t, dump, 2)
	assert.Equal(t, uint32(0), dump[0].Nonce())
	assert.Equal(t, uint32(1), dump[1].Nonce())

	assert.True(t, pool.Remove(trx.ID()))
	assert.False(t, pool.Remove(trx.ID()))
	assert.Equal(t, 1, pool.Len())
}

func TestPoolLimit(t *testing.T) {
	a := newEngine(t)
	pool := mempool.New(a.Store(), mempool.Options{Limit: 2})
	dev := genesis.DevAccounts()

	require.NoError(t, pool.Add(transferTx(t, 0, dev[0], 1)))
	require.NoError(t, pool.Add(transferTx(t, 0, dev[1], 1)))
	assert.ErrorIs(t, pool.Add(transferTx(t, 0, dev[2], 1)), mempool.ErrPoolFull)
}

func TestPoolWash(t *testing.T) {
	a := newEngine(t)
	pool := mempool.New(a.Store(), mempool.Options{Limit: 10, LimitPerAccount: 5})
	dev := genesis.DevAccounts()

	// a sudo-gated tx admitted while dev0 is sudo
	sudoTx, err := tx.New("arvo-dev", 0, dev[0].Address, []tx.Action{
		&tx.FeeChange{Target: tx.KindTransfer, Base: uint256.NewInt(1), Multiplier: uint256.NewInt(0)},
	})
	require.NoError(t, err)
	require.NoError(t, pool.Add(sudoTx))
	require.NoError(t, pool.Add(transferTx(t, 0, dev[1], 100)))

	// a block lands that moves the sudo address away from dev0
	require.NoError(t, a.BeginBlock(&xenv.BlockContext{
		ChainID: "arvo-dev",
		Number:  2,
		Time:    1700000002,
		Hash:    arvo.Blake2b([]byte{2}),
	}, nil))
	moveSudo, err := tx.New("arvo-dev", 0, dev[0].Address, []tx.Action{
		&tx.SudoAddressChange{NewAddress: dev[2].Address.Text(genesis.DevAddressPrefix)},
	})
	require.NoError(t, err)
	_, err = a.ExecuteTx(moveSudo)
	require.NoError(t, err)
	_, _, err = a.EndBlock()
	require.NoError(t, err)
	_, err = a.Commit()
	require.NoError(t, err)

	// washing evicts what the new state no longer admits; the sudo tx
	// also went stale on nonce, the plain transfer survives
	evicted, err := pool.Wash()
	require.NoError(t, err)
	assert.Equal(t, 1, evicted)
	assert.Equal(t, 1, pool.Len())
	assert.Equal(t, dev[1].Address, pool.Dump()[0].Signer())
}
