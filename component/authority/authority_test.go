// Copyright (c) 2025 The Arvo developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package authority_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arvo-network/arvo/arvo"
	"github.com/arvo-network/arvo/component"
	"github.com/arvo-network/arvo/component/authority"
	"github.com/arvo-network/arvo/genesis"
	"github.com/arvo-network/arvo/state"
	"github.com/arvo-network/arvo/store"
)

func openBlock(t *testing.T) *state.BlockTxn {
	s, err := store.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	snap, err := s.LatestSnapshot()
	require.NoError(t, err)
	btx, err := state.NewBlockTxn(snap)
	require.NoError(t, err)
	return btx
}

func TestAuthorityInitChain(t *testing.T) {
	btx := openBlock(t)
	app := genesis.NewDevnet()
	require.NoError(t, (&authority.Authority{}).InitChain(btx, app))

	sudo, err := authority.SudoAddress(btx)
	require.NoError(t, err)
	assert.Equal(t, genesis.DevAccounts()[0].Address, sudo)

	power, err := authority.ValidatorPower(btx, genesis.DevAccounts()[0].Address)
	require.NoError(t, err)
	assert.Equal(t, uint64(10), power)
}

func TestValidatorUpdateAccumulation(t *testing.T) {
	btx := openBlock(t)

	v1 := arvo.BytesToAddress([]byte{0x02})
	v2 := arvo.BytesToAddress([]byte{0x01})

	require.NoError(t, authority.RecordUpdate(btx, v1, 10))
	require.NoError(t, authority.RecordUpdate(btx, v2, 20))
	// upsert replaces rather than duplicates
	require.NoError(t, authority.RecordUpdate(btx, v1, 15))

	ups, err := authority.PendingUpdates(btx)
	require.NoError(t, err)
	require.Len(t, ups, 2)
	// sorted by address for determinism
	assert.Equal(t, v2, ups[0].Address)
	assert.Equal(t, uint64(20), ups[0].Power)
	assert.Equal(t, v1, ups[1].Address)
	assert.Equal(t, uint64(15), ups[1].Power)
}

func TestAuthorityEndBlockDrains(t *testing.T) {
	btx := openBlock(t)
	comp := &authority.Authority{}

	v := arvo.BytesToAddress([]byte{0x01})
	require.NoError(t, authority.RecordUpdate(btx, v, 7))

	ups, err := comp.EndBlock(btx)
	require.NoError(t, err)
	require.Len(t, ups, 1)
	assert.Equal(t, component.ValidatorUpdate{Address: v, Power: 7}, ups[0])

	// the update landed in the stored set
	power, err := authority.ValidatorPower(btx, v)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), power)

	// drained: the next end-block reports nothing
	ups, err = comp.EndBlock(btx)
	require.NoError(t, err)
	assert.Empty(t, ups)
}

func TestAuthorityByzantineRemoval(t *testing.T) {
	btx := openBlock(t)
	comp := &authority.Authority{}
	app := genesis.NewDevnet()
	require.NoError(t, comp.InitChain(btx, app))

	bad := genesis.DevAccounts()[0].Address
	err := comp.BeginBlock(btx, &component.BeginBlockContext{
		Byzantine: []arvo.Address{bad, arvo.BytesToAddress([]byte{0xff})},
	})
	require.NoError(t, err)

	power, err := authority.ValidatorPower(btx, bad)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), power)

	// the removal is reported at end of block
	ups, err := comp.EndBlock(btx)
	require.NoError(t, err)
	require.Len(t, ups, 1)
	assert.Equal(t, component.ValidatorUpdate{Address: bad, Power: 0}, ups[0])
}
