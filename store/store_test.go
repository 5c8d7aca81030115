// Copyright (c) 2025 The Arvo developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package store_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arvo-network/arvo/arvo"
	"github.com/arvo-network/arvo/state"
	"github.com/arvo-network/arvo/store"
)

func openBlock(t *testing.T, s *store.Store) *state.BlockTxn {
	snap, err := s.LatestSnapshot()
	require.NoError(t, err)
	btx, err := state.NewBlockTxn(snap)
	require.NoError(t, err)
	return btx
}

func TestStoreCommitMonotonicity(t *testing.T) {
	s, err := store.NewMem()
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, uint64(0), s.LatestVersion())

	const n = 5
	for i := 1; i <= n; i++ {
		btx := openBlock(t, s)
		btx.Put("counter", []byte{byte(i)})
		_, err := s.Commit(btx)
		require.NoError(t, err)
		assert.Equal(t, uint64(i), s.LatestVersion())
	}

	// every committed version serves the state written at that version
	for i := 1; i <= n; i++ {
		snap, err := s.SnapshotAt(uint64(i))
		require.NoError(t, err)
		v, err := snap.Get("counter")
		require.NoError(t, err)
		assert.Equal(t, []byte{byte(i)}, v)
	}

	_, err = s.SnapshotAt(n + 1)
	assert.Error(t, err)
}

func TestStoreHistoricalReads(t *testing.T) {
	s, err := store.NewMem()
	require.NoError(t, err)
	defer s.Close()

	// v1: write a; v2: write b only; v3: delete a
	btx := openBlock(t, s)
	btx.Put("a", []byte("a1"))
	_, err = s.Commit(btx)
	require.NoError(t, err)

	btx = openBlock(t, s)
	btx.Put("b", []byte("b2"))
	_, err = s.Commit(btx)
	require.NoError(t, err)

	btx = openBlock(t, s)
	btx.Delete("a")
	_, err = s.Commit(btx)
	require.NoError(t, err)

	read := func(version uint64, key string) []byte {
		snap, err := s.SnapshotAt(version)
		require.NoError(t, err)
		v, err := snap.Get(key)
		require.NoError(t, err)
		return v
	}

	// "a" written at v1 is still visible at v2, gone from v3 on
	assert.Equal(t, []byte("a1"), read(1, "a"))
	assert.Equal(t, []byte("a1"), read(2, "a"))
	assert.Nil(t, read(3, "a"))

	assert.Nil(t, read(1, "b"))
	assert.Equal(t, []byte("b2"), read(2, "b"))
	assert.Equal(t, []byte("b2"), read(3, "b"))

	// version 0 is the empty ledger
	assert.Nil(t, read(0, "a"))
}

func TestStoreNonverifiableSpace(t *testing.T) {
	s, err := store.NewMem()
	require.NoError(t, err)
	defer s.Close()

	btx := openBlock(t, s)
	btx.Put("k", []byte("verifiable"))
	btx.NonverifiablePut([]byte("k"), []byte("nonverifiable"))
	_, err = s.Commit(btx)
	require.NoError(t, err)

	// the same user key lives independently in the two spaces
	snap, err := s.LatestSnapshot()
	require.NoError(t, err)
	v, err := snap.Get("k")
	require.NoError(t, err)
	assert.Equal(t, []byte("verifiable"), v)
	v, err = snap.NonverifiableGet([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("nonverifiable"), v)
}

func TestStoreRootChaining(t *testing.T) {
	s, err := store.NewMem()
	require.NoError(t, err)
	defer s.Close()

	root0, err := s.RootAt(0)
	require.NoError(t, err)
	assert.True(t, root0.IsZero())

	btx := openBlock(t, s)
	btx.Put("a", []byte("1"))
	root1, err := s.Commit(btx)
	require.NoError(t, err)
	assert.False(t, root1.IsZero())

	// roots are chained: a different change set yields a different root
	btx = openBlock(t, s)
	btx.Put("a", []byte("2"))
	root2, err := s.Commit(btx)
	require.NoError(t, err)
	assert.NotEqual(t, root1, root2)

	// recorded roots round trip
	got, err := s.RootAt(1)
	require.NoError(t, err)
	assert.Equal(t, root1, got)
	got, err = s.RootAt(2)
	require.NoError(t, err)
	assert.Equal(t, root2, got)

	// an identical change set over a different parent root differs too
	s2, err := store.NewMem()
	require.NoError(t, err)
	defer s2.Close()
	btx = openBlock(t, s2)
	btx.Put("a", []byte("2"))
	other, err := s2.Commit(btx)
	require.NoError(t, err)
	assert.NotEqual(t, root2, other)
}

func TestStoreRootDeterminism(t *testing.T) {
	build := func() arvo.Bytes32 {
		s, err := store.NewMem()
		require.NoError(t, err)
		defer s.Close()

		btx := openBlock(t, s)
		btx.Put("x", []byte("1"))
		btx.Put("y", []byte("2"))
		btx.Delete("z")
		// nonverifiable writes never enter the root
		btx.NonverifiablePut([]byte("noise"), []byte("ignored"))
		root, err := s.Commit(btx)
		require.NoError(t, err)
		return root
	}
	assert.Equal(t, build(), build())
}

func TestStoreStageConflicts(t *testing.T) {
	s, err := store.NewMem()
	require.NoError(t, err)
	defer s.Close()

	// staging with a nested transaction outstanding must fail
	btx := openBlock(t, s)
	btx.Put("a", []byte("1"))
	atx, err := btx.BeginNested()
	require.NoError(t, err)
	_, err = s.Stage(btx)
	assert.Error(t, err)
	atx.Discard()

	stage, err := s.Stage(btx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), stage.Version())

	// the root is known before commit and matches the committed one
	root, err := stage.Commit()
	require.NoError(t, err)
	assert.Equal(t, stage.Hash(), root)

	// a block staged over a stale base cannot commit
	stale := openBlock(t, s) // version 1 now
	stale.Put("b", []byte("2"))
	btx2 := openBlock(t, s)
	btx2.Put("c", []byte("3"))
	_, err = s.Commit(btx2)
	require.NoError(t, err)

	_, err = s.Stage(stale)
	assert.Error(t, err)
}
