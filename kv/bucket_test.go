// Copyright (c) 2025 The Arvo developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package kv_test

import (
	"testing"

	"github.com/arvo-network/arvo/kv"
	"github.com/arvo-network/arvo/lvldb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBucketProxy(t *testing.T) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	defer db.Close()

	b1 := kv.Bucket("b1")
	b2 := kv.Bucket("b2")

	require.NoError(t, b1.ProxyPutter(db).Put([]byte("key"), []byte("v1")))
	require.NoError(t, b2.ProxyPutter(db).Put([]byte("key"), []byte("v2")))

	v, err := b1.ProxyGetter(db).Get([]byte("key"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), v)

	v, err = b2.ProxyGetter(db).Get([]byte("key"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), v)

	// raw key carries the bucket prefix
	v, err = db.Get([]byte("b1key"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), v)

	_, err = b1.ProxyGetter(db).Get([]byte("missing"))
	assert.True(t, db.IsNotFound(err))

	has, err := b2.ProxyGetter(db).Has([]byte("key"))
	require.NoError(t, err)
	assert.True(t, has)

	require.NoError(t, b1.ProxyPutter(db).Delete([]byte("key")))
	_, err = b1.ProxyGetter(db).Get([]byte("key"))
	assert.True(t, db.IsNotFound(err))
}

func TestBucketMakeRange(t *testing.T) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	defer db.Close()

	b := kv.Bucket("bkt")
	p := b.ProxyPutter(db)
	require.NoError(t, p.Put([]byte("a"), []byte("1")))
	require.NoError(t, p.Put([]byte("b"), []byte("2")))
	require.NoError(t, p.Put([]byte("c"), []byte("3")))
	// outside the bucket
	require.NoError(t, db.Put([]byte("zzz"), []byte("x")))

	collect := func(r kv.Range) (keys []string) {
		it := db.NewIterator(b.MakeRange(r))
		defer it.Release()
		for it.Next() {
			keys = append(keys, string(it.Key()))
		}
		require.NoError(t, it.Error())
		return
	}

	assert.Equal(t, []string{"bkta", "bktb", "bktc"}, collect(kv.Range{}))
	assert.Equal(t, []string{"bktb", "bktc"}, collect(kv.Range{Start: []byte("b")}))
	assert.Equal(t, []string{"bkta"}, collect(kv.Range{Limit: []byte("b")}))
	assert.Equal(t, []string{"bktb"}, collect(kv.Range{Start: []byte("b"), Limit: []byte("c")}))
}
