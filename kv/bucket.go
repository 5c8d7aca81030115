// Copyright (c) 2025 The Arvo developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package kv

import "github.com/syndtr/goleveldb/leveldb/util"

// Bucket provides logical bucket for kv store.
type Bucket string

// ProxyGetter creates a getter which prepends the bucket to all keys.
func (b Bucket) ProxyGetter(src Getter) Getter {
	return &bucketGetter{b, src}
}

// ProxyPutter creates a putter which prepends the bucket to all keys.
func (b Bucket) ProxyPutter(src Putter) Putter {
	return &bucketPutter{b, src}
}

// MakeRange maps the given range into the bucket.
func (b Bucket) MakeRange(r Range) Range {
	if len(r.Start) == 0 && len(r.Limit) == 0 {
		pr := util.BytesPrefix([]byte(b))
		return Range{Start: pr.Start, Limit: pr.Limit}
	}
	start := append([]byte(b), r.Start...)
	var limit []byte
	if len(r.Limit) == 0 {
		limit = util.BytesPrefix([]byte(b)).Limit
	} else {
		limit = append([]byte(b), r.Limit...)
	}
	return Range{Start: start, Limit: limit}
}

type bucketGetter struct {
	b   Bucket
	src Getter
}

func (g *bucketGetter) Get(key []byte) ([]byte, error) {
	return g.src.Get(append([]byte(g.b), key...))
}

func (g *bucketGetter) Has(key []byte) (bool, error) {
	return g.src.Has(append([]byte(g.b), key...))
}

func (g *bucketGetter) IsNotFound(err error) bool { return g.src.IsNotFound(err) }

type bucketPutter struct {
	b   Bucket
	src Putter
}

func (p *bucketPutter) Put(key, val []byte) error {
	return p.src.Put(append([]byte(p.b), key...), val)
}

func (p *bucketPutter) Delete(key []byte) error {
	return p.src.Delete(append([]byte(p.b), key...))
}
