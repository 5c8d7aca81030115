// Copyright (c) 2025 The Arvo developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package store implements the durable, versioned key-value backend of the
// ledger. It manages two key spaces over one kv store: the verifiable space,
// whose contents are committed to by the root hash of each version, and the
// raw nonverifiable space.
//
// Records are multi-versioned. Every commit writes the block's settled
// write set under the next version; point reads resolve the newest record
// at or below the requested version, so any committed version stays
// readable forever.
package store

import (
	"encoding/binary"
	"sync"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/log"
	"github.com/pkg/errors"
	"github.com/qianbin/directcache"

	"github.com/arvo-network/arvo/arvo"
	"github.com/arvo-network/arvo/cache"
	"github.com/arvo-network/arvo/kv"
	"github.com/arvo-network/arvo/lvldb"
	"github.com/arvo-network/arvo/state"
)

const (
	verifiableBucket    = kv.Bucket("\x00") // records contributing to the root
	nonverifiableBucket = kv.Bucket("\x01") // raw records
	propsBucket         = kv.Bucket("\x02") // store properties
)

const (
	versionKey = "version"
	rootKeyPfx = "root/"
)

// record value encoding: a tombstone, or a present marker plus the bytes.
const (
	recAbsent  = byte(0)
	recPresent = byte(1)
)

var logger = log.New("pkg", "store")

// Options optional parameters for the store.
type Options struct {
	// ReadCacheMB size of the resolved-read cache.
	ReadCacheMB int
	// SnapshotReadCapacity entry capacity of each snapshot's shared read tier.
	SnapshotReadCapacity int
}

// DefaultOptions reasonable defaults for a node.
var DefaultOptions = Options{
	ReadCacheMB:          32,
	SnapshotReadCapacity: 65536,
}

// Store is the versioned backend. It is created once per process and owned
// by the node; snapshots borrow it read-only.
type Store struct {
	kvs    kv.Store
	props  kv.Getter
	opts   Options
	latest atomic.Uint64

	// guards commits; versions are strictly sequential
	commitMu sync.Mutex

	// resolved point reads, keyed by (space, key hash, version);
	// resolution history is immutable so entries never go stale
	reads *directcache.Cache
}

var _ state.Backend = (*Store)(nil)

// New creates a store over the given kv store.
func New(kvs kv.Store, opts Options) (*Store, error) {
	if opts.ReadCacheMB < 1 {
		opts.ReadCacheMB = 1
	}
	if opts.SnapshotReadCapacity < 1 {
		opts.SnapshotReadCapacity = DefaultOptions.SnapshotReadCapacity
	}
	s := &Store{
		kvs:   kvs,
		props: propsBucket.ProxyGetter(kvs),
		opts:  opts,
		reads: directcache.New(opts.ReadCacheMB * 1024 * 1024),
	}

	ver, err := s.loadVersion()
	if err != nil {
		return nil, err
	}
	s.latest.Store(ver)
	return s, nil
}

// Open opens or creates the store at the given path.
func Open(path string, opts Options) (*Store, error) {
	kvs, err := lvldb.New(path, lvldb.Options{})
	if err != nil {
		return nil, err
	}
	s, err := New(kvs, opts)
	if err != nil {
		kvs.Close()
		return nil, err
	}
	return s, nil
}

// NewMem creates an in-memory store, mainly for tests.
func NewMem() (*Store, error) {
	kvs, err := lvldb.NewMem()
	if err != nil {
		return nil, err
	}
	return New(kvs, DefaultOptions)
}

// Close closes the underlying kv store.
func (s *Store) Close() error {
	return s.kvs.Close()
}

// LatestVersion returns the version of the last committed block state.
// It is 0 for an empty ledger and increases by exactly 1 per commit.
func (s *Store) LatestVersion() uint64 {
	return s.latest.Load()
}

// LatestSnapshot returns a snapshot bound to the latest committed version.
func (s *Store) LatestSnapshot() (*state.Snapshot, error) {
	return state.NewSnapshot(s, s.LatestVersion(), s.opts.SnapshotReadCapacity)
}

// SnapshotAt returns a snapshot bound to the given committed version.
func (s *Store) SnapshotAt(version uint64) (*state.Snapshot, error) {
	if latest := s.LatestVersion(); version > latest {
		return nil, errors.Errorf("no snapshot at version %d, latest %d", version, latest)
	}
	return state.NewSnapshot(s, version, s.opts.SnapshotReadCapacity)
}

// RootAt returns the root hash recorded at the given version.
// Version 0, the empty ledger, has the zero root.
func (s *Store) RootAt(version uint64) (arvo.Bytes32, error) {
	if version == 0 {
		return arvo.Bytes32{}, nil
	}
	if latest := s.LatestVersion(); version > latest {
		return arvo.Bytes32{}, errors.Errorf("no root at version %d, latest %d", version, latest)
	}
	raw, err := s.props.Get(rootKey(version))
	if err != nil {
		return arvo.Bytes32{}, errors.Wrap(err, "load root")
	}
	return arvo.BytesToBytes32(raw), nil
}

// ReadVerifiable implements state.Backend.
func (s *Store) ReadVerifiable(key string, version uint64) (cache.Value, bool, error) {
	return s.readAt(verifiableBucket, []byte(key), version)
}

// ReadNonverifiable implements state.Backend.
func (s *Store) ReadNonverifiable(key []byte, version uint64) (cache.Value, bool, error) {
	return s.readAt(nonverifiableBucket, key, version)
}

// readAt resolves the newest record of the key at or below the version.
func (s *Store) readAt(b kv.Bucket, key []byte, version uint64) (cache.Value, bool, error) {
	ck := append([]byte(b), recordKey(key, version)...)
	if v, found, ok := s.cachedRead(ck); ok {
		return v, found, nil
	}

	it := s.kvs.NewIterator(b.MakeRange(recordRange(key, version)))
	defer it.Release()

	if !it.Next() {
		if err := it.Error(); err != nil {
			return cache.Value{}, false, errors.Wrap(err, "read record")
		}
		s.cacheRead(ck, nil) // negative verdict
		return cache.Value{}, false, nil
	}
	raw := append([]byte(nil), it.Value()...)
	v, err := decodeRecord(raw)
	if err != nil {
		return cache.Value{}, false, err
	}
	s.cacheRead(ck, raw)
	return v, true, nil
}

func (s *Store) cachedRead(ck []byte) (v cache.Value, found bool, ok bool) {
	var raw []byte
	if s.reads.AdvGet(ck, func(val []byte) {
		raw = append([]byte(nil), val...)
	}, false) {
		if len(raw) == 0 {
			return cache.Value{}, false, true
		}
		v, err := decodeRecord(raw)
		if err != nil {
			return cache.Value{}, false, false
		}
		return v, true, true
	}
	return cache.Value{}, false, false
}

func (s *Store) cacheRead(ck, raw []byte) {
	_ = s.reads.Set(ck, raw)
}

func (s *Store) loadVersion() (uint64, error) {
	raw, err := s.props.Get([]byte(versionKey))
	if err != nil {
		if s.props.IsNotFound(err) {
			return 0, nil
		}
		return 0, errors.Wrap(err, "load version")
	}
	if len(raw) != 8 {
		return 0, errors.New("corrupted version record")
	}
	return binary.BigEndian.Uint64(raw), nil
}

// recordKey builds the in-bucket record key: blake2b(key) || ^version.
// The inverted version makes newer records sort first, so the iterator's
// first hit within the key's range is the newest record at or below the
// requested version.
func recordKey(key []byte, version uint64) []byte {
	h := arvo.Blake2b(key)
	out := make([]byte, 0, 32+8)
	out = append(out, h[:]...)
	return appendInvVersion(out, version)
}

// recordRange bounds all records of the key at or below the version,
// relative to the record bucket.
func recordRange(key []byte, version uint64) kv.Range {
	h := arvo.Blake2b(key)
	start := appendInvVersion(append([]byte(nil), h[:]...), version)
	// the hash increment bounds all versions of the key
	limit := append([]byte(nil), h[:]...)
	carried := true
	for i := len(limit) - 1; i >= 0; i-- {
		limit[i]++
		if limit[i] != 0 {
			carried = false
			break
		}
	}
	if carried {
		// an all-0xff hash is bounded by the bucket itself
		limit = nil
	}
	return kv.Range{Start: start, Limit: limit}
}

func appendInvVersion(b []byte, version uint64) []byte {
	return binary.BigEndian.AppendUint64(b, ^version)
}

func appendVersion(b []byte, version uint64) []byte {
	return binary.BigEndian.AppendUint64(b, version)
}

func rootKey(version uint64) []byte {
	return appendVersion([]byte(rootKeyPfx), version)
}

func encodeRecord(v cache.Value) []byte {
	if v.Absent() {
		return []byte{recAbsent}
	}
	return append([]byte{recPresent}, v.Bytes()...)
}

func decodeRecord(raw []byte) (cache.Value, error) {
	if len(raw) == 0 {
		return cache.Value{}, errors.New("empty record")
	}
	switch raw[0] {
	case recAbsent:
		return cache.Deleted(), nil
	case recPresent:
		return cache.Of(raw[1:]), nil
	}
	return cache.Value{}, errors.Errorf("corrupted record marker %d", raw[0])
}
