// Copyright (c) 2025 The Arvo developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"golang.org/x/sync/singleflight"

	"github.com/arvo-network/arvo/cache"
)

// Snapshot is an immutable read view bound to one committed version.
// It may be shared by any number of concurrent readers; identical concurrent
// reads are deduplicated so that only the first caller hits the backend.
type Snapshot struct {
	back    Backend
	version uint64
	tiers   *cache.Tiered
	sf      singleflight.Group
}

// NewSnapshot creates a snapshot of the backend at the given version.
func NewSnapshot(back Backend, version uint64, readCapacity int) (*Snapshot, error) {
	tiers, err := cache.NewTiered(readCapacity)
	if err != nil {
		return nil, err
	}
	return &Snapshot{back: back, version: version, tiers: tiers}, nil
}

// Version returns the committed version this snapshot is bound to.
func (s *Snapshot) Version() uint64 { return s.version }

// Get reads a key of the verifiable store.
func (s *Snapshot) Get(key string) ([]byte, error) {
	v, err := s.load(verifiablePrefix+key, func() (cache.Value, bool, error) {
		return s.back.ReadVerifiable(key, s.version)
	})
	if err != nil {
		return nil, err
	}
	return v.Bytes(), nil
}

// NonverifiableGet reads a key of the nonverifiable store.
func (s *Snapshot) NonverifiableGet(key []byte) ([]byte, error) {
	v, err := s.load(nonverifiablePrefix+string(key), func() (cache.Value, bool, error) {
		return s.back.ReadNonverifiable(key, s.version)
	})
	if err != nil {
		return nil, err
	}
	return v.Bytes(), nil
}

// load serves the key through the tier cache, joining concurrent identical
// fetches on the way to the backend.
func (s *Snapshot) load(ck string, fetch func() (cache.Value, bool, error)) (cache.Value, error) {
	if v, ok := s.tiers.Peek(ck); ok {
		return v, nil
	}
	got, err, _ := s.sf.Do(ck, func() (any, error) {
		// the winner of a just finished flight may have cached it already
		if v, ok := s.tiers.Peek(ck); ok {
			return v, nil
		}
		v, found, err := fetch()
		if err != nil {
			return cache.Value{}, &Error{cause: err}
		}
		if !found {
			// never written at or below this version; the verdict is
			// final for the snapshot's lifetime
			v = cache.Deleted()
		}
		s.tiers.CacheRead(ck, v)
		return v, nil
	})
	if err != nil {
		return cache.Value{}, err
	}
	return got.(cache.Value), nil
}
