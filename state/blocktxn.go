// Copyright (c) 2025 The Arvo developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/arvo-network/arvo/cache"
	"github.com/arvo-network/arvo/tx"
)

// BlockTxn accumulates all writes of one block over a snapshot. It is
// either committed through the store, producing the next version, or
// discarded wholesale.
//
// Exactly one ActionTxn may be nested in it at any instant; BeginNested
// hands out a single permit which must be consumed, by Apply or Discard,
// before the next one is issued.
type BlockTxn struct {
	snap   *Snapshot
	permit chan struct{}

	mu      sync.Mutex
	events  tx.Events
	objects map[string]any
}

var _ ReadWriter = (*BlockTxn)(nil)

// NewBlockTxn opens the block-scoped write layer over the snapshot.
// It fails if the snapshot already carries one.
func NewBlockTxn(snap *Snapshot) (*BlockTxn, error) {
	if err := snap.tiers.PushDelta(); err != nil {
		return nil, errors.WithMessage(err, "open block transaction")
	}
	permit := make(chan struct{}, 1)
	permit <- struct{}{}
	return &BlockTxn{
		snap:    snap,
		permit:  permit,
		objects: make(map[string]any),
	}, nil
}

// Snapshot returns the underlying snapshot.
func (b *BlockTxn) Snapshot() *Snapshot { return b.snap }

// Get reads a key of the verifiable store, seeing the block's own writes.
func (b *BlockTxn) Get(key string) ([]byte, error) {
	return b.read(verifiablePrefix+key, func() ([]byte, error) { return b.snap.Get(key) })
}

// NonverifiableGet reads a key of the nonverifiable store.
func (b *BlockTxn) NonverifiableGet(key []byte) ([]byte, error) {
	return b.read(nonverifiablePrefix+string(key), func() ([]byte, error) { return b.snap.NonverifiableGet(key) })
}

func (b *BlockTxn) read(ck string, fallback func() ([]byte, error)) ([]byte, error) {
	if v, ok := b.snap.tiers.Get(ck); ok {
		return v.Bytes(), nil
	}
	return fallback()
}

// Put writes a key of the verifiable store.
func (b *BlockTxn) Put(key string, val []byte) {
	b.snap.tiers.Put(verifiablePrefix+key, cache.Of(val))
}

// Delete writes a tombstone for a key of the verifiable store.
func (b *BlockTxn) Delete(key string) {
	b.snap.tiers.Delete(verifiablePrefix + key)
}

// NonverifiablePut writes a key of the nonverifiable store.
func (b *BlockTxn) NonverifiablePut(key, val []byte) {
	b.snap.tiers.Put(nonverifiablePrefix+string(key), cache.Of(val))
}

// NonverifiableDelete writes a tombstone for a key of the nonverifiable store.
func (b *BlockTxn) NonverifiableDelete(key []byte) {
	b.snap.tiers.Delete(nonverifiablePrefix + string(key))
}

// BeginNested opens the action-scoped layer. It fails while another one is
// outstanding, so two in-flight nested mutations can never clobber each
// other on merge.
func (b *BlockTxn) BeginNested() (*ActionTxn, error) {
	select {
	case <-b.permit:
	default:
		return nil, errors.New("nested transaction outstanding")
	}
	if err := b.snap.tiers.PushDeltaDelta(); err != nil {
		b.permit <- struct{}{}
		return nil, err
	}
	return &ActionTxn{parent: b, objects: make(map[string]any)}, nil
}

// NestedOutstanding reports whether a nested transaction is live.
func (b *BlockTxn) NestedOutstanding() bool {
	return len(b.permit) == 0
}

// EmitEvent records a block-level event (lifecycle hooks).
func (b *BlockTxn) EmitEvent(ev tx.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, ev)
}

// Events returns the block-level events recorded so far.
func (b *BlockTxn) Events() tx.Events {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append(tx.Events(nil), b.events...)
}

// SetObject attaches an ephemeral, non-persisted object to the block.
func (b *BlockTxn) SetObject(key string, v any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[key] = v
}

// Object retrieves an attached object.
func (b *BlockTxn) Object(key string) (any, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	v, ok := b.objects[key]
	return v, ok
}

// WriteSets extracts the block's settled write sets, keyed by the plain
// store keys. It fails while a nested transaction is outstanding.
func (b *BlockTxn) WriteSets() (verifiable, nonverifiable map[string]cache.Value, err error) {
	if b.NestedOutstanding() {
		return nil, nil, errors.New("nested transaction outstanding")
	}
	verifiable = make(map[string]cache.Value)
	nonverifiable = make(map[string]cache.Value)
	err = b.snap.tiers.DeltaView(func(ck string, v cache.Value) bool {
		switch ck[:1] {
		case verifiablePrefix:
			verifiable[ck[1:]] = v
		case nonverifiablePrefix:
			nonverifiable[ck[1:]] = v
		}
		return true
	})
	if err != nil {
		return nil, nil, err
	}
	return verifiable, nonverifiable, nil
}
