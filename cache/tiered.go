// Copyright (c) 2025 The Arvo developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package cache implements the tiered write-through overlay backing the
// layered transactional state. Three tiers mirror the state layers:
//
//	snapshot    shared read cache, lives as long as the snapshot
//	delta       write set of one block
//	delta-delta write set of one action, merged up or discarded
//
// Lookups go innermost first; the newest tier's verdict wins. Deletions are
// recorded as tombstones so they shadow entries of outer tiers.
package cache

import (
	"sync"

	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"
)

// Tiered is the three-tier overlay. Tier transitions are mutually exclusive
// with reads and writes; a single RWMutex guards the whole structure.
//
// Structural invariants, enforced by the Push/Promote/Discard methods:
// the delta tier can only be created when no delta-delta tier exists, the
// delta-delta tier requires an active delta tier, and at most one of
// {snapshot, snapshot+delta, snapshot+delta+delta-delta} is active.
type Tiered struct {
	mu         sync.RWMutex
	snapshot   *lru.Cache // bounded, shared read tier
	delta      map[string]Value
	deltaDelta map[string]Value
}

// NewTiered creates the overlay with the given read tier capacity.
func NewTiered(readCapacity int) (*Tiered, error) {
	if readCapacity < 1 {
		readCapacity = 1
	}
	snapshot, err := lru.New(readCapacity)
	if err != nil {
		return nil, err
	}
	return &Tiered{snapshot: snapshot}, nil
}

// PushDelta activates the delta tier.
func (t *Tiered) PushDelta() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.delta != nil {
		return errors.New("delta tier already active")
	}
	t.delta = make(map[string]Value)
	return nil
}

// PushDeltaDelta activates the delta-delta tier.
func (t *Tiered) PushDeltaDelta() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.delta == nil {
		return errors.New("no delta tier to nest into")
	}
	if t.deltaDelta != nil {
		return errors.New("delta-delta tier already active")
	}
	t.deltaDelta = make(map[string]Value)
	return nil
}

// Get looks the key up across active tiers, innermost first.
// The second return value reports whether any tier held a verdict.
func (t *Tiered) Get(key string) (Value, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.deltaDelta != nil {
		if v, ok := t.deltaDelta[key]; ok {
			return v, true
		}
	}
	if t.delta != nil {
		if v, ok := t.delta[key]; ok {
			return v, true
		}
	}
	if v, ok := t.snapshot.Get(key); ok {
		return v.(Value), true
	}
	return Value{}, false
}

// Peek looks the key up in the snapshot tier only, ignoring any active
// mutable tiers. Snapshot readers use it so that a live block's uncommitted
// writes never leak into committed-version reads.
func (t *Tiered) Peek(key string) (Value, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if v, ok := t.snapshot.Get(key); ok {
		return v.(Value), true
	}
	return Value{}, false
}

// Put records the value into the innermost active tier.
func (t *Tiered) Put(key string, v Value) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch {
	case t.deltaDelta != nil:
		t.deltaDelta[key] = v
	case t.delta != nil:
		t.delta[key] = v
	default:
		t.snapshot.Add(key, v)
	}
}

// Delete records a tombstone into the innermost active tier. The entry of
// an outer tier, if any, is left in place and merely shadowed.
func (t *Tiered) Delete(key string) {
	t.Put(key, Deleted())
}

// CacheRead records a backend fetch result into the snapshot tier,
// regardless of which tiers are active. It never overwrites an existing
// entry, so a fetch completing late cannot clobber a newer verdict.
func (t *Tiered) CacheRead(key string, v Value) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.snapshot.Get(key); !ok {
		t.snapshot.Add(key, v)
	}
}

// PromoteInner drains the delta-delta tier into the delta tier.
func (t *Tiered) PromoteInner() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.deltaDelta == nil {
		return errors.New("no delta-delta tier to promote")
	}
	for k, v := range t.deltaDelta {
		t.delta[k] = v
	}
	t.deltaDelta = nil
	return nil
}

// PromoteOuter drains the delta tier into the snapshot tier.
func (t *Tiered) PromoteOuter() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.deltaDelta != nil {
		return errors.New("delta-delta tier still active")
	}
	if t.delta == nil {
		return errors.New("no delta tier to promote")
	}
	for k, v := range t.delta {
		t.snapshot.Add(k, v)
	}
	t.delta = nil
	return nil
}

// DiscardInner clears the innermost mutable tier without promotion.
func (t *Tiered) DiscardInner() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch {
	case t.deltaDelta != nil:
		t.deltaDelta = nil
	case t.delta != nil:
		t.delta = nil
	default:
		return errors.New("no mutable tier to discard")
	}
	return nil
}

// HasDelta reports whether the delta tier is active.
func (t *Tiered) HasDelta() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.delta != nil
}

// HasDeltaDelta reports whether the delta-delta tier is active.
func (t *Tiered) HasDeltaDelta() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.deltaDelta != nil
}

// DeltaView calls fn for every entry of the delta tier. It fails while a
// delta-delta tier is active, since the delta write set is not settled yet.
func (t *Tiered) DeltaView(fn func(key string, v Value) bool) error {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.deltaDelta != nil {
		return errors.New("delta-delta tier still active")
	}
	if t.delta == nil {
		return errors.New("no delta tier")
	}
	for k, v := range t.delta {
		if !fn(k, v) {
			break
		}
	}
	return nil
}
