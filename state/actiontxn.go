// Copyright (c) 2025 The Arvo developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"github.com/arvo-network/arvo/cache"
	"github.com/arvo-network/arvo/tx"
)

// ActionTxn is the nested mutable layer scoped to one transaction being
// checked and executed. Its writes become visible to the block only through
// Apply; Discard drops them without a trace. One of the two must be called,
// and Discard after Apply is a no-op, so the idiom is:
//
//	atx, err := btx.BeginNested()
//	...
//	defer atx.Discard()
//	...
//	events, err := atx.Apply()
type ActionTxn struct {
	parent  *BlockTxn
	events  tx.Events
	objects map[string]any
	done    bool
}

var _ ReadWriter = (*ActionTxn)(nil)

// Get reads a key of the verifiable store, seeing the action's own writes
// first, then the block's, then the snapshot.
func (a *ActionTxn) Get(key string) ([]byte, error) {
	return a.parent.Get(key)
}

// NonverifiableGet reads a key of the nonverifiable store.
func (a *ActionTxn) NonverifiableGet(key []byte) ([]byte, error) {
	return a.parent.NonverifiableGet(key)
}

// Put writes a key of the verifiable store into the action's layer.
func (a *ActionTxn) Put(key string, val []byte) {
	a.parent.snap.tiers.Put(verifiablePrefix+key, cache.Of(val))
}

// Delete writes a tombstone into the action's layer.
func (a *ActionTxn) Delete(key string) {
	a.parent.snap.tiers.Delete(verifiablePrefix + key)
}

// NonverifiablePut writes a key of the nonverifiable store into the
// action's layer.
func (a *ActionTxn) NonverifiablePut(key, val []byte) {
	a.parent.snap.tiers.Put(nonverifiablePrefix+string(key), cache.Of(val))
}

// NonverifiableDelete writes a tombstone into the action's layer.
func (a *ActionTxn) NonverifiableDelete(key []byte) {
	a.parent.snap.tiers.Delete(nonverifiablePrefix + string(key))
}

// EmitEvent records an event to be returned on Apply.
func (a *ActionTxn) EmitEvent(ev tx.Event) {
	a.events = append(a.events, ev)
}

// SetObject attaches an ephemeral, non-persisted object to the action.
func (a *ActionTxn) SetObject(key string, v any) {
	a.objects[key] = v
}

// Object retrieves an attached object, falling back to the block's objects.
func (a *ActionTxn) Object(key string) (any, bool) {
	if v, ok := a.objects[key]; ok {
		return v, true
	}
	return a.parent.Object(key)
}

// Apply merges the action's writes into the block and returns the emitted
// events, releasing the nesting permit.
func (a *ActionTxn) Apply() (tx.Events, error) {
	if a.done {
		return nil, &Error{cause: errAlreadyDone}
	}
	if err := a.parent.snap.tiers.PromoteInner(); err != nil {
		return nil, &Error{cause: err}
	}
	a.done = true
	a.parent.permit <- struct{}{}
	return a.events, nil
}

// Discard drops the action's writes and releases the nesting permit.
// It is safe to call after Apply.
func (a *ActionTxn) Discard() {
	if a.done {
		return
	}
	// the delta-delta tier is known active while the action is live
	_ = a.parent.snap.tiers.DiscardInner()
	a.done = true
	a.events = nil
	a.parent.permit <- struct{}{}
}
