// Copyright (c) 2025 The Arvo developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package state implements the layered transactional views over the
// versioned store: an immutable Snapshot per committed version, one
// BlockTxn accumulating the writes of a block, and at most one ActionTxn
// nested in it which is either merged up or discarded.
package state

import (
	"errors"
	"fmt"

	"github.com/arvo-network/arvo/cache"
	"github.com/arvo-network/arvo/tx"
)

// Backend is the versioned read interface of the underlying store.
// The bool result distinguishes "no record at or below this version" from a
// stored tombstone; both read as absent but the latter is cached as such.
type Backend interface {
	ReadVerifiable(key string, version uint64) (cache.Value, bool, error)
	ReadNonverifiable(key []byte, version uint64) (cache.Value, bool, error)
}

// Reader wraps the read methods shared by all state layers.
type Reader interface {
	// Get reads a key of the verifiable store. Nil bytes mean absent.
	Get(key string) ([]byte, error)
	// NonverifiableGet reads a key of the nonverifiable store.
	NonverifiableGet(key []byte) ([]byte, error)
}

// Writer wraps the write methods of the mutable layers.
type Writer interface {
	Put(key string, val []byte)
	Delete(key string)
	NonverifiablePut(key, val []byte)
	NonverifiableDelete(key []byte)
}

// ReadWriter is a mutable state layer which can also emit events.
type ReadWriter interface {
	Reader
	Writer
	EmitEvent(ev tx.Event)
}

// cache key prefixes for the two key spaces.
const (
	verifiablePrefix    = "v"
	nonverifiablePrefix = "n"
)

var errAlreadyDone = errors.New("action transaction already applied or discarded")

// Error is the error caused by state access failure. It is fatal: block
// processing must not continue over it.
type Error struct {
	cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("state: %v", e.cause)
}

// Unwrap returns the cause.
func (e *Error) Unwrap() error { return e.cause }
