// Copyright (c) 2025 The Arvo developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package cache

// Value is the cached verdict for a key. It is a two-case sum: either the
// key is known deleted (a tombstone), or it is present with bytes.
// A Value is distinct from "not cached": once a tombstone is cached, lookups
// short-circuit without consulting outer tiers or the backend.
type Value struct {
	bytes  []byte
	absent bool
}

// Of returns a present value holding the given bytes.
func Of(b []byte) Value {
	return Value{bytes: b}
}

// Deleted returns a tombstone value.
func Deleted() Value {
	return Value{absent: true}
}

// Absent returns whether the value is a tombstone.
func (v Value) Absent() bool { return v.absent }

// Bytes returns the held bytes, nil for a tombstone.
func (v Value) Bytes() []byte {
	if v.absent {
		return nil
	}
	return v.bytes
}
