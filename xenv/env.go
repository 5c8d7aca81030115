// Copyright (c) 2025 The Arvo developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package xenv defines the execution environments handed to action
// execution and to the embedded bridge/IBC module. The module sees chain
// id, block height and block time through BlockContext and nothing else of
// the state engine.
package xenv

import "github.com/arvo-network/arvo/arvo"

// Object storage keys under which the contexts are attached to the live
// state layers. The contexts are ephemeral and never persisted.
const (
	BlockContextKey = "xenv.blockContext"
	TxContextKey    = "xenv.txContext"
	IBCModuleKey    = "xenv.ibcModule"
)

// BlockContext block context.
type BlockContext struct {
	ChainID string
	Number  uint64
	Time    uint64
	Hash    arvo.Bytes32
}

// TransactionContext transaction context.
type TransactionContext struct {
	ID     arvo.Bytes32
	Origin arvo.Address // the signer of the enclosing transaction
	Block  arvo.Bytes32 // hash of the enclosing block
}

// ObjectReader is implemented by state layers carrying ephemeral objects.
type ObjectReader interface {
	Object(key string) (any, bool)
}

// BlockContextOf retrieves the block context attached to the state layer,
// nil when outside block processing.
func BlockContextOf(st ObjectReader) *BlockContext {
	if v, ok := st.Object(BlockContextKey); ok {
		return v.(*BlockContext)
	}
	return nil
}

// TxContextOf retrieves the transaction context attached to the state
// layer, nil when outside transaction processing.
func TxContextOf(st ObjectReader) *TransactionContext {
	if v, ok := st.Object(TxContextKey); ok {
		return v.(*TransactionContext)
	}
	return nil
}
