// Copyright (c) 2025 The Arvo developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package bridge

import (
	"strconv"

	"github.com/arvo-network/arvo/arvo"
	"github.com/arvo-network/arvo/state"
	"github.com/arvo-network/arvo/tx"
	"github.com/arvo-network/arvo/xenv"
)

// Module handles relayed IBC messages. The concrete protocol engine is
// injected by the host; Relay runs inside the relaying action's
// transaction, so its writes roll back with the action on failure.
type Module interface {
	Relay(blk *xenv.BlockContext, st state.ReadWriter, data []byte) ([]tx.Event, error)
}

// RecordingModule is a stand-in protocol engine. It accepts every message
// and emits an acknowledgement event carrying the message digest, leaving
// verifiable state untouched.
type RecordingModule struct{}

var _ Module = (*RecordingModule)(nil)

// Relay implements Module.
func (*RecordingModule) Relay(blk *xenv.BlockContext, _ state.ReadWriter, data []byte) ([]tx.Event, error) {
	return []tx.Event{tx.NewEvent("ibc.relay",
		"height", strconv.FormatUint(blk.Number, 10),
		"digest", arvo.Blake2b(data).String(),
	)}, nil
}
