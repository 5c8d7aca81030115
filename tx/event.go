// Copyright (c) 2025 The Arvo developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package tx

// Event is emitted during action execution or block lifecycle hooks and
// handed back to the consensus transport.
type Event struct {
	Type       string
	Attributes []EventAttribute
}

// EventAttribute is one key-value pair of an event.
type EventAttribute struct {
	Key   string
	Value string
}

// Events slice of events.
type Events []Event

// NewEvent creates an event from interleaved key/value strings.
// It panics when kvs is odd, which is a programming error.
func NewEvent(typ string, kvs ...string) Event {
	if len(kvs)%2 != 0 {
		panic("odd number of event attribute strings")
	}
	attrs := make([]EventAttribute, 0, len(kvs)/2)
	for i := 0; i < len(kvs); i += 2 {
		attrs = append(attrs, EventAttribute{Key: kvs[i], Value: kvs[i+1]})
	}
	return Event{Type: typ, Attributes: attrs}
}
