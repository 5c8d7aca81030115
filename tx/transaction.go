// Copyright (c) 2025 The Arvo developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package tx defines the transaction envelope and the closed action set.
package tx

import (
	"io"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/arvo-network/arvo/arvo"
)

// Transaction is a signed bundle of actions. Signature verification happens
// upstream; the envelope carries the recovered signer.
type Transaction struct {
	body body

	cache struct {
		id   atomic.Value
		size atomic.Value
	}
}

type body struct {
	ChainID string
	Nonce   uint32
	Signer  arvo.Address
	Actions []*actionEnvelope
}

// New creates a transaction.
func New(chainID string, nonce uint32, signer arvo.Address, actions []Action) (*Transaction, error) {
	if len(actions) == 0 {
		return nil, errors.New("no actions")
	}
	if len(actions) > arvo.MaxActionsPerTx {
		return nil, errors.New("too many actions")
	}
	envelopes := make([]*actionEnvelope, 0, len(actions))
	for _, a := range actions {
		env, err := sealAction(a)
		if err != nil {
			return nil, err
		}
		envelopes = append(envelopes, env)
	}
	return &Transaction{body: body{
		ChainID: chainID,
		Nonce:   nonce,
		Signer:  signer,
		Actions: envelopes,
	}}, nil
}

// ChainID returns the chain id the transaction is bound to.
func (t *Transaction) ChainID() string { return t.body.ChainID }

// Nonce returns the account nonce.
func (t *Transaction) Nonce() uint32 { return t.body.Nonce }

// Signer returns the upstream-verified signer address.
func (t *Transaction) Signer() arvo.Address { return t.body.Signer }

// Actions decodes and returns the contained actions.
func (t *Transaction) Actions() ([]Action, error) {
	actions := make([]Action, 0, len(t.body.Actions))
	for _, env := range t.body.Actions {
		a, err := env.open()
		if err != nil {
			return nil, err
		}
		actions = append(actions, a)
	}
	return actions, nil
}

// ID returns the transaction id, the blake2b checksum of the RLP encoding.
func (t *Transaction) ID() (id arvo.Bytes32) {
	if cached := t.cache.id.Load(); cached != nil {
		return cached.(arvo.Bytes32)
	}
	defer func() { t.cache.id.Store(id) }()

	enc, err := rlp.EncodeToBytes(&t.body)
	if err != nil {
		// the body is always encodable, it was built from encodable parts
		panic(errors.Wrap(err, "encode tx body"))
	}
	return arvo.Blake2b(enc)
}

// Size returns the encoded size of the transaction.
func (t *Transaction) Size() (size int) {
	if cached := t.cache.size.Load(); cached != nil {
		return cached.(int)
	}
	defer func() { t.cache.size.Store(size) }()

	enc, _ := rlp.EncodeToBytes(&t.body)
	return len(enc)
}

// EncodeRLP implements rlp.Encoder.
func (t *Transaction) EncodeRLP(w io.Writer) error {
	return rlp.Encode(w, &t.body)
}

// DecodeRLP implements rlp.Decoder.
func (t *Transaction) DecodeRLP(s *rlp.Stream) error {
	var b body
	if err := s.Decode(&b); err != nil {
		return err
	}
	if len(b.Actions) == 0 {
		return errors.New("no actions")
	}
	// actions must be well formed at decode time
	for _, env := range b.Actions {
		if _, err := env.open(); err != nil {
			return err
		}
	}
	*t = Transaction{body: b}
	return nil
}
