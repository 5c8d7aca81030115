// Copyright (c) 2025 The Arvo developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package mempool holds transactions awaiting inclusion. Admission reuses
// the action construction path against the latest committed snapshot and
// never executes anything; resident transactions are re-screened on Wash
// after state moves.
package mempool

import (
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/log"
	"github.com/pkg/errors"

	"github.com/arvo-network/arvo/action"
	"github.com/arvo-network/arvo/arvo"
	"github.com/arvo-network/arvo/metrics"
	"github.com/arvo-network/arvo/store"
	"github.com/arvo-network/arvo/tx"
)

var (
	logger = log.New("pkg", "mempool")

	metricPoolGauge = metrics.LazyLoadGauge("mempool_tx_gauge")
)

var (
	// ErrKnownTx rejects a transaction already resident.
	ErrKnownTx = errors.New("known tx")
	// ErrPoolFull rejects when the pool is at its size limit.
	ErrPoolFull = errors.New("pool full")
	// ErrAccountQuota rejects when the signer has too many resident txs.
	ErrAccountQuota = errors.New("account quota exceeded")
)

// Options pool limits.
type Options struct {
	Limit           int
	LimitPerAccount int
}

type entry struct {
	trx *tx.Transaction
	seq uint64 // admission order
}

// Pool is the admission-side transaction buffer.
type Pool struct {
	store *store.Store
	opts  Options

	mu        sync.Mutex
	seq       uint64
	all       map[arvo.Bytes32]*entry
	byAccount map[arvo.Address]int
}

// New creates the pool over the store's committed snapshots.
func New(s *store.Store, opts Options) *Pool {
	return &Pool{
		store:     s,
		opts:      opts,
		all:       make(map[arvo.Bytes32]*entry),
		byAccount: make(map[arvo.Address]int),
	}
}

// Add screens the transaction against the latest committed snapshot and
// admits it. Screening failures carry the action package's rejection
// classes; limit failures carry the pool sentinels.
func (p *Pool) Add(trx *tx.Transaction) error {
	id := trx.ID()

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, found := p.all[id]; found {
		return ErrKnownTx
	}
	if p.opts.Limit > 0 && len(p.all) >= p.opts.Limit {
		return ErrPoolFull
	}
	if p.opts.LimitPerAccount > 0 && p.byAccount[trx.Signer()] >= p.opts.LimitPerAccount {
		return ErrAccountQuota
	}

	snap, err := p.store.LatestSnapshot()
	if err != nil {
		return err
	}
	if err := action.ScreenTx(snap, trx); err != nil {
		return err
	}

	p.seq++
	p.all[id] = &entry{trx: trx, seq: p.seq}
	p.byAccount[trx.Signer()]++
	metricPoolGauge().Set(int64(len(p.all)))
	logger.Debug("tx added", "id", id.AbbrevString())
	return nil
}

// Remove drops a transaction, typically after block inclusion.
func (p *Pool) Remove(id arvo.Bytes32) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.remove(id)
}

func (p *Pool) remove(id arvo.Bytes32) bool {
	e, found := p.all[id]
	if !found {
		return false
	}
	delete(p.all, id)
	signer := e.trx.Signer()
	if p.byAccount[signer]--; p.byAccount[signer] <= 0 {
		delete(p.byAccount, signer)
	}
	metricPoolGauge().Set(int64(len(p.all)))
	return true
}

// Wash re-screens every resident transaction against the then-latest
// snapshot and evicts the failures. Expected after each commit: state
// changes landed by the block may invalidate what admission accepted.
func (p *Pool) Wash() (evicted int, err error) {
	snap, err := p.store.LatestSnapshot()
	if err != nil {
		return 0, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	for id, e := range p.all {
		if werr := action.ScreenTx(snap, e.trx); werr != nil {
			if !action.IsExpected(werr) {
				return evicted, werr
			}
			p.remove(id)
			evicted++
			logger.Debug("tx washed out", "id", id.AbbrevString(), "err", werr)
		}
	}
	return evicted, nil
}

// Dump returns the resident transactions in admission order.
func (p *Pool) Dump() []*tx.Transaction {
	p.mu.Lock()
	defer p.mu.Unlock()

	entries := make([]*entry, 0, len(p.all))
	for _, e := range p.all {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].seq < entries[j].seq
	})
	txs := make([]*tx.Transaction, 0, len(entries))
	for _, e := range entries {
		txs = append(txs, e.trx)
	}
	return txs
}

// Len returns the resident transaction count.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.all)
}
