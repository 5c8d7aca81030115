// Copyright (c) 2025 The Arvo developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package store

import (
	"encoding/binary"
	"io"
	"sort"

	"github.com/pkg/errors"

	"github.com/arvo-network/arvo/arvo"
	"github.com/arvo-network/arvo/cache"
	"github.com/arvo-network/arvo/metrics"
	"github.com/arvo-network/arvo/state"
)

var metricCommitCount = metrics.LazyLoadCounter("store_commit_count")

type stagedWrite struct {
	key []byte // in-bucket record key, already versioned
	val cache.Value
}

// Stage holds a block's write set prepared for commit: the records of the
// next version plus its root hash. Staging fails while the block
// transaction has an outstanding nested transaction.
type Stage struct {
	store         *Store
	base          uint64
	root          arvo.Bytes32
	verifiable    []stagedWrite
	nonverifiable []stagedWrite
}

// Stage prepares the block transaction for commit.
func (s *Store) Stage(btx *state.BlockTxn) (*Stage, error) {
	base := btx.Snapshot().Version()
	if latest := s.LatestVersion(); base != latest {
		return nil, errors.Errorf("stale block transaction: version %d, latest %d", base, latest)
	}
	verifiable, nonverifiable, err := btx.WriteSets()
	if err != nil {
		return nil, errors.WithMessage(err, "stage")
	}

	next := base + 1

	// deterministic order for the root digest
	vkeys := make([]string, 0, len(verifiable))
	for k := range verifiable {
		vkeys = append(vkeys, k)
	}
	sort.Strings(vkeys)

	prevRoot, err := s.RootAt(base)
	if err != nil {
		return nil, err
	}
	root := chainRoot(prevRoot, vkeys, verifiable)

	vwrites := make([]stagedWrite, 0, len(verifiable))
	for _, k := range vkeys {
		vwrites = append(vwrites, stagedWrite{
			key: recordKey([]byte(k), next),
			val: verifiable[k],
		})
	}
	nwrites := make([]stagedWrite, 0, len(nonverifiable))
	for k, v := range nonverifiable {
		nwrites = append(nwrites, stagedWrite{
			key: recordKey([]byte(k), next),
			val: v,
		})
	}

	return &Stage{
		store:         s,
		base:          base,
		root:          root,
		verifiable:    vwrites,
		nonverifiable: nwrites,
	}, nil
}

// Commit stages and commits the block transaction in one go.
func (s *Store) Commit(btx *state.BlockTxn) (arvo.Bytes32, error) {
	stage, err := s.Stage(btx)
	if err != nil {
		return arvo.Bytes32{}, err
	}
	return stage.Commit()
}

// Hash returns the root hash the commit will produce.
func (st *Stage) Hash() arvo.Bytes32 {
	return st.root
}

// Version returns the version the commit will produce.
func (st *Stage) Version() uint64 {
	return st.base + 1
}

// Commit atomically writes the staged records and advances the version by
// exactly 1. It fails if another commit landed since staging.
func (st *Stage) Commit() (arvo.Bytes32, error) {
	s := st.store
	s.commitMu.Lock()
	defer s.commitMu.Unlock()

	if latest := s.latest.Load(); latest != st.base {
		return arvo.Bytes32{}, errors.Errorf("stale stage: base %d, latest %d", st.base, latest)
	}
	next := st.base + 1

	batch := s.kvs.NewBatch()
	vput := verifiableBucket.ProxyPutter(batch)
	for _, w := range st.verifiable {
		if err := vput.Put(w.key, encodeRecord(w.val)); err != nil {
			return arvo.Bytes32{}, errors.Wrap(err, "stage record")
		}
	}
	nput := nonverifiableBucket.ProxyPutter(batch)
	for _, w := range st.nonverifiable {
		if err := nput.Put(w.key, encodeRecord(w.val)); err != nil {
			return arvo.Bytes32{}, errors.Wrap(err, "stage record")
		}
	}
	pput := propsBucket.ProxyPutter(batch)
	if err := pput.Put(rootKey(next), st.root.Bytes()); err != nil {
		return arvo.Bytes32{}, errors.Wrap(err, "stage root")
	}
	if err := pput.Put([]byte(versionKey), appendVersion(nil, next)); err != nil {
		return arvo.Bytes32{}, errors.Wrap(err, "stage version")
	}
	if err := batch.Write(); err != nil {
		return arvo.Bytes32{}, errors.Wrap(err, "commit batch")
	}

	records := len(st.verifiable) + len(st.nonverifiable)
	s.latest.Store(next)
	metricCommitCount().Add(1)
	logger.Debug("committed block state", "version", next, "records", records, "root", st.root.AbbrevString())
	return st.root, nil
}

// chainRoot derives the next root as the checksum of the previous root and
// the digest of the sorted verifiable changeset. Committing to the change
// history commits to the full verifiable state at every version.
func chainRoot(prev arvo.Bytes32, sortedKeys []string, changes map[string]cache.Value) arvo.Bytes32 {
	digest := arvo.Blake2bFn(func(w io.Writer) {
		var lenBuf [4]byte
		for _, k := range sortedKeys {
			binary.BigEndian.PutUint32(lenBuf[:], uint32(len(k)))
			w.Write(lenBuf[:])
			w.Write([]byte(k))
			w.Write(encodeRecord(changes[k]))
		}
	})
	return arvo.Blake2b(prev.Bytes(), digest.Bytes())
}
