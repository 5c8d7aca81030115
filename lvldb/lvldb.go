// Copyright (c) 2025 The Arvo developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package lvldb implements the kv.Store interface on top of leveldb.
package lvldb

import (
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	dberrors "github.com/syndtr/goleveldb/leveldb/errors"
	"github.com/syndtr/goleveldb/leveldb/filter"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/arvo-network/arvo/kv"
)

var (
	writeOpt = &opt.WriteOptions{}
	readOpt  = &opt.ReadOptions{}
)

// Options options for creating level db instance.
type Options struct {
	CacheSize              int
	OpenFilesCacheCapacity int
}

// LevelDB wraps level db handles.
type LevelDB struct {
	db *leveldb.DB
}

var _ kv.Store = (*LevelDB)(nil)

// New create a persistent level db instance.
// Create an empty one if the db at the given path does not exist.
func New(path string, opts Options) (*LevelDB, error) {
	stg, err := storage.OpenFile(path, false)
	if err != nil {
		return nil, errors.Wrap(err, "open level db")
	}
	db, err := openLevelDB(stg, opts)
	if err != nil {
		stg.Close()
		return nil, err
	}
	return db, nil
}

// NewMem create a level db in memory.
func NewMem() (*LevelDB, error) {
	return openLevelDB(storage.NewMemStorage(), Options{})
}

func openLevelDB(stg storage.Storage, opts Options) (*LevelDB, error) {
	if opts.CacheSize < 16 {
		opts.CacheSize = 16
	}
	if opts.OpenFilesCacheCapacity < 16 {
		opts.OpenFilesCacheCapacity = 16
	}

	db, err := leveldb.Open(stg, &opt.Options{
		OpenFilesCacheCapacity: opts.OpenFilesCacheCapacity,
		BlockCacheCapacity:     opts.CacheSize / 2 * opt.MiB,
		WriteBuffer:            opts.CacheSize / 4 * opt.MiB, // two of these are used internally
		Filter:                 filter.NewBloomFilter(10),
	})
	if _, corrupted := err.(*dberrors.ErrCorrupted); corrupted {
		db, err = leveldb.Recover(stg, nil)
	}
	if err != nil {
		return nil, errors.Wrap(err, "open level db")
	}
	return &LevelDB{db: db}, nil
}

// Get retrieves value for the given key.
func (l *LevelDB) Get(key []byte) ([]byte, error) {
	return l.db.Get(key, readOpt)
}

// Has returns whether the given key exists.
func (l *LevelDB) Has(key []byte) (bool, error) {
	return l.db.Has(key, readOpt)
}

// IsNotFound tells whether the error means key not found.
func (l *LevelDB) IsNotFound(err error) bool {
	return err == leveldb.ErrNotFound
}

// Put saves the key value pair.
func (l *LevelDB) Put(key, val []byte) error {
	return l.db.Put(key, val, writeOpt)
}

// Delete removes the key.
func (l *LevelDB) Delete(key []byte) error {
	return l.db.Delete(key, writeOpt)
}

// NewBatch creates a batch for atomic writes.
func (l *LevelDB) NewBatch() kv.Batch {
	return &batch{l.db, &leveldb.Batch{}}
}

// NewIterator creates an iterator over the given key range.
func (l *LevelDB) NewIterator(r kv.Range) kv.Iterator {
	return l.db.NewIterator(&util.Range{Start: r.Start, Limit: r.Limit}, readOpt)
}

// Close closes the db.
func (l *LevelDB) Close() error {
	return l.db.Close()
}

type batch struct {
	db    *leveldb.DB
	batch *leveldb.Batch
}

func (b *batch) Put(key, val []byte) error {
	b.batch.Put(key, val)
	return nil
}

func (b *batch) Delete(key []byte) error {
	b.batch.Delete(key)
	return nil
}

func (b *batch) Len() int { return b.batch.Len() }

func (b *batch) Write() error {
	return b.db.Write(b.batch, writeOpt)
}
