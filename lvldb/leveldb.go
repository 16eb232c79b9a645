// Copyright (c) 2026 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package lvldb implements kv.Store over goleveldb. Every write is synced,
// a committed ledger batch survives a crash.
package lvldb

import (
	"errors"

	pkgerrors "github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/filter"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"

	"github.com/vechain/tierstake/kv"
	"github.com/vechain/tierstake/metrics"
)

var (
	_ kv.Store = (*LevelDB)(nil)

	metricBatchOps = metrics.LazyLoadHistogramVec("lvldb_batch_ops", []string{"result"}, []int64{1, 2, 4, 8, 16, 32, 64, 128})

	writeOpt = opt.WriteOptions{Sync: true}
	readOpt  = opt.ReadOptions{}
)

// minCacheMB is the floor of both the block cache and the open files cache.
const minCacheMB = 16

// Options tune a persistent instance.
type Options struct {
	CacheSize              int // MB, split between block cache and write buffers
	OpenFilesCacheCapacity int
	// ReadOnly opens an existing database for inspection. Opening fails
	// when there is none.
	ReadOnly bool
}

// LevelDB is a goleveldb backed kv.Store.
type LevelDB struct {
	db *leveldb.DB
}

// New opens the database at path, creating it unless opts.ReadOnly is set.
func New(path string, opts Options) (*LevelDB, error) {
	stg, err := storage.OpenFile(path, opts.ReadOnly)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "open level db storage")
	}
	return open(stg, opts)
}

// NewMem creates a database held in memory, for tests and non persisted runs.
func NewMem() (*LevelDB, error) {
	return open(storage.NewMemStorage(), Options{})
}

func open(stg storage.Storage, opts Options) (*LevelDB, error) {
	cacheSize := max(opts.CacheSize, minCacheMB)
	db, err := leveldb.Open(stg, &opt.Options{
		OpenFilesCacheCapacity: max(opts.OpenFilesCacheCapacity, minCacheMB),
		BlockCacheCapacity:     cacheSize / 2 * opt.MiB,
		WriteBuffer:            cacheSize / 4 * opt.MiB, // two of these are used internally
		Filter:                 filter.NewBloomFilter(10),
		ReadOnly:               opts.ReadOnly,
		ErrorIfMissing:         opts.ReadOnly,
	})
	if err != nil {
		stg.Close()
		return nil, pkgerrors.Wrap(err, "open level db")
	}
	return &LevelDB{db: db}, nil
}

// IsNotFound reports whether err is the missing key error of Get.
func (ldb *LevelDB) IsNotFound(err error) bool {
	return errors.Is(err, leveldb.ErrNotFound)
}

func (ldb *LevelDB) Get(key []byte) ([]byte, error) {
	return ldb.db.Get(key, &readOpt)
}

func (ldb *LevelDB) Has(key []byte) (bool, error) {
	return ldb.db.Has(key, &readOpt)
}

func (ldb *LevelDB) Put(key, value []byte) error {
	return ldb.db.Put(key, value, &writeOpt)
}

func (ldb *LevelDB) Delete(key []byte) error {
	return ldb.db.Delete(key, &writeOpt)
}

// Close closes the database. Later operations fail.
func (ldb *LevelDB) Close() error {
	return ldb.db.Close()
}

// Bulk starts an atomic batch. A ledger commit is one batch.
func (ldb *LevelDB) Bulk() kv.Bulk {
	return &batch{ldb.db, new(leveldb.Batch)}
}

type batch struct {
	db *leveldb.DB
	b  *leveldb.Batch
}

func (b *batch) Put(key, value []byte) error {
	b.b.Put(key, value)
	return nil
}

func (b *batch) Delete(key []byte) error {
	b.b.Delete(key)
	return nil
}

func (b *batch) Len() int {
	return b.b.Len()
}

func (b *batch) Write() error {
	err := b.db.Write(b.b, &writeOpt)
	result := "ok"
	if err != nil {
		result = "error"
	}
	metricBatchOps().ObserveWithLabels(int64(b.b.Len()), map[string]string{"result": result})
	return err
}
