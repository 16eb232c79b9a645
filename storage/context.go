// Copyright (c) 2026 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package storage

import (
	"bytes"
	"sync"

	"github.com/pkg/errors"

	"github.com/vechain/tierstake/cache"
	"github.com/vechain/tierstake/kv"
	"github.com/vechain/tierstake/log"
	"github.com/vechain/tierstake/types"
)

var logger = log.WithContext("pkg", "storage")

// ErrReadOnly is returned when a slot is written outside Exec.
var ErrReadOnly = errors.New("storage: write outside Exec")

// Context is the staged state shared by the services built on top of it.
// Writes go to an overlay which is committed as a single batch when the
// enclosing Exec returns nil, and discarded otherwise.
// All slot access must happen inside Exec or View.
type Context struct {
	mu      sync.RWMutex
	store   kv.Store
	cache   *cache.LRU
	pending map[types.Bytes32][]byte
	hooks   []func()
	writing bool
}

// NewContext creates a context over store with a read cache of cacheSize entries.
func NewContext(store kv.Store, cacheSize int) (*Context, error) {
	if cacheSize <= 0 {
		cacheSize = 1024
	}
	c, err := cache.NewLRU(cacheSize)
	if err != nil {
		return nil, errors.Wrap(err, "new read cache")
	}
	return &Context{
		store:   store,
		cache:   c,
		pending: make(map[types.Bytes32][]byte),
	}, nil
}

// Exec runs fn with exclusive access. Changes made by fn are committed
// atomically if fn returns nil, otherwise none of them become visible.
// Functions registered by AfterCommit run once the lock is released.
func (c *Context) Exec(fn func() error) error {
	hooks, err := c.exec(fn)
	if err != nil {
		return err
	}
	for _, hook := range hooks {
		hook()
	}
	return nil
}

func (c *Context) exec(fn func() error) ([]func(), error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.writing = true
	defer func() {
		c.writing = false
		c.hooks = nil
		clear(c.pending)
	}()

	if err := fn(); err != nil {
		if n := len(c.pending); n > 0 {
			logger.Trace("discard staged changes", "slots", n, "err", err)
		}
		return nil, err
	}
	if err := c.commit(); err != nil {
		return nil, err
	}
	return c.hooks, nil
}

// AfterCommit registers fn to run after the enclosing Exec has committed.
// fn is dropped if the Exec fails.
func (c *Context) AfterCommit(fn func()) error {
	if !c.writing {
		return ErrReadOnly
	}
	c.hooks = append(c.hooks, fn)
	return nil
}

// View runs fn against committed state. Views may run concurrently with
// each other but never with Exec.
func (c *Context) View(fn func() error) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return fn()
}

func (c *Context) commit() error {
	if len(c.pending) == 0 {
		return nil
	}
	bulk := c.store.Bulk()
	for pos, val := range c.pending {
		var err error
		if len(val) == 0 {
			err = bulk.Delete(pos.Bytes())
		} else {
			err = bulk.Put(pos.Bytes(), val)
		}
		if err != nil {
			return errors.Wrap(err, "stage batch")
		}
	}
	if err := bulk.Write(); err != nil {
		return errors.Wrap(err, "commit batch")
	}
	for pos, val := range c.pending {
		c.cache.Add(pos, val)
	}
	return nil
}

// get returns the raw value at pos, nil if absent.
func (c *Context) get(pos types.Bytes32) ([]byte, error) {
	if c.writing {
		if val, ok := c.pending[pos]; ok {
			return val, nil
		}
	}
	val, err := c.cache.GetOrLoad(pos, func(key any) (any, error) {
		k := key.(types.Bytes32)
		v, err := c.store.Get(k.Bytes())
		if err != nil {
			if c.store.IsNotFound(err) {
				return []byte(nil), nil
			}
			return nil, err
		}
		return v, nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "load slot")
	}
	return val.([]byte), nil
}

// set stages val at pos. An empty val clears the slot.
func (c *Context) set(pos types.Bytes32, val []byte) error {
	if !c.writing {
		return ErrReadOnly
	}
	if cur, err := c.get(pos); err == nil && bytes.Equal(cur, val) {
		return nil
	}
	c.pending[pos] = val
	return nil
}
