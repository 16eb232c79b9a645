// Copyright (c) 2026 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package kv

// Bucket is a key prefix. Views created from it share the underlying store
// but only see keys under the prefix, and see them with the prefix stripped.
type Bucket string

// NewGetter creates a bucket getter from the source getter.
func (b Bucket) NewGetter(src Getter) Getter {
	return &bucketGetter{b, src}
}

// NewPutter creates a bucket putter from the source putter.
func (b Bucket) NewPutter(src Putter) Putter {
	return &bucketPutter{b, src}
}

// NewStore creates a bucket store from the source store.
func (b Bucket) NewStore(src Store) Store {
	return &bucketStore{bucketGetter{b, src}, bucketPutter{b, src}, src}
}

// key returns a fresh slice, batch implementations may retain it.
func (b Bucket) key(key []byte) []byte {
	k := make([]byte, 0, len(b)+len(key))
	return append(append(k, b...), key...)
}

type bucketGetter struct {
	b   Bucket
	src Getter
}

func (g *bucketGetter) Get(key []byte) ([]byte, error) { return g.src.Get(g.b.key(key)) }
func (g *bucketGetter) Has(key []byte) (bool, error)   { return g.src.Has(g.b.key(key)) }
func (g *bucketGetter) IsNotFound(err error) bool      { return g.src.IsNotFound(err) }

type bucketPutter struct {
	b   Bucket
	src Putter
}

func (p *bucketPutter) Put(key, val []byte) error { return p.src.Put(p.b.key(key), val) }
func (p *bucketPutter) Delete(key []byte) error   { return p.src.Delete(p.b.key(key)) }

type bucketStore struct {
	bucketGetter
	bucketPutter
	src Store
}

func (s *bucketStore) Bulk() Bulk {
	bulk := s.src.Bulk()
	return &bucketBulk{bucketPutter{s.bucketPutter.b, bulk}, bulk}
}

type bucketBulk struct {
	bucketPutter
	bulk Bulk
}

func (b *bucketBulk) Len() int     { return b.bulk.Len() }
func (b *bucketBulk) Write() error { return b.bulk.Write() }
