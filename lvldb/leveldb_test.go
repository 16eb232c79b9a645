// Copyright (c) 2026 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package lvldb

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/tierstake/kv"
)

func TestLevelDB(t *testing.T) {
	var (
		key        = []byte("123")
		value      = []byte("456")
		inValidKey = []byte("abc")
	)

	persistent, err := New(filepath.Join(t.TempDir(), "lvldb"), Options{CacheSize: 16, OpenFilesCacheCapacity: 16})
	require.NoError(t, err)
	defer persistent.Close()

	mem, err := NewMem()
	require.NoError(t, err)
	defer mem.Close()

	for _, db := range []*LevelDB{persistent, mem} {
		require.NoError(t, db.Put(key, value))

		got, err := db.Get(key)
		require.NoError(t, err)
		assert.Equal(t, value, got)

		has, err := db.Has(key)
		require.NoError(t, err)
		assert.True(t, has)

		has, err = db.Has(inValidKey)
		require.NoError(t, err)
		assert.False(t, has)

		require.NoError(t, db.Delete(key))
		_, err = db.Get(key)
		assert.True(t, db.IsNotFound(err))
	}
}

func TestLevelDBBulk(t *testing.T) {
	db, err := NewMem()
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.Put([]byte("gone"), []byte("x")))

	bulk := db.Bulk()
	require.NoError(t, bulk.Put([]byte("a"), []byte("1")))
	require.NoError(t, bulk.Put([]byte("b"), []byte("2")))
	require.NoError(t, bulk.Delete([]byte("gone")))
	assert.Equal(t, 3, bulk.Len())

	has, err := db.Has([]byte("a"))
	require.NoError(t, err)
	assert.False(t, has, "bulk ops are invisible before write")

	require.NoError(t, bulk.Write())

	v, err := db.Get([]byte("b"))
	require.NoError(t, err)
	assert.Equal(t, []byte("2"), v)
	_, err = db.Get([]byte("gone"))
	assert.True(t, db.IsNotFound(err))
}

func TestLevelDBBucket(t *testing.T) {
	db, err := NewMem()
	require.NoError(t, err)
	defer db.Close()

	s := kv.Bucket("s").NewStore(db)
	require.NoError(t, s.Put([]byte("k"), []byte("v")))

	v, err := db.Get([]byte("sk"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), v)

	_, err = s.Get([]byte("missing"))
	assert.True(t, s.IsNotFound(err))
}

func TestReopen(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "db")

	db, err := New(dir, Options{})
	require.NoError(t, err)
	require.NoError(t, db.Put([]byte("k"), []byte("v")))
	require.NoError(t, db.Close())

	db, err = New(dir, Options{})
	require.NoError(t, err)
	defer db.Close()

	v, err := db.Get([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), v)
}

func TestReadOnly(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "db")

	_, err := New(dir, Options{ReadOnly: true})
	assert.Error(t, err, "missing database")

	db, err := New(dir, Options{})
	require.NoError(t, err)
	require.NoError(t, db.Put([]byte("k"), []byte("v")))
	require.NoError(t, db.Close())

	db, err = New(dir, Options{ReadOnly: true})
	require.NoError(t, err)
	defer db.Close()

	v, err := db.Get([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), v)
	assert.Error(t, db.Put([]byte("k"), []byte("w")))
	assert.Error(t, db.Bulk().Write())
}
