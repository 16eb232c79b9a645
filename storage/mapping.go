// Copyright (c) 2026 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package storage

import (
	"encoding/binary"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/vechain/tierstake/types"
)

type Key interface {
	Bytes() []byte
}

// Uint64 is a numeric mapping key.
type Uint64 uint64

func (u Uint64) Bytes() []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(u))
	return b[:]
}

// Mapping is a keyed storage abstraction, similar to the mapping in Solidity.
// The position of each entry is derived from the key and the base position.
type Mapping[K Key, V any] struct {
	context *Context
	basePos types.Bytes32
}

func NewMapping[K Key, V any](context *Context, pos types.Bytes32) *Mapping[K, V] {
	return &Mapping[K, V]{context: context, basePos: pos}
}

func (m *Mapping[K, V]) position(key K) types.Bytes32 {
	return types.Blake2b(key.Bytes(), m.basePos.Bytes())
}

func (m *Mapping[K, V]) Get(key K) (value V, err error) {
	raw, err := m.context.get(m.position(key))
	if err != nil {
		return value, err
	}
	return decode[V](raw)
}

// Exists reports whether a value has been set for key.
func (m *Mapping[K, V]) Exists(key K) (bool, error) {
	raw, err := m.context.get(m.position(key))
	if err != nil {
		return false, err
	}
	return len(raw) > 0, nil
}

func (m *Mapping[K, V]) Set(key K, value V) error {
	val, err := rlp.EncodeToBytes(value)
	if err != nil {
		return err
	}
	return m.context.set(m.position(key), val)
}

func (m *Mapping[K, V]) Delete(key K) error {
	return m.context.set(m.position(key), nil)
}
