// Copyright (c) 2026 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package storage

import (
	"reflect"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/vechain/tierstake/types"
)

// Raw stores a single RLP encoded value at a fixed position.
type Raw[T any] struct {
	context *Context
	pos     types.Bytes32
}

func NewRaw[T any](context *Context, pos types.Bytes32) *Raw[T] {
	return &Raw[T]{context: context, pos: pos}
}

// Get returns the stored value. An unset slot yields the zero value, or a
// freshly allocated zero value when T is a pointer type.
func (r *Raw[T]) Get() (value T, err error) {
	raw, err := r.context.get(r.pos)
	if err != nil {
		return value, err
	}
	return decode[T](raw)
}

func (r *Raw[T]) Set(value T) error {
	val, err := rlp.EncodeToBytes(value)
	if err != nil {
		return err
	}
	return r.context.set(r.pos, val)
}

func decode[T any](raw []byte) (value T, err error) {
	if t := reflect.TypeOf(value); t != nil && t.Kind() == reflect.Ptr {
		value = reflect.New(t.Elem()).Interface().(T)
	}
	if len(raw) == 0 {
		return value, nil
	}
	err = rlp.DecodeBytes(raw, &value)
	return
}
