// Copyright (c) 2026 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package tier

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/tierstake/storage"
	"github.com/vechain/tierstake/types"
)

var slotThresholds = types.BytesToBytes32([]byte("tier-thresholds"))

// Index is the persisted tier table.
type Index struct {
	thresholds *storage.Raw[[]*big.Int]
}

func NewIndex(sctx *storage.Context) *Index {
	return &Index{
		thresholds: storage.NewRaw[[]*big.Int](sctx, slotThresholds),
	}
}

// Table loads the current table.
func (x *Index) Table() (Table, error) {
	values, err := x.thresholds.Get()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get tier thresholds")
	}
	if len(values) == 0 {
		return nil, errors.New("tier table not initialized")
	}
	return Table(values), nil
}

// Initialized reports whether a table has been stored.
func (x *Index) Initialized() (bool, error) {
	values, err := x.thresholds.Get()
	if err != nil {
		return false, errors.Wrap(err, "failed to get tier thresholds")
	}
	return len(values) > 0, nil
}

// Set stores t, which must be a valid table.
func (x *Index) Set(t Table) error {
	if err := t.validate(); err != nil {
		return err
	}
	return x.thresholds.Set([]*big.Int(t))
}

func (x *Index) Lookup(amount *big.Int) (uint8, error) {
	t, err := x.Table()
	if err != nil {
		return 0, err
	}
	return t.Lookup(amount), nil
}

// Replace swaps the whole table. Cached account levels are left untouched.
func (x *Index) Replace(values []*big.Int) error {
	t, err := x.Table()
	if err != nil {
		return err
	}
	updated, err := t.Replace(values)
	if err != nil {
		return err
	}
	return x.thresholds.Set([]*big.Int(updated))
}

// Update changes a single threshold.
func (x *Index) Update(index int, value *big.Int) error {
	t, err := x.Table()
	if err != nil {
		return err
	}
	updated, err := t.Update(index, value)
	if err != nil {
		return err
	}
	return x.thresholds.Set([]*big.Int(updated))
}
