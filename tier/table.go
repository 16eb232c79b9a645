// Copyright (c) 2026 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package tier

import (
	"math/big"
	"sort"

	"github.com/vechain/tierstake/reverts"
)

// MaxLevels bounds the size of a table, levels are reported as uint8.
const MaxLevels = 256

// ErrWrongInput is returned for any change that would break the table ordering.
var ErrWrongInput = reverts.New("wrong input values")

// Table is an ascending list of thresholds. Level i is reached when the
// amount is at least Table[i]. Level 0 starts at zero.
type Table []*big.Int

// NewTable validates values and returns a table holding copies of them.
func NewTable(values []*big.Int) (Table, error) {
	t := make(Table, len(values))
	for i, v := range values {
		if v == nil {
			return nil, ErrWrongInput
		}
		t[i] = new(big.Int).Set(v)
	}
	if err := t.validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// Uint64s builds a table from plain integers.
func Uint64s(values ...uint64) (Table, error) {
	bigs := make([]*big.Int, len(values))
	for i, v := range values {
		bigs[i] = new(big.Int).SetUint64(v)
	}
	return NewTable(bigs)
}

func (t Table) validate() error {
	if len(t) < 2 || len(t) > MaxLevels {
		return ErrWrongInput
	}
	if t[0].Sign() != 0 {
		return ErrWrongInput
	}
	for i := 1; i < len(t); i++ {
		if t[i-1].Cmp(t[i]) >= 0 {
			return ErrWrongInput
		}
	}
	return nil
}

// Levels returns the number of levels including level 0.
func (t Table) Levels() int {
	return len(t)
}

// Lookup returns the highest level whose threshold does not exceed amount.
func (t Table) Lookup(amount *big.Int) uint8 {
	if amount == nil || amount.Sign() <= 0 || len(t) == 0 {
		return 0
	}
	i := sort.Search(len(t), func(i int) bool {
		return t[i].Cmp(amount) > 0
	})
	return uint8(i - 1)
}

// Replace returns a new table holding values, which must keep the level count.
func (t Table) Replace(values []*big.Int) (Table, error) {
	if len(values) != len(t) {
		return nil, ErrWrongInput
	}
	return NewTable(values)
}

// Update returns a copy of the table with the threshold at index set to value.
// Level 0 can not be changed and value must stay strictly between its neighbours.
func (t Table) Update(index int, value *big.Int) (Table, error) {
	if index <= 0 || index >= len(t) || value == nil {
		return nil, ErrWrongInput
	}
	if value.Cmp(t[index-1]) <= 0 {
		return nil, ErrWrongInput
	}
	if index < len(t)-1 && value.Cmp(t[index+1]) >= 0 {
		return nil, ErrWrongInput
	}
	updated := t.Copy()
	updated[index] = new(big.Int).Set(value)
	return updated, nil
}

// Copy returns a deep copy.
func (t Table) Copy() Table {
	c := make(Table, len(t))
	for i, v := range t {
		c[i] = new(big.Int).Set(v)
	}
	return c
}
