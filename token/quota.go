// Copyright (c) 2026 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package token

import (
	"math/big"

	"github.com/vechain/tierstake/accrual"
)

const (
	// FirstPeriod is the length of mint period 0.
	FirstPeriod = 3 * accrual.SecondsPerYear
	// Period is the length of every later mint period.
	Period = accrual.SecondsPerYear
)

// PeriodAt returns the mint period active at now for a ledger started at start.
func PeriodAt(start, now uint64) uint64 {
	if now < start+FirstPeriod {
		return 0
	}
	return 1 + (now-start-FirstPeriod)/Period
}

// PeriodQuota is the amount mintable in a period at the given permit rate.
func PeriodQuota(initialSupply *big.Int, rate uint64) *big.Int {
	q := new(big.Int).Mul(initialSupply, new(big.Int).SetUint64(rate))
	return q.Div(q, big.NewInt(100))
}
