// Copyright (c) 2026 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package accrual computes time proportional interest on locked amounts.
package accrual

import (
	"math/big"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"
)

// SecondsPerYear is the length of the accrual year.
const SecondsPerYear uint64 = 31_536_000

var (
	// denominator of the interest formula, SecondsPerYear * 100
	yearPercent = uint256.NewInt(SecondsPerYear * 100)

	ErrNegativeAmount = errors.New("accrual: negative amount")
	ErrOverflow       = errors.New("accrual: result exceeds 256 bits")
)

// Interest returns floor(amount * rate * elapsed / (SecondsPerYear * 100)).
// rate is a percentage per year and elapsed is in seconds. The intermediate
// product is computed in 512 bits.
func Interest(amount *big.Int, elapsed, rate uint64) (*big.Int, error) {
	if amount.Sign() < 0 {
		return nil, ErrNegativeAmount
	}
	a, overflow := uint256.FromBig(amount)
	if overflow {
		return nil, ErrOverflow
	}
	if a.IsZero() || elapsed == 0 || rate == 0 {
		return new(big.Int), nil
	}

	// rate*elapsed fits in 128 bits
	factor := new(uint256.Int).Mul(uint256.NewInt(rate), uint256.NewInt(elapsed))
	z, overflow := new(uint256.Int).MulDivOverflow(a, factor, yearPercent)
	if overflow {
		return nil, ErrOverflow
	}
	return z.ToBig(), nil
}
