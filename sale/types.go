// Copyright (c) 2026 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package sale

import (
	"encoding/binary"
	"math/big"

	"github.com/vechain/tierstake/types"
)

// Ledger moves value in and out of custody. Calls happen while the factory
// holds its storage context.
type Ledger interface {
	Escrow(account types.Address, amount *big.Int) error
	Release(account types.Address, amount *big.Int) error
}

// Asset is a token offered for sale.
type Asset interface {
	Ledger
	// Decimals is read before the storage context is taken.
	Decimals() (uint8, error)
}

// Tiers ranks buyers. Calls happen while the factory holds its storage context.
type Tiers interface {
	TierOf(holder types.Address) (uint8, error)
}

// Params describes a new sale.
type Params struct {
	Name        string
	Asset       string
	Admin       types.Address
	Softcap     *big.Int
	Limits      []*big.Int // per tier purchase cap in asset units
	Start       uint64
	End         uint64
	Price       *big.Int // payment units per whole asset token
	Description string
}

// Sale is the state of one sale.
type Sale struct {
	Name            string
	Asset           string
	Decimals        uint8
	Admin           types.Address
	Softcap         *big.Int
	Limits          []*big.Int
	Start           uint64
	End             uint64
	Price           *big.Int
	Description     string
	Approved        bool
	Hardcap         *big.Int // asset units deposited for sale
	Sold            *big.Int
	Raised          *big.Int
	Participants    uint64
	ResultWithdrawn bool
}

func (s *Sale) normalize() *Sale {
	for _, v := range []**big.Int{&s.Softcap, &s.Price, &s.Hardcap, &s.Sold, &s.Raised} {
		if *v == nil {
			*v = new(big.Int)
		}
	}
	return s
}

// Active reports whether tokens can be bought at now.
func (s *Sale) Active(now uint64) bool {
	return s.Approved && now >= s.Start && now < s.End
}

// Ended reports whether the sale window is over at now.
func (s *Sale) Ended(now uint64) bool {
	return now >= s.End
}

// Succeeded reports whether the softcap has been reached.
func (s *Sale) Succeeded() bool {
	return s.Sold.Cmp(s.Softcap) >= 0
}

// Limit returns the purchase cap of level. Levels past the configured
// limits use the last one.
func (s *Sale) Limit(level uint8) *big.Int {
	if len(s.Limits) == 0 {
		return new(big.Int)
	}
	return s.Limits[min(int(level), len(s.Limits)-1)]
}

// Quote returns the asset amount payment buys at the current price.
func (s *Sale) Quote(payment *big.Int) *big.Int {
	unit := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(s.Decimals)), nil)
	amount := new(big.Int).Mul(payment, unit)
	return amount.Quo(amount, s.Price)
}

// Purchase is what a buyer paid and is owed in one sale.
type Purchase struct {
	Paid   *big.Int
	Bought *big.Int
}

func (p *Purchase) normalize() *Purchase {
	if p.Paid == nil {
		p.Paid = new(big.Int)
	}
	if p.Bought == nil {
		p.Bought = new(big.Int)
	}
	return p
}

type purchaseKey struct {
	sale  uint64
	buyer types.Address
}

func (k purchaseKey) Bytes() []byte {
	return append(binary.BigEndian.AppendUint64(nil, k.sale), k.buyer.Bytes()...)
}

// Result is what the sale admin collected.
type Result struct {
	Proceeds *big.Int // payment
	Unsold   *big.Int // asset
}
