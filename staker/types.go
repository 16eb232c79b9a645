// Copyright (c) 2026 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"encoding/binary"
	"math/big"

	"github.com/vechain/tierstake/accrual"
	"github.com/vechain/tierstake/tier"
	"github.com/vechain/tierstake/types"
)

// Ledger is the value ledger the engine escrows into and issues rewards from.
// Calls happen while the engine holds its storage context, a failed call
// aborts the whole operation.
type Ledger interface {
	// Escrow moves amount from account into the engine's custody.
	Escrow(account types.Address, amount *big.Int) error
	// Release returns escrowed value to account.
	Release(account types.Address, amount *big.Int) error
	// Issue mints amount to account, subject to the issuance quota.
	Issue(account types.Address, amount *big.Int) error
	// Balance reads the spendable balance of account.
	Balance(account types.Address) (*big.Int, error)
}

// Stake is a single lock of value.
type Stake struct {
	Owner    types.Address
	Amount   *big.Int
	OpenedAt uint64
	Active   bool
	ClosedAt uint64   // zero while active
	Reward   *big.Int // paid on withdrawal
}

// account is the per holder aggregate. Stake ids are kept in their own
// slots so the record stays the same size however many stakes are opened.
type account struct {
	Locked *big.Int
	Tier   uint8
}

// holderIndex addresses the n-th stake id of a holder.
type holderIndex struct {
	holder types.Address
	n      uint64
}

func (k holderIndex) Bytes() []byte {
	return binary.BigEndian.AppendUint64(k.holder.Bytes(), k.n)
}

// Account is a snapshot of a holder.
type Account struct {
	Balance *big.Int
	Locked  *big.Int
	Tier    uint8
	Stakes  []uint64
}

func (a *account) normalize() *account {
	if a.Locked == nil {
		a.Locked = new(big.Int)
	}
	return a
}

// Genesis holds the initial engine parameters.
type Genesis struct {
	Admin types.Address
	APR   uint64
	Mode  accrual.Mode
	Tiers tier.Table
}

// Params is a snapshot of the engine parameters and totals.
type Params struct {
	Admin         types.Address
	APR           uint64
	Mode          accrual.Mode
	Levels        int
	NextStakeID   uint64
	TotalLocked   *big.Int
	MintedRewards *big.Int
	RateHistory   []accrual.RateChange
}
