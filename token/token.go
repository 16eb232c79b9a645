// Copyright (c) 2026 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package token implements the value ledger the stake engine escrows into and
// issues rewards from. New supply is limited per period by a permit rate
// assigned by the DAO.
package token

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/tierstake/log"
	"github.com/vechain/tierstake/metrics"
	"github.com/vechain/tierstake/storage"
	"github.com/vechain/tierstake/types"
)

var (
	logger = log.WithContext("pkg", "token")

	metricIssued = metrics.LazyLoadCounterVec("token_issued_count", []string{"kind"})

	// CustodyAddress holds escrowed balances.
	CustodyAddress = types.BytesToAddress([]byte("tierstake-custody"))

	slotBalances    = types.BytesToBytes32([]byte("token-balances"))
	slotAllowances  = types.BytesToBytes32([]byte("token-allowances"))
	slotMinted      = types.BytesToBytes32([]byte("token-minted"))
	slotTotalSupply = types.BytesToBytes32([]byte("token-total-supply"))
	slotMeta        = types.BytesToBytes32([]byte("token-meta"))
	slotDAO         = types.BytesToBytes32([]byte("token-dao"))
	slotPermitRates = types.BytesToBytes32([]byte("token-permit-rates"))
)

// Genesis describes the initial token state.
type Genesis struct {
	Owner             types.Address
	Name              string
	Symbol            string
	Decimals          uint8
	InitialSupply     *big.Int
	InitialPermitRate uint64
	Allocations       map[types.Address]*big.Int
}

type meta struct {
	Name          string
	Symbol        string
	Decimals      uint8
	Owner         types.Address
	InitialSupply *big.Int
	StartTime     uint64
}

type allowanceKey struct {
	owner   types.Address
	spender types.Address
}

func (k allowanceKey) Bytes() []byte {
	return append(k.owner.Bytes(), k.spender.Bytes()...)
}

// Info is a snapshot of the token parameters.
type Info struct {
	Name          string
	Symbol        string
	Decimals      uint8
	Owner         types.Address
	DAO           types.Address
	TotalSupply   *big.Int
	InitialSupply *big.Int
	StartTime     uint64
	Period        uint64
	PermitRates   []uint64
	Minted        *big.Int // minted in the current period
	Quota         *big.Int // mintable in the current period, zero if no rate assigned
}

// Ledger keeps balances and allowances.
//
// Escrow, Release and Issue are capabilities for the stake engine and must
// run inside an Exec of the shared storage context. Every other mutating
// method opens its own Exec.
type Ledger struct {
	sctx  *storage.Context
	clock types.Clock

	balances    *storage.Mapping[types.Address, *big.Int]
	allowances  *storage.Mapping[allowanceKey, *big.Int]
	minted      *storage.Mapping[storage.Uint64, *big.Int]
	totalSupply *storage.Raw[*big.Int]
	meta        *storage.Raw[*meta]
	dao         *storage.Raw[types.Address]
	permitRates *storage.Raw[[]uint64]
}

func New(sctx *storage.Context, clock types.Clock) *Ledger {
	return newLedger(sctx, clock, nil)
}

// NewAsset returns a ledger for a secondary token sharing the storage
// context. Its slots are namespaced by symbol.
func NewAsset(sctx *storage.Context, clock types.Clock, symbol string) *Ledger {
	return newLedger(sctx, clock, []byte(symbol))
}

func newLedger(sctx *storage.Context, clock types.Clock, ns []byte) *Ledger {
	slot := func(base types.Bytes32) types.Bytes32 {
		if len(ns) == 0 {
			return base
		}
		return types.Blake2b(ns, base.Bytes())
	}
	return &Ledger{
		sctx:        sctx,
		clock:       clock,
		balances:    storage.NewMapping[types.Address, *big.Int](sctx, slot(slotBalances)),
		allowances:  storage.NewMapping[allowanceKey, *big.Int](sctx, slot(slotAllowances)),
		minted:      storage.NewMapping[storage.Uint64, *big.Int](sctx, slot(slotMinted)),
		totalSupply: storage.NewRaw[*big.Int](sctx, slot(slotTotalSupply)),
		meta:        storage.NewRaw[*meta](sctx, slot(slotMeta)),
		dao:         storage.NewRaw[types.Address](sctx, slot(slotDAO)),
		permitRates: storage.NewRaw[[]uint64](sctx, slot(slotPermitRates)),
	}
}

// Initialize mints the initial supply to the owner and starts mint period 0.
func (l *Ledger) Initialize(g *Genesis) error {
	if g.Owner.IsZero() {
		return ErrZeroAddress
	}
	if g.InitialSupply == nil || g.InitialSupply.Sign() < 0 {
		return ErrInvalidAmount
	}
	return l.sctx.Exec(func() error {
		m, err := l.meta.Get()
		if err != nil {
			return errors.Wrap(err, "failed to get token meta")
		}
		if !m.Owner.IsZero() {
			return ErrAlreadyInitialized
		}
		m = &meta{
			Name:          g.Name,
			Symbol:        g.Symbol,
			Decimals:      g.Decimals,
			Owner:         g.Owner,
			InitialSupply: new(big.Int).Set(g.InitialSupply),
			StartTime:     l.clock(),
		}
		if err := l.meta.Set(m); err != nil {
			return err
		}
		if err := l.permitRates.Set([]uint64{g.InitialPermitRate}); err != nil {
			return err
		}
		if err := l.mint(g.Owner, g.InitialSupply); err != nil {
			return err
		}
		for addr, amount := range g.Allocations {
			if err := l.transfer(g.Owner, addr, amount); err != nil {
				return errors.Wrapf(err, "allocate to %v", addr)
			}
		}
		logger.Info("token initialized", "owner", g.Owner, "supply", g.InitialSupply, "permitRate", g.InitialPermitRate)
		return nil
	})
}

// Initialized reports whether Initialize has completed.
func (l *Ledger) Initialized() (ok bool, err error) {
	err = l.sctx.View(func() error {
		m, err := l.meta.Get()
		if err != nil {
			return err
		}
		ok = !m.Owner.IsZero()
		return nil
	})
	return
}

//
// Getters
//

func (l *Ledger) BalanceOf(account types.Address) (balance *big.Int, err error) {
	err = l.sctx.View(func() error {
		balance, err = l.balances.Get(account)
		return err
	})
	return
}

// Decimals returns the number of decimals of the token unit.
func (l *Ledger) Decimals() (decimals uint8, err error) {
	err = l.sctx.View(func() error {
		m, err := l.initializedMeta()
		if err != nil {
			return err
		}
		decimals = m.Decimals
		return nil
	})
	return
}

func (l *Ledger) Allowance(owner, spender types.Address) (allowance *big.Int, err error) {
	err = l.sctx.View(func() error {
		allowance, err = l.allowances.Get(allowanceKey{owner, spender})
		return err
	})
	return
}

func (l *Ledger) TotalSupply() (supply *big.Int, err error) {
	err = l.sctx.View(func() error {
		supply, err = l.totalSupply.Get()
		return err
	})
	return
}

func (l *Ledger) Info() (info *Info, err error) {
	err = l.sctx.View(func() error {
		m, err := l.initializedMeta()
		if err != nil {
			return err
		}
		dao, err := l.dao.Get()
		if err != nil {
			return err
		}
		supply, err := l.totalSupply.Get()
		if err != nil {
			return err
		}
		rates, err := l.permitRates.Get()
		if err != nil {
			return err
		}
		period := PeriodAt(m.StartTime, l.clock())
		minted, err := l.minted.Get(storage.Uint64(period))
		if err != nil {
			return err
		}
		quota := new(big.Int)
		if period < uint64(len(rates)) {
			quota = PeriodQuota(m.InitialSupply, rates[period])
		}
		info = &Info{
			Name:          m.Name,
			Symbol:        m.Symbol,
			Decimals:      m.Decimals,
			Owner:         m.Owner,
			DAO:           dao,
			TotalSupply:   supply,
			InitialSupply: m.InitialSupply,
			StartTime:     m.StartTime,
			Period:        period,
			PermitRates:   rates,
			Minted:        minted,
			Quota:         quota,
		}
		return nil
	})
	return
}

//
// Account operations
//

// Transfer moves amount from the caller to another account.
func (l *Ledger) Transfer(caller, to types.Address, amount *big.Int) error {
	return l.sctx.Exec(func() error {
		return l.transfer(caller, to, amount)
	})
}

// Approve sets the amount spender may move out of the caller's balance.
// Approving CustodyAddress authorizes escrow.
func (l *Ledger) Approve(caller, spender types.Address, amount *big.Int) error {
	if spender.IsZero() {
		return ErrZeroAddress
	}
	if amount == nil || amount.Sign() < 0 {
		return ErrInvalidAmount
	}
	return l.sctx.Exec(func() error {
		return l.allowances.Set(allowanceKey{caller, spender}, amount)
	})
}

//
// Governance
//

// Mint creates new supply for to. Only the owner may mint, within the quota of the current period.
func (l *Ledger) Mint(caller, to types.Address, amount *big.Int) error {
	return l.sctx.Exec(func() error {
		m, err := l.initializedMeta()
		if err != nil {
			return err
		}
		if caller != m.Owner {
			return ErrNotOwner
		}
		if err := l.issue(m, to, amount); err != nil {
			return err
		}
		return l.sctx.AfterCommit(func() {
			metricIssued().AddWithLabel(1, map[string]string{"kind": "mint"})
		})
	})
}

// GrantDAORole assigns the DAO. Owner only, and only once.
func (l *Ledger) GrantDAORole(caller, dao types.Address) error {
	if dao.IsZero() {
		return ErrZeroAddress
	}
	return l.sctx.Exec(func() error {
		m, err := l.initializedMeta()
		if err != nil {
			return err
		}
		if caller != m.Owner {
			return ErrNotOwner
		}
		cur, err := l.dao.Get()
		if err != nil {
			return err
		}
		if !cur.IsZero() {
			return ErrDAOAlreadyGranted
		}
		logger.Info("DAO role granted", "dao", dao)
		return l.dao.Set(dao)
	})
}

// ChangeDAOAddress hands the DAO role over. Only the current DAO may call it.
func (l *Ledger) ChangeDAOAddress(caller, dao types.Address) error {
	if dao.IsZero() {
		return ErrZeroAddress
	}
	return l.sctx.Exec(func() error {
		if err := l.requireDAO(caller); err != nil {
			return err
		}
		logger.Info("DAO address changed", "from", caller, "to", dao)
		return l.dao.Set(dao)
	})
}

// AssignPermitRate assigns the permit rate of the next unassigned period.
// Rates can be assigned at most one period ahead of the current one.
func (l *Ledger) AssignPermitRate(caller types.Address, rate uint64) error {
	return l.sctx.Exec(func() error {
		m, err := l.initializedMeta()
		if err != nil {
			return err
		}
		if err := l.requireDAO(caller); err != nil {
			return err
		}
		rates, err := l.permitRates.Get()
		if err != nil {
			return err
		}
		next := uint64(len(rates))
		if next > PeriodAt(m.StartTime, l.clock())+1 {
			return ErrPermitRateTooEarly
		}
		logger.Info("permit rate assigned", "period", next, "rate", rate)
		return l.permitRates.Set(append(rates, rate))
	})
}

//
// Capabilities, callers hold the storage context
//

// Escrow moves amount from account into custody. The account must have
// approved CustodyAddress for at least amount.
func (l *Ledger) Escrow(account types.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	key := allowanceKey{account, CustodyAddress}
	allowance, err := l.allowances.Get(key)
	if err != nil {
		return errors.Wrap(err, "failed to get allowance")
	}
	if allowance.Cmp(amount) < 0 {
		return ErrInsufficientAllowance
	}
	if err := l.transfer(account, CustodyAddress, amount); err != nil {
		return err
	}
	return l.allowances.Set(key, allowance.Sub(allowance, amount))
}

// Balance reads the balance of account.
func (l *Ledger) Balance(account types.Address) (*big.Int, error) {
	return l.balances.Get(account)
}

// Release returns escrowed value to account.
func (l *Ledger) Release(account types.Address, amount *big.Int) error {
	return l.transfer(CustodyAddress, account, amount)
}

// Issue mints amount to account within the current period quota.
func (l *Ledger) Issue(account types.Address, amount *big.Int) error {
	m, err := l.initializedMeta()
	if err != nil {
		return err
	}
	if err := l.issue(m, account, amount); err != nil {
		return err
	}
	return l.sctx.AfterCommit(func() {
		metricIssued().AddWithLabel(1, map[string]string{"kind": "reward"})
	})
}

//
// internals
//

func (l *Ledger) initializedMeta() (*meta, error) {
	m, err := l.meta.Get()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get token meta")
	}
	if m.Owner.IsZero() {
		return nil, ErrNotInitialized
	}
	return m, nil
}

func (l *Ledger) requireDAO(caller types.Address) error {
	dao, err := l.dao.Get()
	if err != nil {
		return err
	}
	if dao.IsZero() || caller != dao {
		return ErrNotDAO
	}
	return nil
}

func (l *Ledger) issue(m *meta, to types.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return ErrInvalidAmount
	}
	if amount.Sign() == 0 {
		return nil
	}
	rates, err := l.permitRates.Get()
	if err != nil {
		return err
	}
	period := PeriodAt(m.StartTime, l.clock())
	if period >= uint64(len(rates)) {
		return ErrPermitRateNotAssigned
	}
	minted, err := l.minted.Get(storage.Uint64(period))
	if err != nil {
		return err
	}
	minted.Add(minted, amount)
	if minted.Cmp(PeriodQuota(m.InitialSupply, rates[period])) > 0 {
		return ErrExceedsPermit
	}
	if err := l.minted.Set(storage.Uint64(period), minted); err != nil {
		return err
	}
	return l.mint(to, amount)
}

func (l *Ledger) mint(to types.Address, amount *big.Int) error {
	if to.IsZero() {
		return ErrZeroAddress
	}
	balance, err := l.balances.Get(to)
	if err != nil {
		return err
	}
	if err := l.balances.Set(to, balance.Add(balance, amount)); err != nil {
		return err
	}
	supply, err := l.totalSupply.Get()
	if err != nil {
		return err
	}
	return l.totalSupply.Set(supply.Add(supply, amount))
}

func (l *Ledger) transfer(from, to types.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return ErrInvalidAmount
	}
	if to.IsZero() {
		return ErrZeroAddress
	}
	fromBalance, err := l.balances.Get(from)
	if err != nil {
		return err
	}
	if fromBalance.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	if from == to {
		return nil
	}
	toBalance, err := l.balances.Get(to)
	if err != nil {
		return err
	}
	if err := l.balances.Set(from, fromBalance.Sub(fromBalance, amount)); err != nil {
		return err
	}
	return l.balances.Set(to, toBalance.Add(toBalance, amount))
}
