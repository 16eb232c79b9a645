// Copyright (c) 2026 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package staker implements the stake ledger. Account holders lock value
// in individual stakes, earn interest on demand and are classified into
// tiers by their total locked amount.
package staker

import (
	"math"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/event"
	"github.com/pkg/errors"

	"github.com/vechain/tierstake/accrual"
	"github.com/vechain/tierstake/log"
	"github.com/vechain/tierstake/metrics"
	"github.com/vechain/tierstake/storage"
	"github.com/vechain/tierstake/tier"
	"github.com/vechain/tierstake/types"
)

var (
	logger = log.WithContext("pkg", "staker")

	metricStakes      = metrics.LazyLoadCounter("staker_stakes_count")
	metricWithdrawals = metrics.LazyLoadCounter("staker_withdrawals_count")
	metricFailures    = metrics.LazyLoadCounterVec("staker_failures_count", []string{"op"})
	metricLocked      = metrics.LazyLoadGauge("staker_locked")
	metricOpDuration  = metrics.LazyLoadHistogramVec("staker_op_duration_us", []string{"op"}, metrics.BucketLedgerOps)

	slotStakes      = types.BytesToBytes32([]byte("staker-stakes"))
	slotAccounts    = types.BytesToBytes32([]byte("staker-accounts"))
	slotAdmin       = types.BytesToBytes32([]byte("staker-admin"))
	slotStakeIDs    = types.BytesToBytes32([]byte("staker-stake-ids"))
	slotStakeCount  = types.BytesToBytes32([]byte("staker-stake-count"))
	slotRate        = types.BytesToBytes32([]byte("staker-rate"))
	slotRates       = types.BytesToBytes32([]byte("staker-rates"))
	slotMode        = types.BytesToBytes32([]byte("staker-accrual-mode"))
	slotNextID      = types.BytesToBytes32([]byte("staker-next-id"))
	slotTotalLocked = types.BytesToBytes32([]byte("staker-total-locked"))
	slotMinted      = types.BytesToBytes32([]byte("staker-minted"))
)

// Staker is the stake ledger. Every public method runs with exclusive
// access to the shared storage context, or with shared access for reads.
type Staker struct {
	sctx   *storage.Context
	ledger Ledger
	clock  types.Clock

	tiers       *tier.Index
	stakes      *storage.Mapping[storage.Uint64, *Stake]
	accounts    *storage.Mapping[types.Address, *account]
	stakeIDs    *storage.Mapping[holderIndex, uint64]
	stakeCount  *storage.Mapping[types.Address, uint64]
	admin       *storage.Raw[types.Address]
	rate        *storage.Raw[uint64]
	rates       *storage.Raw[[]accrual.RateChange]
	mode        *storage.Raw[accrual.Mode]
	nextID      *storage.Raw[uint64]
	totalLocked *storage.Raw[*big.Int]
	minted      *storage.Raw[*big.Int]

	feed  event.Feed
	scope event.SubscriptionScope
}

// New creates the engine over sctx. ledger must use the same context so
// that value movements commit together with the stake bookkeeping.
func New(sctx *storage.Context, ledger Ledger, clock types.Clock) *Staker {
	return &Staker{
		sctx:        sctx,
		ledger:      ledger,
		clock:       clock,
		tiers:       tier.NewIndex(sctx),
		stakes:      storage.NewMapping[storage.Uint64, *Stake](sctx, slotStakes),
		accounts:    storage.NewMapping[types.Address, *account](sctx, slotAccounts),
		stakeIDs:    storage.NewMapping[holderIndex, uint64](sctx, slotStakeIDs),
		stakeCount:  storage.NewMapping[types.Address, uint64](sctx, slotStakeCount),
		admin:       storage.NewRaw[types.Address](sctx, slotAdmin),
		rate:        storage.NewRaw[uint64](sctx, slotRate),
		rates:       storage.NewRaw[[]accrual.RateChange](sctx, slotRates),
		mode:        storage.NewRaw[accrual.Mode](sctx, slotMode),
		nextID:      storage.NewRaw[uint64](sctx, slotNextID),
		totalLocked: storage.NewRaw[*big.Int](sctx, slotTotalLocked),
		minted:      storage.NewRaw[*big.Int](sctx, slotMinted),
	}
}

// Initialize stores the genesis parameters.
func (s *Staker) Initialize(g *Genesis) error {
	if g.Admin.IsZero() {
		return errors.New("admin required")
	}
	mode, err := accrual.ParseMode(string(g.Mode))
	if err != nil {
		return err
	}
	return s.sctx.Exec(func() error {
		admin, err := s.admin.Get()
		if err != nil {
			return errors.Wrap(err, "failed to get admin")
		}
		if !admin.IsZero() {
			return ErrAlreadyInitialized
		}
		if err := s.tiers.Set(g.Tiers); err != nil {
			return err
		}
		if err := s.admin.Set(g.Admin); err != nil {
			return err
		}
		if err := s.mode.Set(mode); err != nil {
			return err
		}
		if err := s.rate.Set(g.APR); err != nil {
			return err
		}
		if err := s.rates.Set([]accrual.RateChange{{EffectiveFrom: s.clock(), Rate: g.APR}}); err != nil {
			return err
		}
		logger.Info("staker initialized", "admin", g.Admin, "apr", g.APR, "mode", mode, "levels", g.Tiers.Levels())
		return nil
	})
}

// Initialized reports whether genesis has been applied.
func (s *Staker) Initialized() (ok bool, err error) {
	err = s.sctx.View(func() error {
		admin, err := s.admin.Get()
		ok = !admin.IsZero()
		return err
	})
	return
}

//
// Getters - no state change
//

// GetStake returns the stake with the given id.
func (s *Staker) GetStake(id uint64) (stake *Stake, err error) {
	err = s.sctx.View(func() error {
		stake, err = s.getStake(id)
		return err
	})
	return
}

// StakesOf lists the ids of all stakes opened by holder, oldest first.
func (s *Staker) StakesOf(holder types.Address) (ids []uint64, err error) {
	err = s.sctx.View(func() error {
		ids, err = s.stakesOf(holder)
		return err
	})
	return
}

// Account returns the balance, locked amount, tier and stakes of holder
// read in one consistent view.
func (s *Staker) Account(holder types.Address) (snap *Account, err error) {
	err = s.sctx.View(func() error {
		balance, err := s.ledger.Balance(holder)
		if err != nil {
			return errors.Wrap(err, "failed to get balance")
		}
		acc, err := s.getAccount(holder)
		if err != nil {
			return err
		}
		ids, err := s.stakesOf(holder)
		if err != nil {
			return err
		}
		snap = &Account{
			Balance: balance,
			Locked:  acc.Locked,
			Tier:    acc.Tier,
			Stakes:  ids,
		}
		return nil
	})
	return
}

// UserStakeAmount returns the total amount locked by holder in active stakes.
func (s *Staker) UserStakeAmount(holder types.Address) (amount *big.Int, err error) {
	err = s.sctx.View(func() error {
		acc, err := s.getAccount(holder)
		if err != nil {
			return err
		}
		amount = acc.Locked
		return nil
	})
	return
}

// UserTier returns the cached tier of holder. It is not refreshed when the
// thresholds change, see UpdateSenderTier.
func (s *Staker) UserTier(holder types.Address) (level uint8, err error) {
	err = s.sctx.View(func() error {
		level, err = s.TierOf(holder)
		return err
	})
	return
}

// TierOf is UserTier for callers already holding the storage context.
func (s *Staker) TierOf(holder types.Address) (uint8, error) {
	acc, err := s.getAccount(holder)
	if err != nil {
		return 0, err
	}
	return acc.Tier, nil
}

// CalculateInterestAmount returns the interest an active stake would be paid now.
func (s *Staker) CalculateInterestAmount(id uint64) (interest *big.Int, err error) {
	err = s.sctx.View(func() error {
		stake, err := s.getStake(id)
		if err != nil {
			return err
		}
		if !stake.Active {
			return ErrStakeNotActive
		}
		interest, err = s.interest(stake, s.clock())
		return err
	})
	return
}

func (s *Staker) APR() (rate uint64, err error) {
	err = s.sctx.View(func() error {
		rate, err = s.currentRate()
		return err
	})
	return
}

func (s *Staker) Admin() (admin types.Address, err error) {
	err = s.sctx.View(func() error {
		admin, err = s.admin.Get()
		return err
	})
	return
}

// Thresholds returns a copy of the tier table.
func (s *Staker) Thresholds() (table tier.Table, err error) {
	err = s.sctx.View(func() error {
		table, err = s.tiers.Table()
		return err
	})
	return
}

// Levels returns the number of tier levels, including level 0.
func (s *Staker) Levels() (int, error) {
	t, err := s.Thresholds()
	if err != nil {
		return 0, err
	}
	return t.Levels(), nil
}

// NextStakeID returns the id the next stake will get.
func (s *Staker) NextStakeID() (id uint64, err error) {
	err = s.sctx.View(func() error {
		id, err = s.nextID.Get()
		return err
	})
	return
}

// MintedRewards returns the total interest issued over the ledger lifetime.
func (s *Staker) MintedRewards() (minted *big.Int, err error) {
	err = s.sctx.View(func() error {
		minted, err = s.minted.Get()
		return err
	})
	return
}

// Params returns a consistent snapshot of the engine parameters.
func (s *Staker) Params() (params *Params, err error) {
	err = s.sctx.View(func() error {
		admin, err := s.requireInitialized()
		if err != nil {
			return err
		}
		rates, err := s.rates.Get()
		if err != nil {
			return err
		}
		mode, err := s.mode.Get()
		if err != nil {
			return err
		}
		table, err := s.tiers.Table()
		if err != nil {
			return err
		}
		next, err := s.nextID.Get()
		if err != nil {
			return err
		}
		locked, err := s.totalLocked.Get()
		if err != nil {
			return err
		}
		minted, err := s.minted.Get()
		if err != nil {
			return err
		}
		rate, err := s.rate.Get()
		if err != nil {
			return err
		}
		params = &Params{
			Admin:         admin,
			APR:           rate,
			Mode:          mode,
			Levels:        table.Levels(),
			NextStakeID:   next,
			TotalLocked:   locked,
			MintedRewards: minted,
			RateHistory:   rates,
		}
		return nil
	})
	return
}

//
// internals, callers hold the storage context
//

func (s *Staker) exec(op string, fn func() error) error {
	start := time.Now()
	defer func() {
		metricOpDuration().ObserveWithLabels(time.Since(start).Microseconds(), map[string]string{"op": op})
	}()
	if err := s.sctx.Exec(fn); err != nil {
		metricFailures().AddWithLabel(1, map[string]string{"op": op})
		return err
	}
	return nil
}

func (s *Staker) requireInitialized() (types.Address, error) {
	admin, err := s.admin.Get()
	if err != nil {
		return types.Address{}, errors.Wrap(err, "failed to get admin")
	}
	if admin.IsZero() {
		return types.Address{}, ErrNotInitialized
	}
	return admin, nil
}

func (s *Staker) requireAdmin(caller types.Address) error {
	admin, err := s.requireInitialized()
	if err != nil {
		return err
	}
	if caller != admin {
		return ErrNotAuthorized
	}
	return nil
}

func (s *Staker) getStake(id uint64) (*Stake, error) {
	stake, err := s.stakes.Get(storage.Uint64(id))
	if err != nil {
		return nil, errors.Wrap(err, "failed to get stake")
	}
	if stake.Owner.IsZero() {
		return nil, ErrStakeNotFound
	}
	if stake.Reward == nil {
		stake.Reward = new(big.Int)
	}
	return stake, nil
}

func (s *Staker) getAccount(holder types.Address) (*account, error) {
	acc, err := s.accounts.Get(holder)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get account")
	}
	return acc.normalize(), nil
}

func (s *Staker) stakesOf(holder types.Address) ([]uint64, error) {
	n, err := s.stakeCount.Get(holder)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get stake count")
	}
	ids := make([]uint64, 0, n)
	for i := range n {
		id, err := s.stakeIDs.Get(holderIndex{holder, i})
		if err != nil {
			return nil, errors.Wrap(err, "failed to get stake id")
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *Staker) appendStake(holder types.Address, id uint64) error {
	n, err := s.stakeCount.Get(holder)
	if err != nil {
		return errors.Wrap(err, "failed to get stake count")
	}
	if err := s.stakeIDs.Set(holderIndex{holder, n}, id); err != nil {
		return err
	}
	return s.stakeCount.Set(holder, n+1)
}

func (s *Staker) currentRate() (uint64, error) {
	rate, err := s.rate.Get()
	if err != nil {
		return 0, errors.Wrap(err, "failed to get rate")
	}
	return rate, nil
}

// interest only loads the rate history when changes are prorated.
func (s *Staker) interest(stake *Stake, now uint64) (*big.Int, error) {
	mode, err := s.mode.Get()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get accrual mode")
	}
	var history []accrual.RateChange
	if mode == accrual.Prorated {
		if history, err = s.rates.Get(); err != nil {
			return nil, errors.Wrap(err, "failed to get rates")
		}
	} else {
		rate, err := s.currentRate()
		if err != nil {
			return nil, err
		}
		history = []accrual.RateChange{{EffectiveFrom: stake.OpenedAt, Rate: rate}}
	}
	interest, err := accrual.Policy{Mode: mode}.Accrue(stake.Amount, stake.OpenedAt, now, history)
	if err != nil {
		return nil, errors.Wrap(err, "accrue interest")
	}
	return interest, nil
}

// setLocked updates the holder aggregate and the engine total by delta and
// re-ranks the holder.
func (s *Staker) setLocked(holder types.Address, acc *account, delta *big.Int) error {
	acc.Locked.Add(acc.Locked, delta)
	level, err := s.tiers.Lookup(acc.Locked)
	if err != nil {
		return err
	}
	acc.Tier = level
	if err := s.accounts.Set(holder, acc); err != nil {
		return err
	}

	total, err := s.totalLocked.Get()
	if err != nil {
		return err
	}
	total.Add(total, delta)
	if err := s.totalLocked.Set(total); err != nil {
		return err
	}
	if total.IsInt64() {
		metricLocked().Set(total.Int64())
	} else {
		metricLocked().Set(math.MaxInt64)
	}
	return nil
}
