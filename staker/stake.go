// Copyright (c) 2026 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"fmt"
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/tierstake/reverts"
	"github.com/vechain/tierstake/storage"
	"github.com/vechain/tierstake/types"
)

// Stake locks amount from caller into a new stake and returns its id.
func (s *Staker) Stake(caller types.Address, amount *big.Int) (id uint64, err error) {
	if amount == nil || amount.Sign() <= 0 {
		metricFailures().AddWithLabel(1, map[string]string{"op": "stake"})
		return 0, ErrInvalidAmount
	}
	var level uint8
	err = s.exec("stake", func() error {
		if _, err := s.requireInitialized(); err != nil {
			return err
		}
		if err := s.ledger.Escrow(caller, amount); err != nil {
			return ledgerError(ErrEscrowFailed, err, "escrow stake")
		}

		id, err = s.nextID.Get()
		if err != nil {
			return err
		}
		if err := s.nextID.Set(id + 1); err != nil {
			return err
		}
		stake := &Stake{
			Owner:    caller,
			Amount:   new(big.Int).Set(amount),
			OpenedAt: s.clock(),
			Active:   true,
		}
		if err := s.stakes.Set(storage.Uint64(id), stake); err != nil {
			return err
		}

		acc, err := s.getAccount(caller)
		if err != nil {
			return err
		}
		if err := s.appendStake(caller, id); err != nil {
			return err
		}
		if err := s.setLocked(caller, acc, amount); err != nil {
			return err
		}
		level = acc.Tier
		return nil
	})
	if err != nil {
		return 0, err
	}
	metricStakes().Add(1)
	logger.Debug("staked", "id", id, "owner", caller, "amount", amount, "tier", level)
	s.publish(&Event{Kind: EventStaked, StakeID: id, Holder: caller, Amount: new(big.Int).Set(amount), Tier: level})
	return id, nil
}

// Withdraw closes an active stake owned by caller. The locked amount is
// released and the accrued interest issued to the owner. Returns the interest paid.
func (s *Staker) Withdraw(caller types.Address, id uint64) (reward *big.Int, err error) {
	var (
		stake *Stake
		level uint8
	)
	err = s.exec("withdraw", func() error {
		stake, err = s.getStake(id)
		if err != nil {
			return err
		}
		if !stake.Active {
			return ErrStakeNotActive
		}
		if stake.Owner != caller {
			return ErrNotOwner
		}

		now := s.clock()
		reward, err = s.interest(stake, now)
		if err != nil {
			return err
		}
		if reward.Sign() > 0 {
			if err := s.ledger.Issue(stake.Owner, reward); err != nil {
				return ledgerError(ErrIssueFailed, err, "issue reward")
			}
		}
		if err := s.ledger.Release(stake.Owner, stake.Amount); err != nil {
			return errors.Wrap(err, "release stake")
		}

		stake.Active = false
		stake.ClosedAt = now
		stake.Reward = reward
		if err := s.stakes.Set(storage.Uint64(id), stake); err != nil {
			return err
		}

		acc, err := s.getAccount(stake.Owner)
		if err != nil {
			return err
		}
		if err := s.setLocked(stake.Owner, acc, new(big.Int).Neg(stake.Amount)); err != nil {
			return err
		}
		level = acc.Tier

		minted, err := s.minted.Get()
		if err != nil {
			return err
		}
		return s.minted.Set(minted.Add(minted, reward))
	})
	if err != nil {
		return nil, err
	}
	metricWithdrawals().Add(1)
	logger.Debug("withdrawn", "id", id, "owner", stake.Owner, "amount", stake.Amount, "reward", reward)
	s.publish(&Event{
		Kind:    EventWithdrawn,
		StakeID: id,
		Holder:  stake.Owner,
		Amount:  stake.Amount,
		Reward:  new(big.Int).Set(reward),
		Tier:    level,
	})
	return reward, nil
}

// UpdateSenderTier re-ranks holder against the current thresholds. The
// caller must be the holder or the admin, and the holder must have value locked.
func (s *Staker) UpdateSenderTier(caller, holder types.Address) (level uint8, err error) {
	var changed bool
	err = s.exec("update_tier", func() error {
		admin, err := s.requireInitialized()
		if err != nil {
			return err
		}
		if caller != holder && caller != admin {
			return ErrNotAuthorized
		}
		acc, err := s.getAccount(holder)
		if err != nil {
			return err
		}
		if acc.Locked.Sign() == 0 {
			return ErrNoActiveStake
		}
		level, err = s.tiers.Lookup(acc.Locked)
		if err != nil {
			return err
		}
		if level == acc.Tier {
			return nil
		}
		changed = true
		acc.Tier = level
		return s.accounts.Set(holder, acc)
	})
	if err != nil {
		return 0, err
	}
	if changed {
		logger.Debug("tier refreshed", "holder", holder, "tier", level)
		s.publish(&Event{Kind: EventTierRefreshed, Holder: holder, Tier: level})
	}
	return level, nil
}

// ledgerError tags a ledger refusal with sentinel. Other failures are
// wrapped with msg so they are not reported as reverts.
func ledgerError(sentinel, err error, msg string) error {
	if reverts.IsRevertErr(err) {
		return fmt.Errorf("%w: %w", sentinel, err)
	}
	return errors.Wrap(err, msg)
}
