// Copyright (c) 2026 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"math/big"

	"github.com/vechain/tierstake/accrual"
	"github.com/vechain/tierstake/types"
)

// ChangeAPR sets the accrual rate. Admin only.
func (s *Staker) ChangeAPR(caller types.Address, rate uint64) error {
	err := s.exec("change_apr", func() error {
		if err := s.requireAdmin(caller); err != nil {
			return err
		}
		rates, err := s.rates.Get()
		if err != nil {
			return err
		}
		now := s.clock()
		change := accrual.RateChange{EffectiveFrom: now, Rate: rate}
		// several changes within the same second keep the last one
		if n := len(rates); n > 0 && rates[n-1].EffectiveFrom == now {
			rates[n-1] = change
		} else {
			rates = append(rates, change)
		}
		if err := s.rates.Set(rates); err != nil {
			return err
		}
		return s.rate.Set(rate)
	})
	if err != nil {
		return err
	}
	logger.Info("apr changed", "rate", rate)
	s.publish(&Event{Kind: EventAPRChanged, APR: rate})
	return nil
}

// UpdateTierValues replaces all thresholds. Admin only. Cached holder tiers
// are kept until refreshed.
func (s *Staker) UpdateTierValues(caller types.Address, values []*big.Int) error {
	err := s.exec("update_tiers", func() error {
		if err := s.requireAdmin(caller); err != nil {
			return err
		}
		return s.tiers.Replace(values)
	})
	if err != nil {
		return err
	}
	logger.Info("tier thresholds replaced", "levels", len(values))
	s.publish(&Event{Kind: EventTiersChanged})
	return nil
}

// UpdateSpecificTierValue sets the threshold of one level. Admin only.
// Level 0 is fixed and the new value must stay between its neighbours.
func (s *Staker) UpdateSpecificTierValue(caller types.Address, value *big.Int, index int) error {
	err := s.exec("update_tier_value", func() error {
		if err := s.requireAdmin(caller); err != nil {
			return err
		}
		return s.tiers.Update(index, value)
	})
	if err != nil {
		return err
	}
	logger.Info("tier threshold updated", "index", index, "value", value)
	s.publish(&Event{Kind: EventTiersChanged, Tier: uint8(index), Amount: new(big.Int).Set(value)})
	return nil
}
