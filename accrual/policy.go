// Copyright (c) 2026 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package accrual

import (
	"fmt"
	"math/big"
)

// Mode selects how rate changes apply to open positions.
type Mode string

const (
	// Retroactive applies the current rate to the whole elapsed duration.
	Retroactive Mode = "retroactive"
	// Prorated applies each rate only to the time it was in effect.
	Prorated Mode = "prorated"
)

// ParseMode parses s, the empty string yields Retroactive.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", Retroactive:
		return Retroactive, nil
	case Prorated:
		return Prorated, nil
	}
	return "", fmt.Errorf("unknown accrual mode %q", s)
}

// RateChange records a rate taking effect at a unix timestamp.
type RateChange struct {
	EffectiveFrom uint64
	Rate          uint64
}

// Policy computes interest for a position under a rate history.
type Policy struct {
	Mode Mode
}

// Accrue returns the interest earned by amount between openedAt and now.
// history is ordered by EffectiveFrom and its last entry is the current rate.
func (p Policy) Accrue(amount *big.Int, openedAt, now uint64, history []RateChange) (*big.Int, error) {
	if len(history) == 0 || now <= openedAt {
		return new(big.Int), nil
	}
	if p.Mode != Prorated {
		return Interest(amount, now-openedAt, history[len(history)-1].Rate)
	}

	total := new(big.Int)
	for i, change := range history {
		end := now
		if i+1 < len(history) {
			end = min(history[i+1].EffectiveFrom, now)
		}
		start := max(change.EffectiveFrom, openedAt)
		if end <= start {
			continue
		}
		// each segment is floored on its own
		seg, err := Interest(amount, end-start, change.Rate)
		if err != nil {
			return nil, err
		}
		total.Add(total, seg)
	}
	return total, nil
}
