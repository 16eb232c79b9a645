// Copyright (c) 2026 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package stakes

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common/math"

	"github.com/vechain/tierstake/accrual"
	"github.com/vechain/tierstake/staker"
	"github.com/vechain/tierstake/types"
)

type StakeRequest struct {
	Amount *math.HexOrDecimal256 `json:"amount"`
}

type StakeID struct {
	ID uint64 `json:"id"`
}

type Stake struct {
	ID       uint64                `json:"id"`
	Owner    types.Address         `json:"owner"`
	Amount   *math.HexOrDecimal256 `json:"amount"`
	OpenedAt uint64                `json:"openedAt"`
	Active   bool                  `json:"active"`
	ClosedAt uint64                `json:"closedAt"`
	Reward   *math.HexOrDecimal256 `json:"reward"`
}

func convertStake(id uint64, s *staker.Stake) *Stake {
	return &Stake{
		ID:       id,
		Owner:    s.Owner,
		Amount:   (*math.HexOrDecimal256)(s.Amount),
		OpenedAt: s.OpenedAt,
		Active:   s.Active,
		ClosedAt: s.ClosedAt,
		Reward:   (*math.HexOrDecimal256)(s.Reward),
	}
}

type Interest struct {
	ID       uint64                `json:"id"`
	Interest *math.HexOrDecimal256 `json:"interest"`
}

type Withdrawal struct {
	ID     uint64                `json:"id"`
	Reward *math.HexOrDecimal256 `json:"reward"`
}

type Account struct {
	Address types.Address         `json:"address"`
	Balance *math.HexOrDecimal256 `json:"balance"`
	Staked  *math.HexOrDecimal256 `json:"staked"`
	Tier    uint8                 `json:"tier"`
	Stakes  []uint64              `json:"stakes"`
}

type Tier struct {
	Tier uint8 `json:"tier"`
}

type Tiers struct {
	Levels int                     `json:"levels"`
	Values []*math.HexOrDecimal256 `json:"values"`
}

type TiersRequest struct {
	Values []*math.HexOrDecimal256 `json:"values"`
}

func (r *TiersRequest) values() []*big.Int {
	values := make([]*big.Int, len(r.Values))
	for i, v := range r.Values {
		values[i] = (*big.Int)(v)
	}
	return values
}

type TierValueRequest struct {
	Value *math.HexOrDecimal256 `json:"value"`
}

type APRRequest struct {
	Rate uint64 `json:"rate"`
}

type RateChange struct {
	EffectiveFrom uint64 `json:"effectiveFrom"`
	Rate          uint64 `json:"rate"`
}

type Params struct {
	Admin         types.Address         `json:"admin"`
	APR           uint64                `json:"apr"`
	Mode          accrual.Mode          `json:"mode"`
	Levels        int                   `json:"levels"`
	NextStakeID   uint64                `json:"nextStakeId"`
	TotalLocked   *math.HexOrDecimal256 `json:"totalLocked"`
	MintedRewards *math.HexOrDecimal256 `json:"mintedRewards"`
	RateHistory   []RateChange          `json:"rateHistory"`
}

func convertParams(p *staker.Params) *Params {
	history := make([]RateChange, len(p.RateHistory))
	for i, c := range p.RateHistory {
		history[i] = RateChange{EffectiveFrom: c.EffectiveFrom, Rate: c.Rate}
	}
	return &Params{
		Admin:         p.Admin,
		APR:           p.APR,
		Mode:          p.Mode,
		Levels:        p.Levels,
		NextStakeID:   p.NextStakeID,
		TotalLocked:   (*math.HexOrDecimal256)(p.TotalLocked),
		MintedRewards: (*math.HexOrDecimal256)(p.MintedRewards),
		RateHistory:   history,
	}
}
