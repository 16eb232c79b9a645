// Copyright (c) 2026 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package sales

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common/math"

	"github.com/vechain/tierstake/sale"
	"github.com/vechain/tierstake/types"
)

type Factory struct {
	Admin types.Address `json:"admin"`
	Count uint64        `json:"count"`
}

type AdminRequest struct {
	Admin types.Address `json:"admin"`
}

type CreatorRequest struct {
	Allowed bool `json:"allowed"`
}

type Creator struct {
	Address types.Address `json:"address"`
	Allowed bool          `json:"allowed"`
}

type CreateRequest struct {
	Name        string                  `json:"name"`
	Asset       string                  `json:"asset"`
	Admin       types.Address           `json:"admin"`
	Softcap     *math.HexOrDecimal256   `json:"softcap"`
	Limits      []*math.HexOrDecimal256 `json:"limits"`
	Start       uint64                  `json:"start"`
	End         uint64                  `json:"end"`
	Price       *math.HexOrDecimal256   `json:"price"`
	Description string                  `json:"description"`
}

func (r *CreateRequest) params() *sale.Params {
	limits := make([]*big.Int, len(r.Limits))
	for i, l := range r.Limits {
		limits[i] = (*big.Int)(l)
	}
	return &sale.Params{
		Name:        r.Name,
		Asset:       r.Asset,
		Admin:       r.Admin,
		Softcap:     (*big.Int)(r.Softcap),
		Limits:      limits,
		Start:       r.Start,
		End:         r.End,
		Price:       (*big.Int)(r.Price),
		Description: r.Description,
	}
}

type SaleID struct {
	ID uint64 `json:"id"`
}

type Sale struct {
	ID              uint64                  `json:"id"`
	Name            string                  `json:"name"`
	Asset           string                  `json:"asset"`
	Decimals        uint8                   `json:"decimals"`
	Admin           types.Address           `json:"admin"`
	Softcap         *math.HexOrDecimal256   `json:"softcap"`
	Limits          []*math.HexOrDecimal256 `json:"limits"`
	Start           uint64                  `json:"start"`
	End             uint64                  `json:"end"`
	Price           *math.HexOrDecimal256   `json:"price"`
	Description     string                  `json:"description"`
	Approved        bool                    `json:"approved"`
	Active          bool                    `json:"active"`
	Ended           bool                    `json:"ended"`
	Hardcap         *math.HexOrDecimal256   `json:"hardcap"`
	Sold            *math.HexOrDecimal256   `json:"sold"`
	Raised          *math.HexOrDecimal256   `json:"raised"`
	Participants    uint64                  `json:"participants"`
	ResultWithdrawn bool                    `json:"resultWithdrawn"`
}

func convertSale(id uint64, s *sale.Sale, now uint64) *Sale {
	limits := make([]*math.HexOrDecimal256, len(s.Limits))
	for i, l := range s.Limits {
		limits[i] = (*math.HexOrDecimal256)(l)
	}
	return &Sale{
		ID:              id,
		Name:            s.Name,
		Asset:           s.Asset,
		Decimals:        s.Decimals,
		Admin:           s.Admin,
		Softcap:         (*math.HexOrDecimal256)(s.Softcap),
		Limits:          limits,
		Start:           s.Start,
		End:             s.End,
		Price:           (*math.HexOrDecimal256)(s.Price),
		Description:     s.Description,
		Approved:        s.Approved,
		Active:          s.Active(now),
		Ended:           s.Ended(now),
		Hardcap:         (*math.HexOrDecimal256)(s.Hardcap),
		Sold:            (*math.HexOrDecimal256)(s.Sold),
		Raised:          (*math.HexOrDecimal256)(s.Raised),
		Participants:    s.Participants,
		ResultWithdrawn: s.ResultWithdrawn,
	}
}

type AmountRequest struct {
	Amount *math.HexOrDecimal256 `json:"amount"`
}

type PriceRequest struct {
	Price *math.HexOrDecimal256 `json:"price"`
}

type Purchase struct {
	ID     uint64                `json:"id"`
	Buyer  types.Address         `json:"buyer"`
	Paid   *math.HexOrDecimal256 `json:"paid"`
	Bought *math.HexOrDecimal256 `json:"bought"`
}

type Amount struct {
	ID     uint64                `json:"id"`
	Amount *math.HexOrDecimal256 `json:"amount"`
}

type Result struct {
	ID       uint64                `json:"id"`
	Proceeds *math.HexOrDecimal256 `json:"proceeds"`
	Unsold   *math.HexOrDecimal256 `json:"unsold"`
}
