// Copyright (c) 2026 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package tokens

import (
	"github.com/ethereum/go-ethereum/common/math"

	"github.com/vechain/tierstake/token"
	"github.com/vechain/tierstake/types"
)

type Info struct {
	Name          string                `json:"name"`
	Symbol        string                `json:"symbol"`
	Decimals      uint8                 `json:"decimals"`
	Owner         types.Address         `json:"owner"`
	DAO           types.Address         `json:"dao"`
	Custody       types.Address         `json:"custody"`
	TotalSupply   *math.HexOrDecimal256 `json:"totalSupply"`
	InitialSupply *math.HexOrDecimal256 `json:"initialSupply"`
	StartTime     uint64                `json:"startTime"`
	Period        uint64                `json:"period"`
	PermitRates   []uint64              `json:"permitRates"`
	Minted        *math.HexOrDecimal256 `json:"minted"`
	Quota         *math.HexOrDecimal256 `json:"quota"`
}

func convertInfo(i *token.Info) *Info {
	return &Info{
		Name:          i.Name,
		Symbol:        i.Symbol,
		Decimals:      i.Decimals,
		Owner:         i.Owner,
		DAO:           i.DAO,
		Custody:       token.CustodyAddress,
		TotalSupply:   (*math.HexOrDecimal256)(i.TotalSupply),
		InitialSupply: (*math.HexOrDecimal256)(i.InitialSupply),
		StartTime:     i.StartTime,
		Period:        i.Period,
		PermitRates:   i.PermitRates,
		Minted:        (*math.HexOrDecimal256)(i.Minted),
		Quota:         (*math.HexOrDecimal256)(i.Quota),
	}
}

// TransferRequest serves transfer, approve and mint.
type TransferRequest struct {
	To     types.Address         `json:"to"`
	Amount *math.HexOrDecimal256 `json:"amount"`
}

type DAORequest struct {
	DAO types.Address `json:"dao"`
}

type PermitRateRequest struct {
	Rate uint64 `json:"rate"`
}

type Balance struct {
	Address types.Address         `json:"address"`
	Balance *math.HexOrDecimal256 `json:"balance"`
}

type Allowance struct {
	Owner     types.Address         `json:"owner"`
	Spender   types.Address         `json:"spender"`
	Allowance *math.HexOrDecimal256 `json:"allowance"`
}
