// Copyright (c) 2026 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package sale

import "github.com/vechain/tierstake/reverts"

var (
	ErrNotInitialized     = reverts.New("sale factory not initialized")
	ErrAlreadyInitialized = reverts.New("sale factory already initialized")
	ErrNotAdmin           = reverts.New("this function can be used only by admin")
	ErrNotCreator         = reverts.New("sender is not allowed to create sales")
	ErrUnknownAsset       = reverts.New("unknown asset")
	ErrInvalidParams      = reverts.New("invalid sale parameters")
	ErrInvalidAmount      = reverts.New("amount must be positive")
	ErrZeroAddress        = reverts.New("zero address")

	ErrSaleNotFound      = reverts.New("sale not found")
	ErrNotSaleAdmin      = reverts.New("This function can be used only by admin.")
	ErrSameAdmin         = reverts.New("new admin must differ from the current one")
	ErrNotApproved       = reverts.New("sale is not approved")
	ErrAlreadyStarted    = reverts.New("Sale has already started.")
	ErrNotActive         = reverts.New("This sale has already ended or not started.")
	ErrNotEnded          = reverts.New("sale has not ended yet")
	ErrSoldOut           = reverts.New("not enough tokens left for sale")
	ErrTierLimit         = reverts.New("purchase exceeds the limit of the sender's tier")
	ErrInsufficientFunds = reverts.New("Insufficient funds.")
	ErrSoftcapReached    = reverts.New("softcap reached, funds are not refundable")
	ErrSoftcapMissed     = reverts.New("softcap not reached")
	ErrResultWithdrawn   = reverts.New("sale result already withdrawn")
)
