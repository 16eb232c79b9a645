// Copyright (c) 2026 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package token

import "github.com/vechain/tierstake/reverts"

var (
	ErrAlreadyInitialized    = reverts.New("token already initialized")
	ErrNotInitialized        = reverts.New("token not initialized")
	ErrInvalidAmount         = reverts.New("invalid amount")
	ErrZeroAddress           = reverts.New("zero address")
	ErrInsufficientBalance   = reverts.New("transfer amount exceeds balance")
	ErrInsufficientAllowance = reverts.New("transfer amount exceeds allowance")
	ErrNotOwner              = reverts.New("only contract owner can call this function")
	ErrNotDAO                = reverts.New("only assigned DAO can call this function")
	ErrDAOAlreadyGranted     = reverts.New("DAO role is already granted")
	ErrExceedsPermit         = reverts.New("can't mint more than permitted amount")
	ErrPermitRateNotAssigned = reverts.New("next mint permit rate not assigned yet")
	ErrPermitRateTooEarly    = reverts.New("you can only assign permit rate on one year ahead")
)
