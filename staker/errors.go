// Copyright (c) 2026 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"github.com/vechain/tierstake/reverts"
	"github.com/vechain/tierstake/tier"
)

var (
	ErrInvalidAmount  = reverts.New("amount must be positive")
	ErrStakeNotFound  = reverts.New("stake id is invalid")
	ErrStakeNotActive = reverts.New("not active")
	ErrNotOwner       = reverts.New("sender not staker")
	ErrNotAuthorized  = reverts.New("this function can be used only by admin")
	ErrEscrowFailed   = reverts.New("escrow failed")
	ErrIssueFailed    = reverts.New("issue failed")
	ErrNoActiveStake  = reverts.New("no coins staked, tier is 0")

	// ErrOrderingViolation is returned when a threshold change breaks the ascending order.
	ErrOrderingViolation = tier.ErrWrongInput

	ErrNotInitialized     = reverts.New("staker not initialized")
	ErrAlreadyInitialized = reverts.New("staker already initialized")
)
