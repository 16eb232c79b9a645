// Copyright (c) 2026 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package datagen

import (
	"crypto/rand"
	"math/big"
	mathrand "math/rand/v2"

	"github.com/vechain/tierstake/types"
)

func RandAddress() (addr types.Address) {
	rand.Read(addr[:])
	return
}

// RandAmount returns a positive amount below max.
func RandAmount(max int64) *big.Int {
	return big.NewInt(mathrand.Int64N(max-1) + 1) //#nosec G404
}
