// Copyright (c) 2026 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package utils

import (
	"errors"
	"net/http"

	"github.com/vechain/tierstake/reverts"
)

// Revert converts err for responding. Errors matching a key of status are
// answered with that code, other business rule failures with 400 and the
// rest are returned unchanged.
func Revert(err error, status map[error]int) error {
	if err == nil {
		return nil
	}
	for target, code := range status {
		if errors.Is(err, target) {
			return HTTPError(err, code)
		}
	}
	if reverts.IsRevertErr(err) {
		return HTTPError(err, http.StatusBadRequest)
	}
	return err
}
