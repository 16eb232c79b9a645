// Copyright (c) 2026 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package reverts

import (
	"errors"
	"testing"

	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestIsRevertErr(t *testing.T) {
	err := New("not active")
	assert.Equal(t, "not active", err.Error())
	assert.True(t, IsRevertErr(err))
	assert.True(t, IsRevertErr(pkgerrors.Wrap(err, "withdraw")))

	assert.False(t, IsRevertErr(nil))
	assert.False(t, IsRevertErr("not an error"))
	assert.False(t, IsRevertErr(errors.New("plain")))
}

func TestSentinelIdentity(t *testing.T) {
	a := New("same")
	b := New("same")
	assert.ErrorIs(t, pkgerrors.Wrap(a, "ctx"), a)
	assert.NotErrorIs(t, a, b)
}
