// Copyright (c) 2026 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package health

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealth_Serving(t *testing.T) {
	h := New()

	status, err := h.Status()
	require.NoError(t, err)
	assert.False(t, status.Healthy)
	assert.Nil(t, status.StartedAt)

	h.Serving(true)
	status, err = h.Status()
	require.NoError(t, err)
	assert.True(t, status.Healthy)
	assert.True(t, status.Serving)
	require.NotNil(t, status.StartedAt)
	first := *status.StartedAt

	// already serving, start time is kept
	h.Serving(true)
	status, err = h.Status()
	require.NoError(t, err)
	assert.Equal(t, first, *status.StartedAt)

	h.Serving(false)
	status, err = h.Status()
	require.NoError(t, err)
	assert.False(t, status.Healthy)
}

func TestHealth_Checks(t *testing.T) {
	var failing error
	h := New(
		Check{Name: "store", Run: func() error { return nil }},
		Check{Name: "staker", Run: func() error { return failing }},
	)
	h.Serving(true)

	status, err := h.Status()
	require.NoError(t, err)
	assert.True(t, status.Healthy)
	assert.Len(t, status.Checks, 2)

	failing = errors.New("not initialized")
	status, err = h.Status()
	require.NoError(t, err)
	assert.False(t, status.Healthy)
	assert.True(t, status.Checks[0].Healthy)
	assert.False(t, status.Checks[1].Healthy)
	assert.Equal(t, "not initialized", status.Checks[1].Error)
}

func TestHealth_SelectChecks(t *testing.T) {
	h := New(
		Check{Name: "store", Run: func() error { return nil }},
		Check{Name: "staker", Run: func() error { return errors.New("not initialized") }},
	)
	h.Serving(true)

	status, err := h.Status("store")
	require.NoError(t, err)
	assert.True(t, status.Healthy)
	require.Len(t, status.Checks, 1)
	assert.Equal(t, "store", status.Checks[0].Name)

	status, err = h.Status("staker", "store")
	require.NoError(t, err)
	assert.False(t, status.Healthy)
	assert.Equal(t, "staker", status.Checks[0].Name)

	_, err = h.Status("token")
	assert.ErrorIs(t, err, ErrUnknownCheck)
}
