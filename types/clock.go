// Copyright (c) 2026 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package types

import (
	"sync/atomic"
	"time"
)

// Clock returns the current unix time in seconds.
type Clock func() uint64

// SystemClock reads the wall clock.
func SystemClock() uint64 {
	return uint64(time.Now().Unix())
}

// ManualClock is a settable clock.
type ManualClock struct {
	now atomic.Uint64
}

func NewManualClock(now uint64) *ManualClock {
	c := &ManualClock{}
	c.now.Store(now)
	return c
}

func (c *ManualClock) Now() uint64 {
	return c.now.Load()
}

func (c *ManualClock) Set(now uint64) {
	c.now.Store(now)
}

// Advance moves the clock forward by seconds.
func (c *ManualClock) Advance(seconds uint64) {
	c.now.Add(seconds)
}
