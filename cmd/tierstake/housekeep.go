// Copyright (c) 2026 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"time"

	"github.com/beevik/ntp"
	"github.com/ethereum/go-ethereum/common"

	"github.com/vechain/tierstake/log"
)

// maxClockOffset is the local clock drift tolerated before warning. Stake
// interest is accrued by wall clock seconds.
const maxClockOffset = 5 * time.Second

// clockWatch compares the local clock against server until ctx is done.
func clockWatch(ctx context.Context, server string) {
	log.Debug("enter clock watch")
	defer log.Debug("leave clock watch")

	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	checkClockOffset(server)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			checkClockOffset(server)
		}
	}
}

func checkClockOffset(server string) {
	resp, err := ntp.Query(server)
	if err != nil {
		log.Debug("failed to access NTP", "err", err)
		return
	}
	if clockSkewed(resp.ClockOffset) {
		log.Warn("clock offset detected", "offset", common.PrettyDuration(resp.ClockOffset))
	}
}

func clockSkewed(offset time.Duration) bool {
	if offset < 0 {
		offset = -offset
	}
	return offset > maxClockOffset
}
