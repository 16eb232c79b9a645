// Copyright (c) 2026 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package test holds helpers shared by package tests.
package test

import (
	"time"

	"github.com/pkg/errors"
)

// Retry polls fn every period until it returns nil. After maxWait the last
// error is returned, wrapped.
func Retry(fn func() error, period, maxWait time.Duration) error {
	deadline := time.NewTimer(maxWait)
	defer deadline.Stop()
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		err := fn()
		if err == nil {
			return nil
		}
		select {
		case <-deadline.C:
			return errors.WithMessage(err, "retry timeout")
		case <-ticker.C:
		}
	}
}
