// Copyright (c) 2026 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package subscriptions

import (
	"sync"

	"github.com/ethereum/go-ethereum/event"

	"github.com/vechain/tierstake/staker"
)

// stakeFeed fans engine events out to websocket listeners.
type stakeFeed struct {
	events    chan *staker.Event
	sub       event.Subscription
	listeners map[chan *staker.Event]struct{}
	mu        sync.RWMutex
}

func newStakeFeed(stk *staker.Staker) *stakeFeed {
	events := make(chan *staker.Event)
	return &stakeFeed{
		events:    events,
		sub:       stk.SubscribeEvents(events),
		listeners: make(map[chan *staker.Event]struct{}),
	}
}

func (f *stakeFeed) Subscribe(ch chan *staker.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.listeners[ch] = struct{}{}
}

func (f *stakeFeed) Unsubscribe(ch chan *staker.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()

	delete(f.listeners, ch)
}

func (f *stakeFeed) DispatchLoop(done <-chan struct{}) {
	defer f.sub.Unsubscribe()

	for {
		select {
		case ev := <-f.events:
			f.mu.RLock()
			for lsn := range f.listeners {
				select {
				case lsn <- ev:
				default: // a slow listener misses the event rather than stalling the engine
					metricDroppedEvents().Add(1)
				}
			}
			f.mu.RUnlock()
		case <-f.sub.Err():
			return
		case <-done:
			return
		}
	}
}
