// Copyright (c) 2026 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"math/big"

	"github.com/ethereum/go-ethereum/event"

	"github.com/vechain/tierstake/types"
)

// EventKind names a committed state change.
type EventKind string

const (
	EventStaked        EventKind = "staked"
	EventWithdrawn     EventKind = "withdrawn"
	EventTierRefreshed EventKind = "tierRefreshed"
	EventAPRChanged    EventKind = "aprChanged"
	EventTiersChanged  EventKind = "tiersChanged"
)

// Event is published after the change it describes has been committed.
// Events of concurrent operations may arrive out of commit order. Fields
// that do not apply to Kind are left zero.
type Event struct {
	Kind    EventKind
	StakeID uint64
	Holder  types.Address
	Amount  *big.Int
	Reward  *big.Int
	Tier    uint8
	APR     uint64
	Time    uint64
}

// SubscribeEvents registers ch for engine events. Sends block until every
// subscriber has received the event, so ch must be drained promptly.
func (s *Staker) SubscribeEvents(ch chan *Event) event.Subscription {
	return s.scope.Track(s.feed.Subscribe(ch))
}

// Close ends all event subscriptions.
func (s *Staker) Close() {
	s.scope.Close()
}

func (s *Staker) publish(ev *Event) {
	ev.Time = s.clock()
	s.feed.Send(ev)
}
