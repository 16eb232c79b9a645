// Copyright (c) 2026 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package subscriptions

import (
	"strings"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/pkg/errors"

	"github.com/vechain/tierstake/staker"
	"github.com/vechain/tierstake/types"
)

// EventMessage is the websocket frame sent for each engine event.
type EventMessage struct {
	Kind      string                `json:"kind"`
	StakeID   *uint64               `json:"stakeId,omitempty"`
	Holder    *types.Address        `json:"holder,omitempty"`
	Amount    *math.HexOrDecimal256 `json:"amount,omitempty"`
	Reward    *math.HexOrDecimal256 `json:"reward,omitempty"`
	Tier      *uint8                `json:"tier,omitempty"`
	APR       *uint64               `json:"apr,omitempty"`
	Timestamp uint64                `json:"timestamp"`
}

func convertEvent(ev *staker.Event) *EventMessage {
	msg := &EventMessage{
		Kind:      string(ev.Kind),
		Timestamp: ev.Time,
	}
	switch ev.Kind {
	case staker.EventStaked, staker.EventWithdrawn:
		id, holder, level := ev.StakeID, ev.Holder, ev.Tier
		msg.StakeID = &id
		msg.Holder = &holder
		msg.Tier = &level
		msg.Amount = (*math.HexOrDecimal256)(ev.Amount)
		msg.Reward = (*math.HexOrDecimal256)(ev.Reward)
	case staker.EventTierRefreshed:
		holder, level := ev.Holder, ev.Tier
		msg.Holder = &holder
		msg.Tier = &level
	case staker.EventAPRChanged:
		apr := ev.APR
		msg.APR = &apr
	case staker.EventTiersChanged:
		// set only when a single threshold changed
		if ev.Amount != nil {
			level := ev.Tier
			msg.Tier = &level
			msg.Amount = (*math.HexOrDecimal256)(ev.Amount)
		}
	}
	return msg
}

var knownKinds = map[staker.EventKind]bool{
	staker.EventStaked:        true,
	staker.EventWithdrawn:     true,
	staker.EventTierRefreshed: true,
	staker.EventAPRChanged:    true,
	staker.EventTiersChanged:  true,
}

// eventFilter selects the events a subscriber receives. A holder filter
// drops events that are not about a holder.
type eventFilter struct {
	holder *types.Address
	kinds  map[staker.EventKind]bool
}

func parseFilter(holder, kinds string) (*eventFilter, error) {
	f := &eventFilter{}
	if holder != "" {
		addr, err := types.ParseAddress(holder)
		if err != nil {
			return nil, errors.WithMessage(err, "holder")
		}
		f.holder = addr
	}
	if kinds != "" {
		f.kinds = make(map[staker.EventKind]bool)
		for _, k := range strings.Split(kinds, ",") {
			kind := staker.EventKind(strings.TrimSpace(k))
			if !knownKinds[kind] {
				return nil, errors.Errorf("kind: unknown event kind %q", kind)
			}
			f.kinds[kind] = true
		}
	}
	return f, nil
}

func (f *eventFilter) Match(ev *staker.Event) bool {
	if f.kinds != nil && !f.kinds[ev.Kind] {
		return false
	}
	if f.holder != nil && ev.Holder != *f.holder {
		return false
	}
	return true
}
