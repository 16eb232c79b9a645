// Copyright (c) 2026 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package subscriptions

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/vechain/tierstake/api/utils"
	"github.com/vechain/tierstake/co"
	"github.com/vechain/tierstake/log"
	"github.com/vechain/tierstake/metrics"
	"github.com/vechain/tierstake/staker"
)

const (
	listenerBuffer = 64
	writeTimeout   = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 7 / 10
)

var (
	logger = log.WithContext("pkg", "subscriptions")

	metricDroppedEvents = metrics.LazyLoadCounter("subscriptions_dropped_events_count")
)

type Subscriptions struct {
	feed     *stakeFeed
	upgrader *websocket.Upgrader
	done     chan struct{}
	goes     co.Goes
}

// New starts dispatching engine events. Browsers may connect from any of
// allowedOrigins, "*" allows all.
func New(stk *staker.Staker, allowedOrigins []string) *Subscriptions {
	s := &Subscriptions{
		feed: newStakeFeed(stk),
		upgrader: &websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				for _, allowed := range allowedOrigins {
					if allowed == "*" || strings.EqualFold(allowed, origin) {
						return true
					}
				}
				return false
			},
		},
		done: make(chan struct{}),
	}
	s.goes.Go(func() { s.feed.DispatchLoop(s.done) })
	return s
}

func (s *Subscriptions) handleSubscribeStakes(w http.ResponseWriter, req *http.Request) error {
	query := req.URL.Query()
	filter, err := parseFilter(query.Get("holder"), query.Get("kind"))
	if err != nil {
		return utils.BadRequest(err)
	}

	// listen before the handshake completes so the client sees every later event
	ch := make(chan *staker.Event, listenerBuffer)
	s.feed.Subscribe(ch)
	defer s.feed.Unsubscribe(ch)

	conn, err := s.upgrader.Upgrade(w, req, nil)
	if err != nil {
		// the upgrader has already replied
		logger.Debug("upgrade failed", "err", err)
		return nil
	}
	defer conn.Close()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case ev := <-ch:
			if !filter.Match(ev) {
				continue
			}
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteJSON(convertEvent(ev)); err != nil {
				logger.Debug("write event failed", "err", err)
				return nil
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				return nil
			}
		case <-closed:
			return nil
		case <-s.done:
			msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutdown")
			conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeTimeout))
			return nil
		}
	}
}

// Close stops dispatching and disconnects every subscriber.
func (s *Subscriptions) Close() {
	close(s.done)
	s.goes.Wait()
}

func (s *Subscriptions) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/stakes").
		Methods(http.MethodGet).
		Name("subscriptions_stakes").
		HandlerFunc(utils.WrapHandlerFunc(s.handleSubscribeStakes))
}
