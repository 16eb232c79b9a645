// Copyright (c) 2026 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package httpserver

import (
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"github.com/vechain/tierstake/co"
)

// MaxRequestBodySize caps the size of API request bodies.
const MaxRequestBodySize = 200 * 1024

// handleAPITimeout bounds each request by timeout. Websocket upgrades are
// long lived and need a hijackable writer, so they pass through.
func handleAPITimeout(handler http.Handler, timeout time.Duration) http.Handler {
	bounded := http.TimeoutHandler(handler, timeout, "request timeout")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if websocket.IsWebSocketUpgrade(r) {
			handler.ServeHTTP(w, r)
			return
		}
		bounded.ServeHTTP(w, r)
	})
}

// StartAPIServer serves handler on addr. A positive timeout bounds each request.
func StartAPIServer(addr string, handler http.Handler, timeout time.Duration) (string, func(), error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return "", nil, errors.Wrapf(err, "listen API addr [%v]", addr)
	}

	if timeout > 0 {
		handler = handleAPITimeout(handler, timeout)
	}
	handler = http.MaxBytesHandler(handler, MaxRequestBodySize)

	srv := &http.Server{Handler: handler, ReadHeaderTimeout: time.Second, ReadTimeout: 5 * time.Second}
	var goes co.Goes
	goes.Go(func() {
		srv.Serve(listener)
	})
	return "http://" + listener.Addr().String() + "/", func() {
		srv.Close()
		goes.Wait()
	}, nil
}
