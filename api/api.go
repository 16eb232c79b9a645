// Copyright (c) 2026 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api

import (
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/vechain/tierstake/api/auth"
	"github.com/vechain/tierstake/api/middleware"
	"github.com/vechain/tierstake/api/sales"
	"github.com/vechain/tierstake/api/stakes"
	"github.com/vechain/tierstake/api/subscriptions"
	"github.com/vechain/tierstake/api/tokens"
	"github.com/vechain/tierstake/log"
	"github.com/vechain/tierstake/sale"
	"github.com/vechain/tierstake/staker"
	"github.com/vechain/tierstake/token"
	"github.com/vechain/tierstake/types"
)

var logger = log.WithContext("pkg", "api")

type Options struct {
	AllowedOrigins       string
	EnableReqLogger      *atomic.Bool
	SlowQueriesThreshold time.Duration
	Log5xxErrors         bool
	EnableMetrics        bool
}

// New return api router and a func to close websocket subscriptions
func New(
	stk *staker.Staker,
	ledger *token.Ledger,
	assets map[string]*token.Ledger,
	factory *sale.Factory,
	authenticator *auth.Authenticator,
	clock types.Clock,
	opts Options,
) (http.HandlerFunc, func()) {
	origins := strings.Split(strings.TrimSpace(opts.AllowedOrigins), ",")
	for i, o := range origins {
		origins[i] = strings.ToLower(strings.TrimSpace(o))
	}

	router := mux.NewRouter()

	if opts.EnableMetrics {
		router.Use(metricsMiddleware)
	}

	authenticator.Mount(router, "/auth")
	stakes.New(stk, authenticator).
		Mount(router)
	tokens.New(ledger, authenticator, "token").
		Mount(router, "/token")
	for symbol, asset := range assets {
		tokens.New(asset, authenticator, "asset").
			Mount(router, "/assets/"+symbol)
	}
	sales.New(factory, authenticator, clock).
		Mount(router, "/sales")
	subs := subscriptions.New(stk, origins)
	subs.Mount(router, "/subscriptions")

	handler := handlers.CompressHandler(router)
	handler = handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedHeaders([]string{"content-type", middleware.RequestIDHeader, auth.SignatureHeader, auth.NonceHeader}),
		handlers.ExposedHeaders([]string{middleware.RequestIDHeader}),
	)(handler)

	enabled := opts.EnableReqLogger
	if enabled == nil {
		enabled = &atomic.Bool{}
	}
	handler = middleware.RequestLoggerMiddleware(logger, enabled, opts.SlowQueriesThreshold, opts.Log5xxErrors)(handler)

	return handler.ServeHTTP, subs.Close
}
