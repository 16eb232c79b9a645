// Copyright (c) 2026 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package httpserver

import (
	"net"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/vechain/tierstake/co"
	"github.com/vechain/tierstake/log"
	"github.com/vechain/tierstake/metrics"
)

var logger = log.WithContext("pkg", "httpserver")

// LedgerGauge is a ledger figure exported as a gauge. Read runs before
// every scrape.
type LedgerGauge struct {
	Name string
	Read func() (int64, error)
}

// refreshGauges updates the gauges from the ledger. A failed read leaves
// the previous value in place.
func refreshGauges(gauges []LedgerGauge) {
	for _, g := range gauges {
		v, err := g.Read()
		if err != nil {
			logger.Warn("failed to read ledger gauge", "name", g.Name, "err", err)
			continue
		}
		metrics.Gauge(g.Name).Set(v)
	}
}

// StartMetricsServer serves the prometheus registry on addr under /metrics,
// refreshing the ledger gauges on each scrape.
func StartMetricsServer(addr string, gauges ...LedgerGauge) (string, func(), error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return "", nil, errors.Wrapf(err, "listen metrics addr [%v]", addr)
	}

	registry := metrics.HTTPHandler()
	if registry == nil {
		listener.Close()
		return "", nil, errors.New("metrics not initialized")
	}
	router := mux.NewRouter()
	router.Path("/metrics").
		Methods(http.MethodGet).
		HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			refreshGauges(gauges)
			registry.ServeHTTP(w, req)
		})

	srv := &http.Server{
		Handler:           handlers.CompressHandler(router),
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
	}
	var goes co.Goes
	goes.Go(func() {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server stopped", "err", err)
		}
	})
	return "http://" + listener.Addr().String() + "/metrics", func() {
		srv.Close()
		goes.Wait()
	}, nil
}
