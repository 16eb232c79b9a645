// Copyright (c) 2026 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/common/expfmt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/tierstake/api/stakes"
	"github.com/vechain/tierstake/api/subscriptions"
	"github.com/vechain/tierstake/metrics"
	"github.com/vechain/tierstake/test"
	"github.com/vechain/tierstake/test/testenv"
)

func init() {
	metrics.InitializePrometheusMetrics()
}

func TestMetricsMiddleware(t *testing.T) {
	env, err := testenv.NewDefault()
	require.NoError(t, err)
	defer env.Close()

	router := mux.NewRouter()
	stakes.New(env.Staker(), env.Authenticator()).Mount(router)
	router.PathPrefix("/metrics").Handler(metrics.HTTPHandler())
	router.Use(metricsMiddleware)
	ts := httptest.NewServer(router)
	defer ts.Close()

	_, code := httpGet(t, ts.URL+"/tiers")
	assert.Equal(t, http.StatusOK, code)
	_, code = httpGet(t, ts.URL+"/stakes/abc")
	assert.Equal(t, http.StatusBadRequest, code)
	_, code = httpGet(t, ts.URL+"/stakes/7")
	assert.Equal(t, http.StatusNotFound, code)
	_, code = httpGet(t, ts.URL+"/stakes/8")
	assert.Equal(t, http.StatusNotFound, code)

	body, _ := httpGet(t, ts.URL+"/metrics")
	parser := expfmt.TextParser{}
	families, err := parser.TextToMetricFamilies(bytes.NewReader(body))
	require.NoError(t, err)

	m := families["tierstake_api_request_count"].GetMetric()
	require.Equal(t, 3, len(m), "should be 3 metric entries")

	expected := []struct {
		code  string
		name  string
		count float64
	}{
		{"200", "tiers_get", 1},
		{"400", "stakes_get", 1},
		{"404", "stakes_get", 2},
	}
	for i, e := range expected {
		labels := m[i].GetLabel()
		require.Equal(t, 3, len(labels))
		assert.Equal(t, "code", labels[0].GetName())
		assert.Equal(t, e.code, labels[0].GetValue())
		assert.Equal(t, "method", labels[1].GetName())
		assert.Equal(t, "GET", labels[1].GetValue())
		assert.Equal(t, "name", labels[2].GetName())
		assert.Equal(t, e.name, labels[2].GetValue())
		assert.Equal(t, e.count, m[i].GetCounter().GetValue())
	}

	assert.NotNil(t, families["tierstake_api_duration_ms"])
}

func activeWebsockets(t *testing.T, metricsURL string) float64 {
	body, _ := httpGet(t, metricsURL)
	parser := expfmt.TextParser{}
	families, err := parser.TextToMetricFamilies(bytes.NewReader(body))
	require.NoError(t, err)

	family := families["tierstake_api_active_websocket_count"]
	if family == nil {
		return 0
	}
	for _, m := range family.GetMetric() {
		if m.GetLabel()[0].GetValue() == "stakes" {
			return m.GetGauge().GetValue()
		}
	}
	return 0
}

func TestWebsocketMetrics(t *testing.T) {
	env, err := testenv.NewDefault()
	require.NoError(t, err)
	defer env.Close()

	subs := subscriptions.New(env.Staker(), nil)
	defer subs.Close()

	router := mux.NewRouter()
	subs.Mount(router, "/subscriptions")
	router.PathPrefix("/metrics").Handler(metrics.HTTPHandler())
	router.Use(metricsMiddleware)
	ts := httptest.NewServer(router)
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/subscriptions/stakes", nil)
	require.NoError(t, err)
	assert.Equal(t, float64(1), activeWebsockets(t, ts.URL+"/metrics"))

	conn.Close()
	assert.NoError(t, test.Retry(func() error {
		if n := activeWebsockets(t, ts.URL+"/metrics"); n != 0 {
			return fmt.Errorf("%v websockets still active", n)
		}
		return nil
	}, 10*time.Millisecond, 5*time.Second))
}
