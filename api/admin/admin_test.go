// Copyright (c) 2026 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package admin

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vechain/tierstake/health"
)

func TestAdminRoutes(t *testing.T) {
	var level slog.LevelVar
	var apiLogs atomic.Bool
	h := health.New()
	h.Serving(true)

	ts := httptest.NewServer(NewHTTPHandler(&level, h, &apiLogs))
	defer ts.Close()

	for _, path := range []string{"/admin/loglevel", "/admin/health", "/admin/apilogs"} {
		res, err := http.Get(ts.URL + path) //#nosec G107
		assert.NoError(t, err)
		assert.Equal(t, http.StatusOK, res.StatusCode, path)
		res.Body.Close()
	}

	res, err := http.Post(ts.URL+"/admin/apilogs", "application/json", bytes.NewBufferString(`{"enabled":true}`))
	assert.NoError(t, err)
	res.Body.Close()
	assert.True(t, apiLogs.Load())

	res, err = http.Get(ts.URL + "/loglevel")
	assert.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}
