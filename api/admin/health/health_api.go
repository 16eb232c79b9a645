// Copyright (c) 2026 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package health

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/vechain/tierstake/api/utils"
	"github.com/vechain/tierstake/health"
)

// API serves the health of the ledger node on the admin server.
type API struct {
	healthStatus *health.Health
}

func NewAPI(healthStatus *health.Health) *API {
	return &API{
		healthStatus: healthStatus,
	}
}

// handleGetHealth reports every check, or the comma separated ones named by
// the check query parameter.
func (h *API) handleGetHealth(w http.ResponseWriter, req *http.Request) error {
	var names []string
	if q := req.URL.Query().Get("check"); q != "" {
		names = strings.Split(q, ",")
	}
	status, err := h.healthStatus.Status(names...)
	if err != nil {
		if errors.Is(err, health.ErrUnknownCheck) {
			return utils.BadRequest(err)
		}
		return err
	}

	// headers must be set before the status code
	w.Header().Set("Content-Type", utils.JSONContentType)
	if status.Healthy {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	return json.NewEncoder(w).Encode(status)
}

func (h *API) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").
		Methods(http.MethodGet).
		Name("health").
		HandlerFunc(utils.WrapHandlerFunc(h.handleGetHealth))
}
