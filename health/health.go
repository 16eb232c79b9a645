// Copyright (c) 2026 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package health

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"
)

// ErrUnknownCheck is returned when a status is asked for a check that was
// never registered.
var ErrUnknownCheck = errors.New("unknown check")

// Check is a named readiness check.
type Check struct {
	Name string
	Run  func() error
}

type CheckStatus struct {
	Name    string `json:"name"`
	Healthy bool   `json:"healthy"`
	Error   string `json:"error,omitempty"`
}

type Status struct {
	Healthy   bool          `json:"healthy"`
	Serving   bool          `json:"serving"`
	StartedAt *time.Time    `json:"startedAt"`
	Checks    []CheckStatus `json:"checks"`
}

type Health struct {
	lock      sync.RWMutex
	checks    []Check
	serving   bool
	startedAt time.Time
}

func New(checks ...Check) *Health {
	return &Health{checks: checks}
}

// Serving marks whether the API server accepts requests.
func (h *Health) Serving(serving bool) {
	h.lock.Lock()
	defer h.lock.Unlock()

	if serving && !h.serving {
		h.startedAt = time.Now()
	}
	h.serving = serving
}

// Status runs the checks and reports the overall health. When names are
// given only those checks run.
func (h *Health) Status(names ...string) (*Status, error) {
	h.lock.RLock()
	defer h.lock.RUnlock()

	checks, err := h.pick(names)
	if err != nil {
		return nil, err
	}
	status := &Status{
		Healthy: h.serving,
		Serving: h.serving,
		Checks:  make([]CheckStatus, 0, len(checks)),
	}
	if h.serving {
		startedAt := h.startedAt
		status.StartedAt = &startedAt
	}
	for _, p := range checks {
		ps := CheckStatus{Name: p.Name, Healthy: true}
		if err := p.Run(); err != nil {
			ps.Healthy = false
			ps.Error = err.Error()
			status.Healthy = false
		}
		status.Checks = append(status.Checks, ps)
	}
	return status, nil
}

func (h *Health) pick(names []string) ([]Check, error) {
	if len(names) == 0 {
		return h.checks, nil
	}
	checks := make([]Check, 0, len(names))
	for _, name := range names {
		i := slices.IndexFunc(h.checks, func(p Check) bool { return p.Name == name })
		if i < 0 {
			return nil, fmt.Errorf("%w: %q", ErrUnknownCheck, name)
		}
		checks = append(checks, h.checks[i])
	}
	return checks, nil
}
