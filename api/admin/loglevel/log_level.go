// Copyright (c) 2026 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package loglevel

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/vechain/tierstake/api/utils"
	"github.com/vechain/tierstake/log"
)

var levels = map[string]slog.Level{
	"trace": log.LevelTrace,
	"debug": log.LevelDebug,
	"info":  log.LevelInfo,
	"warn":  log.LevelWarn,
	"error": log.LevelError,
	"crit":  log.LevelCrit,
}

// Request sets the level either by name or by verbosity (0 crit .. 5 trace).
type Request struct {
	Level     string `json:"level"`
	Verbosity *int   `json:"verbosity,omitempty"`
}

type Response struct {
	CurrentLevel string `json:"currentLevel"`
}

type LogLevel struct {
	logLevel *slog.LevelVar
}

func New(logLevel *slog.LevelVar) *LogLevel {
	return &LogLevel{logLevel: logLevel}
}

func (l *LogLevel) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()
	sub.Path("").
		Methods(http.MethodGet).
		Name("get-log-level").
		HandlerFunc(utils.WrapHandlerFunc(l.handleGet))
	sub.Path("").
		Methods(http.MethodPost).
		Name("post-log-level").
		HandlerFunc(utils.WrapHandlerFunc(l.handlePost))
}

func (l *LogLevel) respond(w http.ResponseWriter) error {
	return utils.WriteJSON(w, Response{CurrentLevel: l.logLevel.Level().String()})
}

func (l *LogLevel) handleGet(w http.ResponseWriter, _ *http.Request) error {
	return l.respond(w)
}

func (l *LogLevel) handlePost(w http.ResponseWriter, r *http.Request) error {
	var req Request
	if err := utils.ParseJSON(r.Body, &req); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "Invalid request body"))
	}

	if req.Verbosity != nil {
		if *req.Verbosity < 0 {
			return utils.BadRequest(errors.New("Invalid verbosity level"))
		}
		l.logLevel.Set(log.FromLegacyLevel(*req.Verbosity))
		return l.respond(w)
	}

	level, ok := levels[req.Level]
	if !ok {
		return utils.BadRequest(errors.New("Invalid verbosity level"))
	}
	l.logLevel.Set(level)
	return l.respond(w)
}
