// Copyright (c) 2026 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package utils

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

// JSONContentType is the content type of every API response body.
const JSONContentType = "application/json; charset=utf-8"

// M shortcut for type map[string]any.
type M map[string]any

type httpError struct {
	cause  error
	status int
}

func (e *httpError) Error() string { return e.cause.Error() }
func (e *httpError) Unwrap() error { return e.cause }

// HTTPError attaches the response status to cause.
func HTTPError(cause error, status int) error {
	return &httpError{cause: cause, status: status}
}

// BadRequest answers cause with 400.
func BadRequest(cause error) error {
	return HTTPError(cause, http.StatusBadRequest)
}

// HandlerFunc is an http handler that may fail. The status of an error made
// by HTTPError, even when wrapped, is responded with the error text.
// Anything else is a 500.
type HandlerFunc func(http.ResponseWriter, *http.Request) error

// WrapHandlerFunc converts f to a plain http.HandlerFunc.
func WrapHandlerFunc(f HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := f(w, r); err != nil {
			respondError(w, err)
		}
	}
}

func respondError(w http.ResponseWriter, err error) {
	var he *httpError
	switch {
	case !errors.As(err, &he):
		http.Error(w, err.Error(), http.StatusInternalServerError)
	case he.cause == nil:
		w.WriteHeader(he.status)
	default:
		http.Error(w, he.cause.Error(), he.status)
	}
}

// ParseJSON decodes one JSON value from r, rejecting unknown fields.
func ParseJSON(r io.Reader, v any) error {
	decoder := json.NewDecoder(r)
	decoder.DisallowUnknownFields()
	return decoder.Decode(v)
}

// WriteJSON responds obj in JSON.
func WriteJSON(w http.ResponseWriter, obj any) error {
	w.Header().Set("Content-Type", JSONContentType)
	return json.NewEncoder(w).Encode(obj)
}
