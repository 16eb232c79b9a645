// Copyright (c) 2026 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"reflect"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/holiman/uint256"
)

type discardHandler struct{}

// DiscardHandler drops every record. Tests install it as the root handler.
func DiscardHandler() slog.Handler {
	return discardHandler{}
}

func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (h discardHandler) WithGroup(string) slog.Handler           { return h }
func (h discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return h }

// TerminalHandler writes human readable records with color coded levels:
//
//	[LEVEL] [TIME] MESSAGE key=value key=value ...
//
// Example:
//
//	DBUG [05-16|20:58:45.000] stake opened                    id=3 owner=0x7567...ffed amount=100000
//
// Attribute values are padded per key so that columns of repeated ledger
// logs line up.
type TerminalHandler struct {
	mu       sync.Mutex
	wr       io.Writer
	lvl      *slog.LevelVar
	useColor bool
	attrs    []slog.Attr
	// widest value seen per key
	fieldPadding map[string]int

	buf []byte
}

// NewTerminalHandlerWithLevel returns a terminal handler printing records at
// or above lvl. lvl may be changed at runtime.
func NewTerminalHandlerWithLevel(wr io.Writer, lvl *slog.LevelVar, useColor bool) *TerminalHandler {
	return &TerminalHandler{
		wr:           wr,
		lvl:          lvl,
		useColor:     useColor,
		fieldPadding: make(map[string]int),
	}
}

func (h *TerminalHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	buf := h.format(h.buf, r, h.useColor)
	_, err := h.wr.Write(buf)
	h.buf = buf[:0]
	return err
}

func (h *TerminalHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.lvl.Level()
}

// WithGroup is not supported, groups are flattened into the record.
func (h *TerminalHandler) WithGroup(string) slog.Handler {
	return h
}

func (h *TerminalHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &TerminalHandler{
		wr:           h.wr,
		lvl:          h.lvl,
		useColor:     h.useColor,
		attrs:        append(h.attrs[:len(h.attrs):len(h.attrs)], attrs...),
		fieldPadding: make(map[string]int),
	}
}

// JSONHandler prints every record as one JSON object per line.
func JSONHandler(wr io.Writer) slog.Handler {
	var level slog.LevelVar
	level.Set(levelMaxVerbosity)
	return JSONHandlerWithLevel(wr, &level)
}

// JSONHandlerWithLevel is JSONHandler limited to records at or above level.
func JSONHandlerWithLevel(wr io.Writer, level *slog.LevelVar) slog.Handler {
	return slog.NewJSONHandler(wr, &slog.HandlerOptions{
		ReplaceAttr: replaceAttr(false),
		Level:       level,
	})
}

// LogfmtHandler prints records as logfmt key/value pairs.
func LogfmtHandler(wr io.Writer) slog.Handler {
	return slog.NewTextHandler(wr, &slog.HandlerOptions{
		ReplaceAttr: replaceAttr(true),
		Level:       levelMaxVerbosity,
	})
}

// replaceAttr renames the builtin keys to t/lvl and renders ledger amounts
// in decimal. JSON output keeps native time values.
func replaceAttr(logfmt bool) func([]string, slog.Attr) slog.Attr {
	return func(_ []string, attr slog.Attr) slog.Attr {
		switch attr.Key {
		case slog.TimeKey:
			if attr.Value.Kind() == slog.KindTime {
				if logfmt {
					return slog.String("t", attr.Value.Time().Format(timeFormat))
				}
				return slog.Attr{Key: "t", Value: attr.Value}
			}
		case slog.LevelKey:
			if l, ok := attr.Value.Any().(slog.Level); ok {
				return slog.String("lvl", LevelString(l))
			}
		}
		if t, ok := attr.Value.Any().(time.Time); ok {
			if logfmt {
				attr.Value = slog.StringValue(t.Format(timeFormat))
			}
			return attr
		}
		if s, ok := amountString(attr.Value.Any()); ok {
			attr.Value = slog.StringValue(s)
		}
		return attr
	}
}

// amountString renders the numeric types flowing through the ledger and any
// other fmt.Stringer. Nil pointers render as <nil>.
func amountString(v any) (string, bool) {
	switch v := v.(type) {
	case *big.Int:
		if v == nil {
			return "<nil>", true
		}
		return v.String(), true
	case *uint256.Int:
		if v == nil {
			return "<nil>", true
		}
		return v.Dec(), true
	case *math.HexOrDecimal256:
		if v == nil {
			return "<nil>", true
		}
		return (*big.Int)(v).String(), true
	case fmt.Stringer:
		if rv := reflect.ValueOf(v); rv.Kind() == reflect.Pointer && rv.IsNil() {
			return "<nil>", true
		}
		return v.String(), true
	}
	return "", false
}
