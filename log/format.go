// Copyright (c) 2026 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package log

import (
	"bytes"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	timeFormat        = "2006-01-02T15:04:05-0700"
	termTimeFormat    = "01-02|15:04:05.000"
	termMsgJust       = 40
	termCtxMaxPadding = 40
)

var spaces = []byte("                                        ")

func (h *TerminalHandler) format(buf []byte, r slog.Record, usecolor bool) []byte {
	msg := escapeMessage(r.Message)
	var color = ""
	if usecolor {
		switch r.Level {
		case LevelCrit:
			color = "\x1b[35m"
		case slog.LevelError:
			color = "\x1b[31m"
		case slog.LevelWarn:
			color = "\x1b[33m"
		case slog.LevelInfo:
			color = "\x1b[32m"
		case slog.LevelDebug:
			color = "\x1b[36m"
		case LevelTrace:
			color = "\x1b[34m"
		}
	}
	b := bytes.NewBuffer(buf)

	if color != "" { // Start color
		b.WriteString(color)
		b.WriteString(LevelAlignedString(r.Level))
		b.WriteString("\x1b[0m")
	} else {
		b.WriteString(LevelAlignedString(r.Level))
	}
	b.WriteString("[")
	b.WriteString(r.Time.Format(termTimeFormat))
	b.WriteString("] ")
	b.WriteString(msg)

	// try to justify the log output for short messages
	length := utf8.RuneCountInString(msg)
	if (r.NumAttrs()+len(h.attrs)) > 0 && length < termMsgJust {
		b.Write(spaces[:termMsgJust-length])
	}
	h.formatAttributes(b, r, color)

	return b.Bytes()
}

func (h *TerminalHandler) formatAttributes(buf *bytes.Buffer, r slog.Record, color string) {
	writeAttr := func(attr slog.Attr, last bool) {
		buf.WriteByte(' ')

		if color != "" {
			buf.WriteString(color)
			buf.WriteString(attr.Key)
			buf.WriteString("\x1b[0m=")
		} else {
			buf.WriteString(attr.Key)
			buf.WriteByte('=')
		}
		val := formatSlogValue(attr.Value)
		buf.WriteString(val)

		// Update the field padding, so subsequent lines of the same key line up.
		length := utf8.RuneCountInString(val)
		padding := h.fieldPadding[attr.Key]
		if padding < length && length <= termCtxMaxPadding {
			padding = length
			h.fieldPadding[attr.Key] = padding
		}
		if padding > length && !last {
			buf.Write(spaces[:padding-length])
		}
	}
	var n = 0
	var nAttrs = len(h.attrs) + r.NumAttrs()
	for _, attr := range h.attrs {
		writeAttr(attr, n == nAttrs-1)
		n++
	}
	r.Attrs(func(attr slog.Attr) bool {
		writeAttr(attr, n == nAttrs-1)
		n++
		return true
	})
	buf.WriteByte('\n')
}

// formatSlogValue formats a slog.Value for serialization to terminal.
func formatSlogValue(v slog.Value) string {
	var value any
	if v.Kind() == slog.KindAny {
		value = v.Any()
	} else {
		value = v.Resolve().Any()
	}
	if value == nil {
		return "<nil>"
	}
	switch v := value.(type) {
	case int64:
		return strconv.FormatInt(v, 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', 3, 64)
	case time.Duration:
		return v.String()
	case time.Time:
		return v.Format(timeFormat)
	case error:
		return escapeString(v.Error())
	case string:
		return escapeString(v)
	}
	if s, ok := amountString(value); ok {
		return escapeString(s)
	}
	return escapeString(fmt.Sprintf("%+v", value))
}

// escapeString quotes s if it contains characters which would break a logfmt line.
func escapeString(s string) string {
	needsQuoting := false
	for _, r := range s {
		if r <= ' ' || r == '=' || r == '"' || r > '~' {
			needsQuoting = true
			break
		}
	}
	if !needsQuoting && s != "" {
		return s
	}
	return strconv.Quote(s)
}

// escapeMessage only quotes the message when it contains control characters.
func escapeMessage(s string) string {
	if !strings.ContainsFunc(s, func(r rune) bool {
		return r < ' ' && r != '\t'
	}) {
		return s
	}
	return strconv.Quote(s)
}
