// Copyright (c) 2026 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package log

import (
	"context"
	"log/slog"
	"os"
	"sync/atomic"
)

var root atomic.Value

func init() {
	root.Store(&logger{slog.New(DiscardHandler())})
}

// SetDefault sets the default global logger
func SetDefault(l Logger) {
	root.Store(l)
	if lg, ok := l.(*logger); ok {
		slog.SetDefault(lg.inner)
	}
}

// Root returns the root logger
func Root() Logger {
	return root.Load().(Logger)
}

// WithContext returns a logger which carries ctx and always writes through the
// current root handler, so package level loggers created at init time follow a
// later SetDefault.
func WithContext(ctx ...any) Logger {
	return &contextLogger{ctx: ctx}
}

type contextLogger struct {
	ctx []any
}

func (c *contextLogger) Handler() slog.Handler {
	return Root().Handler()
}

func (c *contextLogger) Write(level slog.Level, msg string, attrs ...any) {
	writeRecord(Root().Handler(), level, msg, c.ctx, attrs)
}

func (c *contextLogger) Log(level slog.Level, msg string, attrs ...any) {
	c.Write(level, msg, attrs...)
}

func (c *contextLogger) With(ctx ...any) Logger {
	merged := make([]any, 0, len(c.ctx)+len(ctx))
	merged = append(merged, c.ctx...)
	return &contextLogger{ctx: append(merged, ctx...)}
}

func (c *contextLogger) New(ctx ...any) Logger {
	return c.With(ctx...)
}

func (c *contextLogger) Enabled(ctx context.Context, level slog.Level) bool {
	return Root().Enabled(ctx, level)
}

func (c *contextLogger) Trace(msg string, ctx ...any) {
	c.Write(LevelTrace, msg, ctx...)
}

func (c *contextLogger) Debug(msg string, ctx ...any) {
	c.Write(slog.LevelDebug, msg, ctx...)
}

func (c *contextLogger) Info(msg string, ctx ...any) {
	c.Write(slog.LevelInfo, msg, ctx...)
}

func (c *contextLogger) Warn(msg string, ctx ...any) {
	c.Write(slog.LevelWarn, msg, ctx...)
}

func (c *contextLogger) Error(msg string, ctx ...any) {
	c.Write(slog.LevelError, msg, ctx...)
}

func (c *contextLogger) Crit(msg string, ctx ...any) {
	c.Write(LevelCrit, msg, ctx...)
	os.Exit(1)
}

// Trace is a convenient alias for Root().Trace
func Trace(msg string, ctx ...any) {
	Root().Write(LevelTrace, msg, ctx...)
}

// Debug is a convenient alias for Root().Debug
func Debug(msg string, ctx ...any) {
	Root().Write(slog.LevelDebug, msg, ctx...)
}

// Info is a convenient alias for Root().Info
func Info(msg string, ctx ...any) {
	Root().Write(slog.LevelInfo, msg, ctx...)
}

// Warn is a convenient alias for Root().Warn
func Warn(msg string, ctx ...any) {
	Root().Write(slog.LevelWarn, msg, ctx...)
}

// Error is a convenient alias for Root().Error
func Error(msg string, ctx ...any) {
	Root().Write(slog.LevelError, msg, ctx...)
}

// Crit is a convenient alias for Root().Crit
func Crit(msg string, ctx ...any) {
	Root().Write(LevelCrit, msg, ctx...)
	os.Exit(1)
}
