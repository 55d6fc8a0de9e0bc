// Package log provides the zerolog-backed logger shared across canmux and a
// context key for handing it to middleware-wrapped handlers.
package log

import (
	"context"

	"github.com/rs/zerolog"
)

type ctxKey struct{}

// LoggerCtxKey is the context key under which middleware stores the logger.
var LoggerCtxKey = ctxKey{}

// Logger wraps a zerolog.Logger so callers depend on this package rather
// than on zerolog directly.
type Logger struct {
	zerolog.Logger
}

// NewZeroLogger wraps an already configured zerolog.Logger.
func NewZeroLogger(l zerolog.Logger) Logger {
	return Logger{l}
}

// FromContext extracts a Logger previously injected into the context.
func FromContext(ctx context.Context) (Logger, bool) {
	l, ok := ctx.Value(LoggerCtxKey).(Logger)
	return l, ok
}
