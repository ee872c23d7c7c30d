package tokenflow

import (
	"context"

	"github.com/tendermint/tendermint/libs/log"
)

type contextKey int // local to the tokenflow module

const (
	contextKeyLogger contextKey = iota
	contextKeyFlow
)

var (
	// DefaultLogger is used for all context that have not
	// set anything themselves
	DefaultLogger = log.NewNopLogger()
)

// WithLogger sets the logger for this context.
// Every flow stage reads it with GetLogger.
func WithLogger(ctx context.Context, logger log.Logger) context.Context {
	return context.WithValue(ctx, contextKeyLogger, logger)
}

// WithLogInfo accepts keyvalue pairs, and returns another
// context like this, after passing all the keyvals to the
// Logger
func WithLogInfo(ctx context.Context, keyvals ...interface{}) context.Context {
	logger := GetLogger(ctx).With(keyvals...)
	return WithLogger(ctx, logger)
}

// GetLogger returns the currently set logger, or
// DefaultLogger if none was set
func GetLogger(ctx context.Context) log.Logger {
	if val, ok := ctx.Value(contextKeyLogger).(log.Logger); ok {
		return val
	}
	return DefaultLogger
}

// WithFlow names the flow that is being executed, for example "issue"
// or "swap". It is used as the session routing key between parties.
func WithFlow(ctx context.Context, flow string) context.Context {
	return context.WithValue(ctx, contextKeyFlow, flow)
}

// GetFlow returns the flow name set on the context, if any.
func GetFlow(ctx context.Context) (string, bool) {
	val, ok := ctx.Value(contextKeyFlow).(string)
	return val, ok
}
