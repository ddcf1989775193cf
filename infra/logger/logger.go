package logger

import corelogger "github.com/kilianp07/tolltag/core/logger"

// Logger mirrors the core logger interface.
type Logger = corelogger.Logger

// NopLogger implements Logger with no-op methods.
type NopLogger = corelogger.NopLogger

// New returns a Logger for the given component. The output format is chosen
// from APP_ENV and the level from the last SetLevel call.
func New(component string) Logger {
	return NewZerologLogger(component)
}
