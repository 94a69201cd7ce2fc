package log

import (
	"github.com/rs/zerolog"
)

// nopLogger discards everything. Used by tests and by callers that have
// not wired up a real logger yet.
type nopLogger struct {
	zerolog.Logger
}

func NewNopLogger() Logger {
	return &nopLogger{Logger: zerolog.Nop()}
}

func (l *nopLogger) Debug(string, ...interface{}) {}
func (l *nopLogger) Info(string, ...interface{})  {}
func (l *nopLogger) Error(string, ...interface{}) {}
func (l *nopLogger) With(...interface{}) Logger    { return l }
