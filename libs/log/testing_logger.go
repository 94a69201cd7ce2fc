package log

import (
	"os"
)

// NewTestingLogger returns a logger that writes to stderr at debug level.
// It exists so test files in this module don't each have to assemble a
// NewFilter(NewTMJSONLoggerNoTS(...), AllowAll()) chain by hand.
func NewTestingLogger() Logger {
	return NewFilter(NewTMJSONLoggerNoTS(os.Stderr), AllowAll())
}
