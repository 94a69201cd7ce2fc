package log

import (
	"fmt"
	"os"
)

// NewDefaultLogger returns a logger writing JSON lines to stderr at the
// given level. format is currently only "json"; it is accepted as a
// parameter (rather than hardcoded) because the caller-facing configuration
// surface names a format the same way the teacher's node configuration
// does, even though this module itself carries no config-file parser.
func NewDefaultLogger(format, lvl string) (Logger, error) {
	if format != LogFormatJSON {
		return nil, fmt.Errorf("unsupported log format %q", format)
	}

	var opt Option
	switch lvl {
	case LogLevelDebug:
		opt = AllowDebug()
	case LogLevelInfo:
		opt = AllowInfo()
	case LogLevelError:
		opt = AllowError()
	case LogLevelNone:
		opt = AllowNone()
	default:
		return nil, fmt.Errorf("unsupported log level %q", lvl)
	}

	return NewFilter(NewTMJSONLoggerNoTS(os.Stderr), opt), nil
}
