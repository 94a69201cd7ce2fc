package log

import (
	"encoding/json"
	"fmt"
	"io"
)

const (
	LogFormatJSON = "json"
	LogFormatText = "text"

	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelError = "error"
	LogLevelNone  = "none"
)

// tmJSONLogger writes one JSON object per line: {"_msg": ..., "level": ...,
// <context keys>, <call keys>}. Map keys come out alphabetically sorted
// because encoding/json sorts map[string]interface{} keys, which is what
// gives the package's tests their stable expected output.
type tmJSONLogger struct {
	w       io.Writer
	context []interface{}
}

// NewTMJSONLoggerNoTS returns a Logger that writes newline-delimited JSON to
// w, without a timestamp field (callers that want one should add it via
// With("ts", ...) at the call site or wrap the writer).
func NewTMJSONLoggerNoTS(w io.Writer) Logger {
	return &tmJSONLogger{w: NewSyncWriter(w).(io.Writer)}
}

func (l *tmJSONLogger) log(level, msg string, keyvals ...interface{}) {
	fields := make(map[string]interface{}, len(l.context)/2+len(keyvals)/2+2)
	fields["_msg"] = msg
	fields["level"] = level

	merge := func(kv []interface{}) {
		for i := 0; i+1 < len(kv); i += 2 {
			key := fmt.Sprint(kv[i])
			fields[key] = kv[i+1]
		}
	}
	merge(l.context)
	merge(keyvals)

	bz, err := json.Marshal(fields)
	if err != nil {
		// A logger must never panic the caller; fall back to a plain line.
		fmt.Fprintf(l.w, "{\"_msg\":%q,\"level\":\"error\",\"log_marshal_error\":%q}\n", msg, err.Error())
		return
	}
	l.w.Write(append(bz, '\n')) // nolint:errcheck
}

func (l *tmJSONLogger) Debug(msg string, keyvals ...interface{}) { l.log(LogLevelDebug, msg, keyvals...) }
func (l *tmJSONLogger) Info(msg string, keyvals ...interface{})  { l.log(LogLevelInfo, msg, keyvals...) }
func (l *tmJSONLogger) Error(msg string, keyvals ...interface{}) { l.log(LogLevelError, msg, keyvals...) }

func (l *tmJSONLogger) With(keyvals ...interface{}) Logger {
	ctx := make([]interface{}, 0, len(l.context)+len(keyvals))
	ctx = append(ctx, l.context...)
	ctx = append(ctx, keyvals...)
	return &tmJSONLogger{w: l.w, context: ctx}
}
