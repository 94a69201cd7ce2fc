package log

import "fmt"

// NewTracingLogger wraps next so that any `error` values passed as keyvals
// (either to With() or directly to Debug/Info/Error) are rendered with
// "%+v", which for github.com/pkg/errors-wrapped errors includes a stack
// trace. Plain stdlib errors just render their message, same as %v.
func NewTracingLogger(next Logger) Logger {
	return &tracingLogger{next: next}
}

type tracingLogger struct {
	next Logger
}

func traceify(keyvals []interface{}) []interface{} {
	out := make([]interface{}, len(keyvals))
	for i, kv := range keyvals {
		if err, ok := kv.(error); ok {
			out[i] = fmt.Sprintf("%+v", err)
			continue
		}
		out[i] = kv
	}
	return out
}

func (l *tracingLogger) Debug(msg string, keyvals ...interface{}) {
	l.next.Debug(msg, traceify(keyvals)...)
}

func (l *tracingLogger) Info(msg string, keyvals ...interface{}) {
	l.next.Info(msg, traceify(keyvals)...)
}

func (l *tracingLogger) Error(msg string, keyvals ...interface{}) {
	l.next.Error(msg, traceify(keyvals)...)
}

func (l *tracingLogger) With(keyvals ...interface{}) Logger {
	return &tracingLogger{next: l.next.With(traceify(keyvals)...)}
}
