package log

import (
	"fmt"
	"io"

	kitlog "github.com/go-kit/kit/log"
)

// Logger is what every component of the outbound queue takes. It is
// intentionally small: three levels plus With(), so that call sites never
// have to reach for anything fancier than a handful of key/value pairs.
type Logger interface {
	Debug(msg string, keyvals ...interface{})
	Info(msg string, keyvals ...interface{})
	Error(msg string, keyvals ...interface{})

	With(keyvals ...interface{}) Logger
}

// Hexadecimal renders a byte slice as uppercase hex, for use in log values
// (worker IDs, packet payload digests, and the like) without allocating a
// string up front.
type Hexadecimal struct {
	b []byte
}

func NewHexadecimal(b []byte) Hexadecimal { return Hexadecimal{b: b} }

func (h Hexadecimal) String() string {
	return fmt.Sprintf("%X", h.b)
}

// NewSyncWriter returns a writer safe for concurrent use by multiple
// goroutines (workers each logging the outcome of their own SendMsg call).
// If another write is in progress the calling goroutine blocks.
func NewSyncWriter(w io.Writer) io.Writer {
	return kitlog.NewSyncWriter(w)
}
