package outboundq

import (
	"fmt"

	"github.com/pkg/errors"
)

// SendFailureError wraps whatever error the SendMsg collaborator returned.
// It is recorded against the destination in the failure tracker and
// surfaced to the awaiting caller through the packet's result cell; it is
// never returned from an enqueue call directly.
type SendFailureError struct {
	Dest NodeID
	Err  error
}

func (e *SendFailureError) Error() string {
	return fmt.Sprintf("send to %s failed: %v", e.Dest, e.Err)
}

func (e *SendFailureError) Unwrap() error { return e.Err }

// newSendFailure stamps a stack trace onto the collaborator's error with
// errors.WithStack so that a logger configured with NewTracingLogger can
// print where the failure was first observed, not just where it was last
// logged.
func newSendFailure(dest NodeID, err error) *SendFailureError {
	return &SendFailureError{Dest: dest, Err: errors.WithStack(err)}
}

// NoPeerError reports that an enqueue instruction had no surviving
// alternative to send to: either the relevant peers list was empty to
// begin with, or every alternative was removed by origin suppression or
// excluded by pick_alt (recent failure, over max_ahead).
type NoPeerError struct {
	MsgType    MsgType
	WasEmpty   bool
	bucketless bool
}

func (e *NoPeerError) Error() string {
	if e.WasEmpty {
		return fmt.Sprintf("not enqueued to any peer for %s: no peers known", e.MsgType)
	}
	return fmt.Sprintf("enqueue failed for %s: no surviving alternative", e.MsgType)
}

// CherishExhaustedError describes an enqueue_cherished call in which no
// destination succeeded within the retry budget. The enqueue_cherished
// entry points return false in that case and log this error's message;
// they do not return the error itself.
type CherishExhaustedError struct {
	MsgType  MsgType
	Attempts int
}

func (e *CherishExhaustedError) Error() string {
	return fmt.Sprintf("policy failure: enqueue_cherished exhausted %d attempts for %s", e.Attempts, e.MsgType)
}

// ErrCancelled is the value a packet's result cell resolves to if it is
// dropped without ever being written — e.g. the packet was removed from
// the multi-queue by update_peers_bucket before a worker could dequeue it.
var ErrCancelled = errors.New("outboundq: result cell dropped without a value")
