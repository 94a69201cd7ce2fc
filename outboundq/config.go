package outboundq

import (
	"errors"
	"fmt"
)

// QueueOptions configures an OutboundQ at construction time, alongside the
// three policies. It follows the same validate-then-fill-defaults shape as
// the teacher's PeerManagerOptions: WithOptions calls Validate, which
// rejects genuinely inconsistent combinations and then fills in
// zero-valued fields with sane defaults.
type QueueOptions struct {
	// CherishAttempts overrides the retry budget enqueue_cherished uses.
	// 0 means the stock value. The source hardcodes this at 4; §9's Open
	// Questions leaves configurability unresolved, so this module offers
	// it without changing the default.
	CherishAttempts int

	// MaxQueueSize caps the multi-queue's total resident packet count. 0
	// means unbounded, which is what the source does — §9's Open
	// Questions flags the resulting unbounded-memory risk and preserves
	// it rather than silently fixing it. A positive value makes enqueue
	// drop the packet instead of admitting it once the cap is reached,
	// logging at debug rather than failing the call.
	MaxQueueSize int
}

// Validate rejects inconsistent option values and fills in defaults.
func (o *QueueOptions) Validate() error {
	if o.CherishAttempts < 0 {
		return errors.New("outboundq: CherishAttempts must be >= 0")
	}
	if o.MaxQueueSize < 0 {
		return fmt.Errorf("outboundq: MaxQueueSize must be >= 0, got %d", o.MaxQueueSize)
	}
	if o.CherishAttempts == 0 {
		o.CherishAttempts = defaultCherishAttempts
	}
	return nil
}
