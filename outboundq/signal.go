package outboundq

import (
	outsync "github.com/tendermint/outboundq/libs/sync"
)

// CtrlMsg is a control message piggy-backed on the signal: either flush
// or shutdown, each carrying the ack cell its submitter blocks on.
type CtrlMsg struct {
	shutdown bool
	ack      *outsync.Closer
}

// FlushCtrl builds a Flush control message.
func FlushCtrl() CtrlMsg { return CtrlMsg{ack: outsync.NewCloser()} }

// ShutdownCtrl builds a Shutdown control message.
func ShutdownCtrl() CtrlMsg { return CtrlMsg{shutdown: true, ack: outsync.NewCloser()} }

// IsShutdown reports whether this is a shutdown rather than a flush.
func (c CtrlMsg) IsShutdown() bool { return c.shutdown }

// Ack resolves the submitter's wait.
func (c CtrlMsg) Ack() { c.ack.Close() }

// Wait blocks until Ack has been called.
func (c CtrlMsg) Wait() { <-c.ack.Done() }

// signal is the single-consumer wakeup primitive the dequeue scheduler
// blocks on: a Waker for "something changed, retry", plus a one-slot
// mailbox for control messages that is only consulted once the scheduled
// queue has gone empty, so in-flight traffic always has priority over
// flush/shutdown.
type signal struct {
	waker *outsync.Waker
	ctrl  chan CtrlMsg
}

func newSignal() *signal {
	return &signal{
		waker: outsync.NewWaker(),
		ctrl:  make(chan CtrlMsg, 1),
	}
}

// poke schedules a wakeup. Any number of producers may call it; redundant
// pokes collapse into one, per the Waker's contract.
func (s *signal) poke() { s.waker.Wake() }

// submit hands a control message to the single consumer and blocks until
// it has been acted on and acked.
func (s *signal) submit(msg CtrlMsg) {
	s.ctrl <- msg
	s.poke()
	msg.Wait()
}

// ctrlCheck is signal_ctrl_check: a non-blocking peek at the control
// mailbox. The caller (the dequeue scheduler) only invokes this when the
// multi-queue is empty, per the Signal's contract in the scheduler design.
func (s *signal) ctrlCheck() (CtrlMsg, bool) {
	select {
	case msg := <-s.ctrl:
		return msg, true
	default:
		return CtrlMsg{}, false
	}
}

// retryIfNothing implements the Signal's core contract: run act; if it
// produces a value, return it. Otherwise check for a pending control
// message (only called by the scheduler when it's safe to prefer it, i.e.
// the scheduled queue is empty) and return it if present. Otherwise block
// until poked and retry from the top.
//
// act returning (nil, false) means "nothing admissible right now", not an
// error; it is what causes this function to consider ctrl and then sleep.
func (s *signal) retryIfNothing(act func() (*Packet, bool), allowCtrl func() bool) (*Packet, CtrlMsg, bool) {
	for {
		if p, ok := act(); ok {
			return p, CtrlMsg{}, false
		}
		if allowCtrl() {
			if msg, ok := s.ctrlCheck(); ok {
				return nil, msg, true
			}
		}
		<-s.waker.Sleep()
	}
}
