package outboundq

import (
	"context"
	"time"
)

// SendMsg is the external collaborator: one blocking conversation with one
// peer. It returns the peer's application-level acknowledgement value, or
// the error the conversation failed with. The core treats it as opaque and
// applies no timeout of its own.
type SendMsg func(ctx context.Context, payload interface{}, dest NodeID) (interface{}, error)

// notBusy reports whether dispatching p would keep its destination within
// its dequeue policy's in-flight cap. It is built once per supervisor
// iteration from a consistent in-flight snapshot, per §5's "take locks,
// release before calling external code" policy.
func (q *OutboundQ) notBusy() func(*Packet) bool {
	return q.inFlight.snapshotNotBusy(func(nid NodeID) int {
		return q.deqPolicy.Rule(q.destTypeOf(nid)).MaxInFlight
	})
}

// intDequeue is one iteration of the supervisor loop: find the highest
// precedence admissible packet across the whole multi-queue, or else wait
// for a poke or a control message. It never blocks on the network.
func (q *OutboundQ) intDequeue() (*Packet, CtrlMsg, bool) {
	act := func() (*Packet, bool) {
		notBusy := q.notBusy()
		for _, prec := range precedencesHighToLow {
			if p := q.mq.dequeue(ByPrec(prec), notBusy); p != nil {
				q.metrics.QueueSize.Set(float64(q.mq.totalSize()))
				return p, true
			}
		}
		return nil, false
	}
	allowCtrl := func() bool { return q.mq.totalSize() == 0 }
	return q.sig.retryIfNothing(act, allowCtrl)
}

// destTypeOf looks up the NodeType a peer was tagged with when it entered
// a bucket. Peers absent from every bucket (already cleaned up) report the
// zero NodeType, NodeTypeCore, and so are judged by the core rule — moot,
// since their packets were already removed by update_peers_bucket.
func (q *OutboundQ) destTypeOf(nid NodeID) NodeType {
	q.destTypesMu.RLock()
	defer q.destTypesMu.RUnlock()
	return q.destTypes[nid]
}

// runDequeueLoop runs the supervisor. It must be invoked exactly once, and
// it returns only after a Shutdown control message has been processed and
// every worker has returned. If the loop itself panics, every worker
// spawned so far is cancelled before the panic propagates, per §5's
// "abnormal termination of the supervisor cancels all workers".
func (q *OutboundQ) runDequeueLoop(ctx context.Context, send SendMsg) {
	defer func() {
		if r := recover(); r != nil {
			q.threads.killAll()
			q.setState(Stopped)
			panic(r)
		}
	}()
	for {
		p, ctrl, isCtrl := q.intDequeue()
		if isCtrl {
			q.threads.waitAll()
			if ctrl.IsShutdown() {
				q.setState(Stopped)
				ctrl.Ack()
				return
			}
			q.setState(Running)
			ctrl.Ack()
			continue
		}
		q.sendPacket(ctx, p, send)
	}
}

// sendPacket implements §4.F step 3: bump in-flight, spawn a worker that
// calls send, resolves the result cell exactly once, rate-limits, records
// a failure on error, decrements in-flight, and pokes the signal.
func (q *OutboundQ) sendPacket(ctx context.Context, p *Packet, send SendMsg) {
	q.inFlight.increment(p.Dest, p.Prec)
	q.metrics.InFlight.Set(float64(q.inFlight.grandTotal()))

	q.threads.fork(ctx, func(wctx context.Context) {
		destType := p.DestType
		var wirePayload interface{}
		wireBytes, encErr := wireEncode(p.Payload)
		if encErr != nil {
			q.logger.Debug("payload not protobuf-encodable, sending as-is", "dest", p.Dest.String(), "err", encErr.Error())
			wirePayload = p.Payload
		} else {
			wirePayload = wireBytes
		}
		t0 := time.Now()
		value, err := send(wctx, wirePayload, p.Dest)
		elapsed := time.Since(t0)

		if err != nil {
			p.Slot.Resolve(Result{Err: newSendFailure(p.Dest, err)})
		} else {
			p.Slot.Resolve(Result{Value: value})
		}

		q.metrics.SendDuration.With("dest_type", destType.String()).Observe(elapsed.Seconds())
		if err != nil {
			q.metrics.SendsTotal.With("dest_type", destType.String(), "result", "error").Add(1)
		} else {
			q.metrics.SendsTotal.With("dest_type", destType.String(), "result", "ok").Add(1)
		}

		if rate := q.deqPolicy.Rule(destType).Rate; rate.Enabled() {
			target := time.Second / time.Duration(rate.PerSec)
			if sleep := target - elapsed; sleep > 0 {
				time.Sleep(sleep)
			}
		}

		if err != nil {
			reconsiderAfter := q.failPolicy.ReconsiderAfter(destType, p.MsgType, err)
			q.failures.record(p.Dest, t0, reconsiderAfter)
			q.metrics.FailedPeers.Set(float64(q.failures.size()))
			q.logger.Error("send failed", "dest", p.Dest.String(), "msg_type", p.MsgType.String(), "err", err.Error())
		}

		q.inFlight.decrement(p.Dest, p.Prec)
		q.metrics.InFlight.Set(float64(q.inFlight.grandTotal()))
		q.sig.poke()
	})
}
