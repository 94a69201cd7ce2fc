package outboundq

import (
	"context"
	"fmt"
	"sort"

	"github.com/mroth/weightedrand"
	"golang.org/x/sync/errgroup"
)

// Handle is what a caller gets back per destination an enqueue call
// scheduled a packet to.
type Handle struct {
	Dest NodeID
	Slot *ResultCell
}

// nodeStats is the per-candidate scoring record pick_alt builds before
// sorting.
type nodeStats struct {
	alt           NodeID
	recentFailure bool
	ahead         int
}

// pickAlt implements §4.E pick_alt: score every alternative in fwdSet by
// how much work is already ahead of it at precedence >= prec, drop the
// ones in cooldown or over maxAhead, and return the least-loaded survivor.
// Ties among survivors with the same lowest ahead count are broken with a
// weighted-random draw (earlier forwarding-set positions weigh more) rather
// than always picking the first candidate in forwarding-set order,
// so that repeated enqueue_all calls under a tied load don't pin all
// traffic onto one alternative.
func (q *OutboundQ) pickAlt(maxAhead int, prec Precedence, fwdSet ForwardingSet, exclude map[NodeID]struct{}) (NodeID, bool) {
	precs := precedencesAtLeast(prec)

	var candidates []nodeStats
	for _, alt := range fwdSet {
		if _, skip := exclude[alt]; skip {
			continue
		}
		ahead := q.inFlight.totalAtLeast(alt, precs)
		for _, p := range precs {
			ahead += q.mq.sizeBy(ByDestPrec(alt, p))
		}
		candidates = append(candidates, nodeStats{
			alt:           alt,
			recentFailure: q.failures.hasRecentFailure(alt),
			ahead:         ahead,
		})
	}
	if len(candidates) == 0 {
		return "", false
	}

	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].ahead < candidates[j].ahead })

	var survivors []nodeStats
	firstAhead := -1
	for _, c := range candidates {
		if c.recentFailure || c.ahead > maxAhead {
			continue
		}
		if firstAhead >= 0 && c.ahead > firstAhead {
			break // candidates beyond the first accepted tied group never win the draw
		}
		survivors = append(survivors, c)
		firstAhead = c.ahead
	}
	if len(survivors) == 0 {
		return "", false
	}
	if len(survivors) == 1 {
		return survivors[0].alt, true
	}

	choices := make([]weightedrand.Choice, len(survivors))
	for i, s := range survivors {
		choices[i] = weightedrand.NewChoice(s.alt, uint(len(survivors)-i))
	}
	chooser, err := weightedrand.NewChooser(choices...)
	if err != nil {
		return survivors[0].alt, true
	}
	return chooser.Pick().(NodeID), true
}

func (q *OutboundQ) enqueueWith(mt MsgType, msg interface{}, origin Origin, restriction Restriction) []Handle {
	q.bucketsMu.RLock()
	snapshot := MergeAll(q.bucketValues()...)
	q.bucketsMu.RUnlock()

	instrs := q.enqPolicy.Instructions(mt, origin)
	if len(instrs) == 0 {
		return nil
	}

	var handles []Handle
	for _, instr := range instrs {
		hs := q.runInstruction(instr, mt, msg, origin, snapshot, restriction)
		handles = append(handles, hs...)
	}
	q.reportEnqueueOutcome(mt, snapshot, restriction, handles)
	return handles
}

// runInstruction executes one enqueue instruction against a peer snapshot,
// building and scheduling a packet for each pick, and returns the handles
// it scheduled. This is step 3/4 of §4.E: EnqueueAll iterates every
// forwarding set of the instruction's destination type; EnqueueOne stops
// at the first destination type that yields a pick.
func (q *OutboundQ) runInstruction(instr Instruction, mt MsgType, msg interface{}, origin Origin, snapshot Peers, restriction Restriction) []Handle {
	var handles []Handle

	emit := func(destType NodeType, dest NodeID, prec Precedence) (Handle, bool) {
		if q.opts.MaxQueueSize > 0 && q.mq.totalSize() >= q.opts.MaxQueueSize {
			q.logger.Debug("queue full, dropping packet", "dest", dest.String(), "msg_type", mt.String())
			q.metrics.DroppedTotal.Add(1)
			return Handle{}, false
		}
		p := newPacket(msg, mt, destType, dest, prec)
		q.mq.enqueue(p)
		q.metrics.QueueSize.Set(float64(q.mq.totalSize()))
		q.sig.poke()
		return Handle{Dest: dest, Slot: p.Slot}, true
	}

	switch instr.Kind {
	case InstrAll:
		destType := instr.DestTypes[0]
		sets := RestrictPeers(restriction, RemoveOrigin(origin, snapshot.PeersOfType(destType)))
		picked := make(map[NodeID]struct{})
		for _, fs := range sets {
			alt, ok := q.pickAlt(instr.MaxAhead, instr.Prec, fs, picked)
			if !ok {
				continue
			}
			picked[alt] = struct{}{}
			if h, ok := emit(destType, alt, instr.Prec); ok {
				handles = append(handles, h)
			}
		}

	case InstrOne:
		for _, destType := range instr.DestTypes {
			sets := RestrictPeers(restriction, RemoveOrigin(origin, snapshot.PeersOfType(destType)))
			found := false
			for _, fs := range sets {
				alt, ok := q.pickAlt(instr.MaxAhead, instr.Prec, fs, nil)
				if !ok {
					continue
				}
				if h, ok := emit(destType, alt, instr.Prec); ok {
					handles = append(handles, h)
				}
				found = true
				break
			}
			if found {
				break
			}
		}
	}
	return handles
}

// reportEnqueueOutcome implements §4.E's failure-reporting rules: debug
// "not enqueued to any" if the relevant peers were entirely empty, error
// "enqueue failed" if they were non-empty but nothing got scheduled,
// otherwise debug with the destination list.
func (q *OutboundQ) reportEnqueueOutcome(mt MsgType, snapshot Peers, restriction Restriction, handles []Handle) {
	anyPeersKnown := false
	for _, t := range NodeTypes {
		if len(RestrictPeers(restriction, snapshot.PeersOfType(t))) > 0 {
			anyPeersKnown = true
			break
		}
	}

	if len(handles) > 0 {
		dests := make([]string, len(handles))
		for i, h := range handles {
			dests[i] = h.Dest.String()
		}
		q.logger.Debug("enqueued", "msg_type", mt.String(), "dests", fmt.Sprint(dests))
		return
	}
	if !anyPeersKnown {
		q.logger.Debug("not enqueued to any", "msg_type", mt.String())
		return
	}
	q.logger.Error("enqueue failed", "msg_type", mt.String())
}

// Enqueue is fire-and-forget: result handles may be dropped by the caller.
func (q *OutboundQ) Enqueue(mt MsgType, msg interface{}, origin Origin) []Handle {
	return q.enqueueWith(mt, msg, origin, Restriction{})
}

// EnqueueTo restricts delivery to the given subset of currently-known
// peers.
func (q *OutboundQ) EnqueueTo(mt MsgType, msg interface{}, origin Origin, restriction Restriction) []Handle {
	return q.enqueueWith(mt, msg, origin, restriction)
}

// EnqueueSync awaits every scheduled handle's result and logs if none
// succeeded. It fans the waits out with errgroup, mirroring the teacher's
// use of golang.org/x/sync/errgroup for bounded concurrent fan-in/out.
func (q *OutboundQ) EnqueueSync(ctx context.Context, mt MsgType, msg interface{}, origin Origin) bool {
	return q.enqueueSyncWith(ctx, mt, msg, origin, Restriction{})
}

// EnqueueSyncTo is EnqueueSync restricted to a peer subset.
func (q *OutboundQ) EnqueueSyncTo(ctx context.Context, mt MsgType, msg interface{}, origin Origin, restriction Restriction) bool {
	return q.enqueueSyncWith(ctx, mt, msg, origin, restriction)
}

func (q *OutboundQ) enqueueSyncWith(ctx context.Context, mt MsgType, msg interface{}, origin Origin, restriction Restriction) bool {
	handles := q.enqueueWith(mt, msg, origin, restriction)
	if len(handles) == 0 {
		return false
	}

	results := make([]Result, len(handles))
	g, gctx := errgroup.WithContext(ctx)
	for i, h := range handles {
		i, h := i, h
		g.Go(func() error {
			r, err := h.Slot.Wait(gctx)
			if err != nil {
				r = Result{Err: err}
			}
			results[i] = r
			return err
		})
	}
	_ = g.Wait()

	anySuccess := false
	for _, r := range results {
		if r.Err == nil {
			anySuccess = true
			break
		}
	}
	if !anySuccess {
		q.logger.Error("enqueue_sync: no successes", "msg_type", mt.String())
	}
	return anySuccess
}

// EnqueueCherished retries up to QueueOptions.CherishAttempts iterations
// until at least one destination succeeds.
func (q *OutboundQ) EnqueueCherished(ctx context.Context, mt MsgType, msg interface{}, origin Origin) bool {
	return q.enqueueCherishedWith(ctx, mt, msg, origin, Restriction{})
}

// EnqueueCherishedTo is EnqueueCherished restricted to a peer subset.
func (q *OutboundQ) EnqueueCherishedTo(ctx context.Context, mt MsgType, msg interface{}, origin Origin, restriction Restriction) bool {
	return q.enqueueCherishedWith(ctx, mt, msg, origin, restriction)
}

func (q *OutboundQ) enqueueCherishedWith(ctx context.Context, mt MsgType, msg interface{}, origin Origin, restriction Restriction) bool {
	attempts := q.opts.CherishAttempts
	for i := 0; i < attempts; i++ {
		if q.enqueueSyncWith(ctx, mt, msg, origin, restriction) {
			return true
		}
		select {
		case <-ctx.Done():
			return false
		default:
		}
	}
	q.metrics.CherishExhausted.Add(1)
	q.logger.Error("policy failure", "err", (&CherishExhaustedError{MsgType: mt, Attempts: attempts}).Error())
	return false
}
