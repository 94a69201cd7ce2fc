package outboundq

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// TestMultiQueue_NoDuplicateDispatch is a property test of spec §4.A/§4.F's
// no-duplicate-dispatch invariant: however a sequence of packets is
// enqueued under a mix of destinations and precedences, draining the
// multi-queue by precedence (as the dequeue scheduler does) yields every
// enqueued packet exactly once, never fewer, never twice.
func TestMultiQueue_NoDuplicateDispatch(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		mq := newMultiQueue()
		destGen := rapid.SampledFrom([]NodeID{"c1", "c2", "c3"})
		precGen := rapid.SampledFrom([]Precedence{Lowest, Low, Medium, High, Highest})

		n := rapid.IntRange(0, 40).Draw(t, "n").(int)
		enqueued := make([]*Packet, 0, n)
		for i := 0; i < n; i++ {
			dest := destGen.Draw(t, "dest").(NodeID)
			prec := precGen.Draw(t, "prec").(Precedence)
			p := packetTo(dest, prec)
			mq.enqueue(p)
			enqueued = append(enqueued, p)
		}

		always := func(*Packet) bool { return true }
		seen := make(map[*Packet]bool, n)
		var drained []*Packet
		for {
			var got *Packet
			for _, prec := range precedencesHighToLow {
				if got = mq.dequeue(ByPrec(prec), always); got != nil {
					break
				}
			}
			if got == nil {
				break
			}
			require.False(t, seen[got], "packet dispatched twice")
			seen[got] = true
			drained = append(drained, got)
		}

		require.Len(t, drained, len(enqueued))
		require.Equal(t, 0, mq.totalSize())
	})
}

// TestEnqueueCherished_RetryBound is a property test of spec §4.E's
// enqueue_cherished retry budget: whatever CherishAttempts is configured
// to, a destination that always fails causes exactly that many EnqueueSync
// attempts, never more.
func TestEnqueueCherished_RetryBound(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		attempts := rapid.IntRange(1, 6).Draw(t, "attempts").(int)

		q := New("self", DefaultEnqueuePolicy(ProfileCore), DefaultDequeuePolicy(ProfileCore), DefaultFailurePolicy(ProfileCore),
			WithOptions(QueueOptions{CherishAttempts: attempts}))
		q.UpdatePeersBucket("b", func(Peers) Peers {
			return SimplePeers(NodeTypeCore, []NodeID{"c1"})
		})

		sendCalls := 0
		send := func(ctx context.Context, payload interface{}, dest NodeID) (interface{}, error) {
			sendCalls++
			return nil, errAlwaysFails
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		require.NoError(t, q.DequeueThread(ctx, send))

		ok := q.EnqueueCherished(ctx, Transaction, "tx", OriginSender)
		require.False(t, ok)
		require.Equal(t, attempts, sendCalls)

		q.WaitShutdown()
	})
}

var errAlwaysFails = errors.New("send always fails")
