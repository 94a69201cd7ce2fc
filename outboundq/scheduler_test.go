package outboundq

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestDequeueLoop_PrecedenceOrdering verifies §4.F step 2: the supervisor
// always dispatches the highest-precedence admissible packet first, even
// when lower-precedence packets for the same destination were enqueued
// earlier.
func TestDequeueLoop_PrecedenceOrdering(t *testing.T) {
	q := newTestQueue()
	q.UpdatePeersBucket("b", func(Peers) Peers {
		return SimplePeers(NodeTypeCore, []NodeID{"c1"})
	})

	// Enqueue directly onto the multi-queue, lowest precedence first, to
	// rule out enqueue-side ordering from masking scheduler-side ordering.
	q.mq.enqueue(packetTo("c1", Low))
	q.mq.enqueue(packetTo("c1", Highest))
	q.mq.enqueue(packetTo("c1", Medium))
	q.mq.enqueue(packetTo("c1", High))

	// Drive the same scan intDequeue's act closure performs, without going
	// through the blocking signal, to observe dispatch order directly.
	var order []Precedence
	for {
		notBusy := q.notBusy()
		var got *Packet
		for _, prec := range precedencesHighToLow {
			if got = q.mq.dequeue(ByPrec(prec), notBusy); got != nil {
				break
			}
		}
		if got == nil {
			break
		}
		order = append(order, got.Prec)
	}

	require.Equal(t, []Precedence{Highest, High, Medium, Low}, order)
}

// TestDequeueLoop_RateLimitSerializesDispatchToCappedDest verifies §4.F
// step 3's rate limit: with MaxInFlight capped at 1 for a destination type
// carrying a PerSec rate limit, a second packet to the same destination is
// not dispatched until the limiter's interval has elapsed since the first
// dispatch began.
func TestDequeueLoop_RateLimitSerializesDispatchToCappedDest(t *testing.T) {
	deqPolicy := NewDequeuePolicy(map[NodeType]DequeueRule{
		NodeTypeCore: {MaxInFlight: 1, Rate: PerSecLimit(20)}, // 50ms interval
	})
	q := New("self", DefaultEnqueuePolicy(ProfileCore), deqPolicy, DefaultFailurePolicy(ProfileCore))
	q.UpdatePeersBucket("b", func(Peers) Peers {
		return SimplePeers(NodeTypeCore, []NodeID{"c1"})
	})

	var dispatchTimes []time.Time
	send := func(ctx context.Context, payload interface{}, dest NodeID) (interface{}, error) {
		dispatchTimes = append(dispatchTimes, time.Now())
		return "ack", nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, q.DequeueThread(ctx, send))

	h1 := q.Enqueue(Transaction, "tx1", OriginSender)
	require.Len(t, h1, 1)
	r1, err := h1[0].Slot.Wait(ctx)
	require.NoError(t, err)
	require.Equal(t, "ack", r1.Value)

	h2 := q.Enqueue(Transaction, "tx2", OriginSender)
	require.Len(t, h2, 1)
	r2, err := h2[0].Slot.Wait(ctx)
	require.NoError(t, err)
	require.Equal(t, "ack", r2.Value)

	require.Len(t, dispatchTimes, 2)
	// The first packet's rate-limit sleep must complete (releasing its
	// in-flight slot) before the second can be dispatched, so their send
	// invocations land at least one interval apart.
	require.GreaterOrEqual(t, dispatchTimes[1].Sub(dispatchTimes[0]), 40*time.Millisecond)
}
