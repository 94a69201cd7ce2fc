package outboundq

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestUpdatePeersBucket_CleansUpVanishedPeer(t *testing.T) {
	q := newTestQueue()
	q.UpdatePeersBucket("b", func(Peers) Peers {
		return SimplePeers(NodeTypeCore, []NodeID{"c1", "c2"})
	})

	handles := q.Enqueue(Transaction, "tx", OriginSender)
	require.Len(t, handles, 2)

	q.inFlight.increment("c1", Low)

	q.UpdatePeersBucket("b", func(Peers) Peers {
		return SimplePeers(NodeTypeCore, []NodeID{"c2"})
	})

	require.Equal(t, 0, q.mq.sizeBy(ByDest("c1")))
	require.False(t, q.failures.hasRecentFailure("c1"))
	require.Equal(t, 0, q.failures.size())
	require.True(t, q.inFlight.absent("c1"))

	for _, h := range handles {
		if h.Dest == "c1" {
			r, err := h.Slot.Wait(context.Background())
			require.NoError(t, err)
			require.ErrorIs(t, r.Err, ErrCancelled)
		}
	}
}

func TestUpdatePeersBucket_OwnBucketOnly(t *testing.T) {
	q := newTestQueue()
	q.UpdatePeersBucket("writerT", func(Peers) Peers {
		return SimplePeers(NodeTypeCore, []NodeID{"n1"})
	})
	q.UpdatePeersBucket("writerU", func(Peers) Peers {
		return SimplePeers(NodeTypeCore, []NodeID{"n2"})
	})

	// writerU modifying its own bucket must not evict n1, which only ever
	// lived in writerT's bucket.
	q.UpdatePeersBucket("writerU", func(Peers) Peers {
		return Peers{}
	})

	handles := q.Enqueue(Transaction, "tx", OriginSender)
	require.Len(t, handles, 1)
	require.Equal(t, NodeID("n1"), handles[0].Dest)
}

// fakeSend lets a test script exactly when each call to SendMsg returns.
type fakeSend struct {
	release chan struct{}
}

func newFakeSend() *fakeSend { return &fakeSend{release: make(chan struct{})} }

func (f *fakeSend) fn(ctx context.Context, payload interface{}, dest NodeID) (interface{}, error) {
	select {
	case <-f.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return "ack", nil
}

func TestFlush_WaitsForPacketsEnqueuedBeforeIt(t *testing.T) {
	q := newTestQueue()
	q.UpdatePeersBucket("b", func(Peers) Peers {
		return SimplePeers(NodeTypeCore, []NodeID{"c1"})
	})

	send := newFakeSend()
	close(send.release) // complete sends immediately

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, q.DequeueThread(ctx, send.fn))

	handles := q.Enqueue(Transaction, "tx", OriginSender)
	require.Len(t, handles, 1)

	q.Flush()

	for _, h := range handles {
		select {
		case <-h.Slot.Done():
		default:
			t.Fatalf("packet enqueued before flush was not resolved by the time flush returned")
		}
	}
}

func TestWaitShutdown_DrainsWorkersAndStops(t *testing.T) {
	q := newTestQueue()
	q.UpdatePeersBucket("b", func(Peers) Peers {
		return SimplePeers(NodeTypeCore, []NodeID{"c1"})
	})

	send := newFakeSend()
	close(send.release)

	ctx := context.Background()
	require.NoError(t, q.DequeueThread(ctx, send.fn))

	q.Enqueue(Transaction, "tx", OriginSender)

	done := make(chan struct{})
	go func() {
		q.WaitShutdown()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("WaitShutdown did not return")
	}

	require.Equal(t, Stopped, q.State())
	require.False(t, q.IsRunning())
}

func TestInFlightBound(t *testing.T) {
	q := newTestQueue() // Core profile: MaxInFlight(core)=16
	q.UpdatePeersBucket("b", func(Peers) Peers {
		return SimplePeers(NodeTypeCore, []NodeID{"c1"})
	})

	q.destTypesMu.RLock()
	maxInFlight := q.deqPolicy.Rule(q.destTypes["c1"]).MaxInFlight
	q.destTypesMu.RUnlock()

	for i := 0; i < maxInFlight; i++ {
		q.inFlight.increment("c1", Low)
	}
	require.Equal(t, maxInFlight, q.inFlight.total("c1"))

	notBusy := q.notBusy()
	require.False(t, notBusy(packetTo("c1", Low)))
}
