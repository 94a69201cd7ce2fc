package outboundq

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestQueue() *OutboundQ {
	return New("self", DefaultEnqueuePolicy(ProfileCore), DefaultDequeuePolicy(ProfileCore), DefaultFailurePolicy(ProfileCore))
}

func TestPickAlt_PrefersLeastAhead(t *testing.T) {
	q := newTestQueue()
	// c1 has two packets already scheduled at High; c2 has none.
	q.mq.enqueue(packetTo("c1", High))
	q.mq.enqueue(packetTo("c1", High))

	alt, ok := q.pickAlt(10, High, ForwardingSet{"c1", "c2"}, nil)
	require.True(t, ok)
	require.Equal(t, NodeID("c2"), alt)
}

func TestPickAlt_ExcludesRecentFailure(t *testing.T) {
	q := newTestQueue()
	q.failures.record("c1", time.Now(), time.Second)

	alt, ok := q.pickAlt(10, High, ForwardingSet{"c1"}, nil)
	require.False(t, ok)
	require.Empty(t, alt)
}

func TestPickAlt_RejectsOverMaxAhead(t *testing.T) {
	q := newTestQueue()
	q.mq.enqueue(packetTo("c1", High))
	q.mq.enqueue(packetTo("c1", High))

	_, ok := q.pickAlt(1, High, ForwardingSet{"c1"}, nil)
	require.False(t, ok)
}

func TestPickAlt_ExcludesAlreadyPicked(t *testing.T) {
	q := newTestQueue()
	exclude := map[NodeID]struct{}{"c1": {}}

	alt, ok := q.pickAlt(10, High, ForwardingSet{"c1", "c2"}, exclude)
	require.True(t, ok)
	require.Equal(t, NodeID("c2"), alt)
}

func TestEnqueue_OriginSuppression(t *testing.T) {
	q := newTestQueue()
	q.UpdatePeersBucket("b", func(Peers) Peers {
		return SimplePeers(NodeTypeCore, []NodeID{"c1", "c2", "c3"})
	})

	handles := q.Enqueue(Transaction, "tx", OriginForward("c1"))

	for _, h := range handles {
		require.NotEqual(t, NodeID("c1"), h.Dest)
	}
	require.Len(t, handles, 2)
}

func TestEnqueue_NotEnqueuedToAnyWhenNoPeersKnown(t *testing.T) {
	q := newTestQueue()
	handles := q.Enqueue(Transaction, "tx", OriginSender)
	require.Empty(t, handles)
}

func TestEnqueueTo_RestrictsDestinations(t *testing.T) {
	q := newTestQueue()
	q.UpdatePeersBucket("b", func(Peers) Peers {
		return SimplePeers(NodeTypeCore, []NodeID{"c1", "c2", "c3"})
	})

	handles := q.EnqueueTo(Transaction, "tx", OriginSender, NewRestriction("c2"))
	require.Len(t, handles, 1)
	require.Equal(t, NodeID("c2"), handles[0].Dest)
}

func TestEnqueueSync_ReturnsTrueOnceAnyDestinationSucceeds(t *testing.T) {
	q := newTestQueue()
	q.UpdatePeersBucket("b", func(Peers) Peers {
		return SimplePeers(NodeTypeCore, []NodeID{"c1"})
	})

	send := func(ctx context.Context, payload interface{}, dest NodeID) (interface{}, error) {
		return "ack", nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, q.DequeueThread(ctx, send))

	require.True(t, q.EnqueueSync(ctx, Transaction, "tx", OriginSender))
}

func TestEnqueueSync_ReturnsFalseWhenEveryDestinationFails(t *testing.T) {
	q := newTestQueue()
	q.UpdatePeersBucket("b", func(Peers) Peers {
		return SimplePeers(NodeTypeCore, []NodeID{"c1"})
	})

	send := func(ctx context.Context, payload interface{}, dest NodeID) (interface{}, error) {
		return nil, errAlwaysFails
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, q.DequeueThread(ctx, send))

	require.False(t, q.EnqueueSync(ctx, Transaction, "tx", OriginSender))
}

func TestEnqueueSyncTo_RestrictsDestinations(t *testing.T) {
	q := newTestQueue()
	q.UpdatePeersBucket("b", func(Peers) Peers {
		return SimplePeers(NodeTypeCore, []NodeID{"c1", "c2"})
	})

	var gotDest NodeID
	send := func(ctx context.Context, payload interface{}, dest NodeID) (interface{}, error) {
		gotDest = dest
		return "ack", nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, q.DequeueThread(ctx, send))

	require.True(t, q.EnqueueSyncTo(ctx, Transaction, "tx", OriginSender, NewRestriction("c2")))
	require.Equal(t, NodeID("c2"), gotDest)
}
