package outboundq

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func packetTo(dest NodeID, prec Precedence) *Packet {
	return newPacket(nil, Transaction, NodeTypeCore, dest, prec)
}

func TestMultiQueue_CrossKeyConsistency(t *testing.T) {
	mq := newMultiQueue()
	p := packetTo("c1", High)
	mq.enqueue(p)

	require.Equal(t, 1, mq.sizeBy(ByPrec(High)))
	require.Equal(t, 1, mq.sizeBy(ByDest("c1")))
	require.Equal(t, 1, mq.sizeBy(ByDestPrec("c1", High)))
	require.Equal(t, 1, mq.totalSize())

	got := mq.dequeue(ByPrec(High), func(*Packet) bool { return true })
	require.Same(t, p, got)

	require.Equal(t, 0, mq.sizeBy(ByPrec(High)))
	require.Equal(t, 0, mq.sizeBy(ByDest("c1")))
	require.Equal(t, 0, mq.sizeBy(ByDestPrec("c1", High)))
	require.Equal(t, 0, mq.totalSize())
}

func TestMultiQueue_FIFOPerKey(t *testing.T) {
	mq := newMultiQueue()
	p1 := packetTo("c1", Low)
	p2 := packetTo("c1", Low)
	p3 := packetTo("c1", Low)
	mq.enqueue(p1)
	mq.enqueue(p2)
	mq.enqueue(p3)

	always := func(*Packet) bool { return true }
	require.Same(t, p1, mq.dequeue(ByDest("c1"), always))
	require.Same(t, p2, mq.dequeue(ByDest("c1"), always))
	require.Same(t, p3, mq.dequeue(ByDest("c1"), always))
	require.Nil(t, mq.dequeue(ByDest("c1"), always))
}

func TestMultiQueue_DequeueLeavesQueueUnchangedWhenNoMatch(t *testing.T) {
	mq := newMultiQueue()
	p := packetTo("c1", Low)
	mq.enqueue(p)

	got := mq.dequeue(ByDest("c1"), func(*Packet) bool { return false })
	require.Nil(t, got)
	require.Equal(t, 1, mq.totalSize())
}

func TestMultiQueue_RemoveAllIn(t *testing.T) {
	mq := newMultiQueue()
	p1 := packetTo("c1", Low)
	p2 := packetTo("c1", High)
	p3 := packetTo("c2", Low)
	mq.enqueue(p1)
	mq.enqueue(p2)
	mq.enqueue(p3)

	removed := mq.removeAllIn(ByDest("c1"))
	require.ElementsMatch(t, []*Packet{p1, p2}, removed)

	require.Equal(t, 0, mq.sizeBy(ByDest("c1")))
	require.Equal(t, 0, mq.sizeBy(ByDestPrec("c1", Low)))
	require.Equal(t, 0, mq.sizeBy(ByDestPrec("c1", High)))
	require.Equal(t, 1, mq.sizeBy(ByPrec(Low))) // p3 remains
	require.Equal(t, 1, mq.totalSize())
}

func TestMultiQueue_PredicateScansHeadFirst(t *testing.T) {
	mq := newMultiQueue()
	p1 := packetTo("c1", Low)
	p2 := packetTo("c1", Low)
	mq.enqueue(p1)
	mq.enqueue(p2)

	onlySecond := func(p *Packet) bool { return p == p2 }
	got := mq.dequeue(ByDest("c1"), onlySecond)
	require.Same(t, p2, got)
	require.Same(t, p1, mq.dequeue(ByDest("c1"), func(*Packet) bool { return true }))
}
