package outboundq

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSimplePeersMonoidLaw(t *testing.T) {
	a := []NodeID{"a1", "a2"}
	b := []NodeID{"b1"}

	lhs := SimplePeers(NodeTypeCore, append(append([]NodeID{}, a...), b...))
	rhs := Merge(SimplePeers(NodeTypeCore, a), SimplePeers(NodeTypeCore, b))

	require.Equal(t, lhs.PeersOfType(NodeTypeCore), rhs.PeersOfType(NodeTypeCore))
}

func TestMergeIdentity(t *testing.T) {
	p := SimplePeers(NodeTypeRelay, []NodeID{"r1", "r2"})
	require.Equal(t, p.PeersOfType(NodeTypeRelay), Merge(Peers{}, p).PeersOfType(NodeTypeRelay))
	require.Equal(t, p.PeersOfType(NodeTypeRelay), Merge(p, Peers{}).PeersOfType(NodeTypeRelay))
}

func TestMergeAssociative(t *testing.T) {
	a := SimplePeers(NodeTypeCore, []NodeID{"a"})
	b := SimplePeers(NodeTypeCore, []NodeID{"b"})
	c := SimplePeers(NodeTypeCore, []NodeID{"c"})

	left := Merge(Merge(a, b), c)
	right := Merge(a, Merge(b, c))
	require.Equal(t, left.PeersOfType(NodeTypeCore), right.PeersOfType(NodeTypeCore))
}

func TestRemoveOrigin_SuppressesSender(t *testing.T) {
	sets := []ForwardingSet{{"c1", "c2"}, {"c3"}}

	unchanged := RemoveOrigin(OriginSender, sets)
	require.Equal(t, sets, unchanged)

	trimmed := RemoveOrigin(OriginForward("c1"), sets)
	require.Equal(t, []ForwardingSet{{"c2"}, {"c3"}}, trimmed)
}

func TestRemoveOrigin_DropsEmptiedAlternativeList(t *testing.T) {
	sets := []ForwardingSet{{"c1"}, {"c2"}}
	trimmed := RemoveOrigin(OriginForward("c1"), sets)
	require.Equal(t, []ForwardingSet{{"c2"}}, trimmed)
}

func TestRestrictPeers(t *testing.T) {
	sets := []ForwardingSet{{"c1", "c2"}, {"c3"}}
	r := NewRestriction("c1", "c3")

	restricted := RestrictPeers(r, sets)
	require.Equal(t, []ForwardingSet{{"c1"}, {"c3"}}, restricted)
}

func TestRestrictPeers_ZeroValueAdmitsEverything(t *testing.T) {
	sets := []ForwardingSet{{"c1"}, {"c2"}}
	require.Equal(t, sets, RestrictPeers(Restriction{}, sets))
}
