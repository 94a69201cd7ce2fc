package outboundq

// ForwardingSet is a non-empty, ordered list of alternative node ids.
// Sending "to the set" means delivering to exactly one alternative,
// preferring earlier entries when more than one is eligible.
type ForwardingSet []NodeID

func (fs ForwardingSet) contains(n NodeID) bool {
	for _, a := range fs {
		if a == n {
			return true
		}
	}
	return false
}

// without returns a copy of fs with n removed, preserving order.
func (fs ForwardingSet) without(n NodeID) ForwardingSet {
	if !fs.contains(n) {
		return fs
	}
	out := make(ForwardingSet, 0, len(fs))
	for _, a := range fs {
		if a != n {
			out = append(out, a)
		}
	}
	return out
}

// Peers is the classified peer knowledge for one node: one list of
// forwarding sets per NodeType. It forms a commutative monoid under
// pointwise concatenation (Merge), with the empty Peers as identity — this
// is what lets update_peers_bucket fold many buckets into one effective
// peer set regardless of fold order.
type Peers struct {
	core  []ForwardingSet
	relay []ForwardingSet
	edge  []ForwardingSet
}

// NewPeers builds a Peers value from its three lists directly.
func NewPeers(core, relay, edge []ForwardingSet) Peers {
	return Peers{core: core, relay: relay, edge: edge}
}

// SimplePeers turns a flat list of peer ids of a single NodeType into a
// Peers value with one singleton forwarding set per id — the common case
// when a bucket has no alternative-routing knowledge, just a flat peer
// list.
func SimplePeers(t NodeType, ids []NodeID) Peers {
	sets := make([]ForwardingSet, len(ids))
	for i, id := range ids {
		sets[i] = ForwardingSet{id}
	}
	return setFwdSets(Peers{}, t, sets)
}

func setFwdSets(p Peers, t NodeType, sets []ForwardingSet) Peers {
	switch t {
	case NodeTypeCore:
		p.core = sets
	case NodeTypeRelay:
		p.relay = sets
	case NodeTypeEdge:
		p.edge = sets
	}
	return p
}

// PeersOfType selects the forwarding-set list for one NodeType.
func (p Peers) PeersOfType(t NodeType) []ForwardingSet {
	switch t {
	case NodeTypeCore:
		return p.core
	case NodeTypeRelay:
		return p.relay
	case NodeTypeEdge:
		return p.edge
	default:
		return nil
	}
}

// Merge is the monoid operation: pointwise concatenation of the three
// lists. Merge(Peers{}, x) == x and Merge is associative, which is what
// Testable Property 8 (monoid law) exercises directly.
func Merge(a, b Peers) Peers {
	return Peers{
		core:  append(append([]ForwardingSet{}, a.core...), b.core...),
		relay: append(append([]ForwardingSet{}, a.relay...), b.relay...),
		edge:  append(append([]ForwardingSet{}, a.edge...), b.edge...),
	}
}

// MergeAll folds a sequence of Peers values with Merge, starting from the
// identity. Order does not matter since Merge is commutative up to the
// resulting alternative order, which callers never rely on for anything
// beyond pick_alt's "earlier entries preferred" tie-break within one set.
func MergeAll(all ...Peers) Peers {
	out := Peers{}
	for _, p := range all {
		out = Merge(out, p)
	}
	return out
}

// RemoveOrigin drops the forwarding peer from every alternative list when
// origin is a forward, then drops any list that became empty as a result.
// OriginSender is the identity transform: a message minted by this node has
// nothing to suppress.
func RemoveOrigin(origin Origin, sets []ForwardingSet) []ForwardingSet {
	from, ok := origin.IsForward()
	if !ok {
		return sets
	}
	out := make([]ForwardingSet, 0, len(sets))
	for _, fs := range sets {
		trimmed := fs.without(from)
		if len(trimmed) > 0 {
			out = append(out, trimmed)
		}
	}
	return out
}

// Restriction limits enqueue to a caller-supplied subset of known peers,
// used by the *_to family of public entry points.
type Restriction struct {
	allowed map[NodeID]struct{}
}

// NewRestriction builds a Restriction admitting exactly the given ids.
func NewRestriction(ids ...NodeID) Restriction {
	m := make(map[NodeID]struct{}, len(ids))
	for _, id := range ids {
		m[id] = struct{}{}
	}
	return Restriction{allowed: m}
}

func (r Restriction) isZero() bool { return r.allowed == nil }

// RestrictPeers intersects sets with the restriction: alternatives not in
// the restriction are dropped, then emptied lists are dropped, mirroring
// RemoveOrigin's shape. A zero-value Restriction (NewRestriction never
// called) admits everything, so unrestricted enqueue can share this code
// path.
func RestrictPeers(r Restriction, sets []ForwardingSet) []ForwardingSet {
	if r.isZero() {
		return sets
	}
	out := make([]ForwardingSet, 0, len(sets))
	for _, fs := range sets {
		var trimmed ForwardingSet
		for _, a := range fs {
			if _, ok := r.allowed[a]; ok {
				trimmed = append(trimmed, a)
			}
		}
		if len(trimmed) > 0 {
			out = append(out, trimmed)
		}
	}
	return out
}

// allIDs returns every distinct node id appearing anywhere in p, across all
// three NodeType lists. Used by update_peers_bucket to compute which peers
// vanished from the fold after a bucket write.
func (p Peers) allIDs() map[NodeID]struct{} {
	out := make(map[NodeID]struct{})
	for _, sets := range [][]ForwardingSet{p.core, p.relay, p.edge} {
		for _, fs := range sets {
			for _, a := range fs {
				out[a] = struct{}{}
			}
		}
	}
	return out
}
