// Package types holds the small value types shared across the outbound
// queue's public API: peer identity and node classification. It mirrors
// the teacher's split between types/p2p and the p2p package proper, kept
// here since the core has no dependency on any concrete transport or
// cryptographic identity scheme.
package types

import (
	"errors"
	"sort"
)

// NodeID identifies a peer. It need only be comparable, orderable, and
// displayable; this module makes no assumption about how an ID was minted
// (public key hash, DNS name, test fixture string, ...) since that is the
// transport collaborator's concern.
type NodeID string

// Validate rejects the empty ID. Concrete deployments that mint NodeIDs
// from a public key (as the teacher's p2p.NodeID does) should validate
// that shape before ever constructing a NodeID value here.
func (id NodeID) Validate() error {
	if id == "" {
		return errors.New("empty node ID")
	}
	return nil
}

func (id NodeID) String() string { return string(id) }

// NodeIDs sorts a slice of NodeID in place, ascending, and returns it. Used
// where this module needs a stable order over a set of peers (the list
// update_peers_bucket returns) without depending on map iteration order.
func NodeIDs(ids []NodeID) []NodeID {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// NodeType classifies a peer for routing purposes: which of a node's three
// peer lists it belongs to, and which dequeue/failure policy shape applies
// to it.
type NodeType int

const (
	NodeTypeCore NodeType = iota
	NodeTypeRelay
	NodeTypeEdge
)

func (t NodeType) String() string {
	switch t {
	case NodeTypeCore:
		return "core"
	case NodeTypeRelay:
		return "relay"
	case NodeTypeEdge:
		return "edge"
	default:
		return "unknown"
	}
}

// NodeTypes enumerates the closed set of node types, in the order the
// default policies consult them.
var NodeTypes = []NodeType{NodeTypeCore, NodeTypeRelay, NodeTypeEdge}
