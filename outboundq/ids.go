package outboundq

import "github.com/tendermint/outboundq/types"

// NodeID and NodeType are aliases of the shared value types so the rest of
// this package can refer to them without importing types directly at every
// call site, mirroring how the teacher's p2p package re-exports types.NodeID.
type NodeID = types.NodeID

type NodeType = types.NodeType

const (
	NodeTypeCore  = types.NodeTypeCore
	NodeTypeRelay = types.NodeTypeRelay
	NodeTypeEdge  = types.NodeTypeEdge
)

var NodeTypes = types.NodeTypes

// NodeIDs sorts ids ascending in place and returns them, for deterministic
// order in UpdatePeersBucket's return value.
var NodeIDs = types.NodeIDs
