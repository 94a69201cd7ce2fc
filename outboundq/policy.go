package outboundq

import "time"

// InstrKind distinguishes the two enqueue instruction shapes.
type InstrKind int

const (
	// InstrAll sends to every forwarding set of a single destination type.
	InstrAll InstrKind = iota
	// InstrOne sends to exactly one forwarding set, trying each destination
	// type in DestTypes in order until one yields a pick.
	InstrOne
)

// Instruction is one row of an enqueue policy's output for a given message
// class: EnqueueAll{dest_type, max_ahead, precedence} or
// EnqueueOne{dest_types_in_preference_order, max_ahead, precedence}.
type Instruction struct {
	Kind      InstrKind
	DestTypes []NodeType // len 1 for InstrAll; preference order for InstrOne
	MaxAhead  int
	Prec      Precedence
}

// EnqueueAll builds an InstrAll instruction.
func EnqueueAll(destType NodeType, maxAhead int, prec Precedence) Instruction {
	return Instruction{Kind: InstrAll, DestTypes: []NodeType{destType}, MaxAhead: maxAhead, Prec: prec}
}

// EnqueueOne builds an InstrOne instruction.
func EnqueueOne(destTypesInPreferenceOrder []NodeType, maxAhead int, prec Precedence) Instruction {
	return Instruction{Kind: InstrOne, DestTypes: destTypesInPreferenceOrder, MaxAhead: maxAhead, Prec: prec}
}

// EnqueuePolicy maps a message class to the list of enqueue instructions
// that realize it. An empty result means "this class is not sent from
// this node" and is not an error.
type EnqueuePolicy interface {
	Instructions(mt MsgType, origin Origin) []Instruction
}

// tableEnqueuePolicy is the data-table representation the design notes
// prefer over closures: a plain map is enumerable and inspectable, which
// is what makes default policies easy to unit test row by row.
type tableEnqueuePolicy struct {
	rows map[MsgType][]Instruction
}

// NewEnqueuePolicy builds an EnqueuePolicy from a table. Rows absent from
// the map behave as an empty instruction list.
func NewEnqueuePolicy(rows map[MsgType][]Instruction) EnqueuePolicy {
	return &tableEnqueuePolicy{rows: rows}
}

func (t *tableEnqueuePolicy) Instructions(mt MsgType, _ Origin) []Instruction {
	return t.rows[mt]
}

// RateLimit is None (zero value) or PerSec(n).
type RateLimit struct {
	PerSec int
	set    bool
}

// NoRateLimit is the absence of a rate limit.
var NoRateLimit = RateLimit{}

// PerSecLimit builds a PerSec(n) rate limit.
func PerSecLimit(n int) RateLimit { return RateLimit{PerSec: n, set: true} }

// Enabled reports whether this is a PerSec limit rather than None.
func (r RateLimit) Enabled() bool { return r.set && r.PerSec > 0 }

// DequeueRule is what a dequeue policy yields for one destination type.
type DequeueRule struct {
	Rate        RateLimit
	MaxInFlight int
}

// DequeuePolicy maps destination type to its rate limit and in-flight cap.
type DequeuePolicy interface {
	Rule(destType NodeType) DequeueRule
}

type tableDequeuePolicy struct {
	rows map[NodeType]DequeueRule
}

// NewDequeuePolicy builds a DequeuePolicy from a table. A destination type
// absent from the table gets DequeueRule{} — no rate limit, zero in-flight
// room, which in practice means nothing to that type is ever dispatched;
// defaults below always populate every NodeType.
func NewDequeuePolicy(rows map[NodeType]DequeueRule) DequeuePolicy {
	return &tableDequeuePolicy{rows: rows}
}

func (t *tableDequeuePolicy) Rule(destType NodeType) DequeueRule {
	return t.rows[destType]
}

// FailurePolicy maps (destination type, message class, error) to how long
// to keep the destination in cooldown.
type FailurePolicy interface {
	ReconsiderAfter(destType NodeType, mt MsgType, err error) time.Duration
}

// constFailurePolicy applies one cooldown duration per destination type,
// ignoring message class and error — which is all the default policies
// below need, but any deployment can supply a FailurePolicy that inspects
// err (e.g. to treat a timeout differently from a protocol violation).
type constFailurePolicy struct {
	rows map[NodeType]time.Duration
}

// NewConstFailurePolicy builds a FailurePolicy with one cooldown per
// destination type.
func NewConstFailurePolicy(rows map[NodeType]time.Duration) FailurePolicy {
	return &constFailurePolicy{rows: rows}
}

func (c *constFailurePolicy) ReconsiderAfter(destType NodeType, _ MsgType, _ error) time.Duration {
	return c.rows[destType]
}

// Profile selects which of the five default policy shapes a node runs
// under. The three Edge variants share a NodeType (NodeTypeEdge) but
// route and throttle differently depending on how the edge node is
// reachable.
type Profile int

const (
	ProfileCore Profile = iota
	ProfileRelay
	ProfileEdgeBehindNAT
	ProfileEdgeExchange
	ProfileEdgeP2P
)

func (p Profile) String() string {
	switch p {
	case ProfileCore:
		return "core"
	case ProfileRelay:
		return "relay"
	case ProfileEdgeBehindNAT:
		return "edge-behind-nat"
	case ProfileEdgeExchange:
		return "edge-exchange"
	case ProfileEdgeP2P:
		return "edge-p2p"
	default:
		return "unknown"
	}
}

// DefaultEnqueuePolicy returns the stock enqueue table for profile.
//
// Core broadcasts headers to every core peer and the best relay; relay and
// edge nodes are more conservative about fan-out, reflecting that they sit
// further from the validator set and have less bandwidth to spend on
// redundant delivery.
func DefaultEnqueuePolicy(p Profile) EnqueuePolicy {
	switch p {
	case ProfileCore:
		return NewEnqueuePolicy(map[MsgType][]Instruction{
			AnnounceBlockHeader: {
				EnqueueAll(NodeTypeCore, 2, Highest),
				EnqueueOne([]NodeType{NodeTypeRelay}, 2, High),
			},
			RequestBlockHeaders: {EnqueueOne([]NodeType{NodeTypeCore, NodeTypeRelay}, 1, High)},
			RequestBlocks:       {EnqueueOne([]NodeType{NodeTypeCore, NodeTypeRelay}, 1, Medium)},
			Transaction:         {EnqueueAll(NodeTypeCore, 4, Low)},
			MPC:                 {EnqueueAll(NodeTypeCore, 1, Highest)},
		})
	case ProfileRelay:
		return NewEnqueuePolicy(map[MsgType][]Instruction{
			AnnounceBlockHeader: {EnqueueAll(NodeTypeCore, 2, High), EnqueueAll(NodeTypeEdge, 4, Medium)},
			RequestBlockHeaders: {EnqueueOne([]NodeType{NodeTypeCore}, 1, High)},
			RequestBlocks:       {EnqueueOne([]NodeType{NodeTypeCore}, 1, Medium)},
			Transaction:         {EnqueueAll(NodeTypeCore, 4, Low), EnqueueAll(NodeTypeEdge, 4, Low)},
		})
	case ProfileEdgeBehindNAT:
		return NewEnqueuePolicy(map[MsgType][]Instruction{
			RequestBlockHeaders: {EnqueueOne([]NodeType{NodeTypeRelay}, 1, High)},
			RequestBlocks:       {EnqueueOne([]NodeType{NodeTypeRelay}, 1, Medium)},
			Transaction:         {EnqueueOne([]NodeType{NodeTypeRelay}, 2, Low)},
		})
	case ProfileEdgeExchange:
		return NewEnqueuePolicy(map[MsgType][]Instruction{
			RequestBlockHeaders: {EnqueueOne([]NodeType{NodeTypeRelay}, 1, High)},
			RequestBlocks:       {EnqueueOne([]NodeType{NodeTypeRelay}, 1, Medium)},
			Transaction:         {EnqueueAll(NodeTypeRelay, 2, Medium)},
		})
	case ProfileEdgeP2P:
		return NewEnqueuePolicy(map[MsgType][]Instruction{
			AnnounceBlockHeader: {EnqueueAll(NodeTypeEdge, 2, Medium)},
			RequestBlockHeaders: {EnqueueOne([]NodeType{NodeTypeRelay, NodeTypeEdge}, 1, High)},
			RequestBlocks:       {EnqueueOne([]NodeType{NodeTypeRelay, NodeTypeEdge}, 1, Medium)},
			Transaction:         {EnqueueAll(NodeTypeEdge, 2, Low)},
		})
	default:
		return NewEnqueuePolicy(nil)
	}
}

// DefaultDequeuePolicy returns the stock dequeue table for profile. Core
// and relay peers get more concurrency headroom than edge peers, which
// are assumed to be thinner connections worth protecting from bursts.
func DefaultDequeuePolicy(p Profile) DequeuePolicy {
	switch p {
	case ProfileCore:
		return NewDequeuePolicy(map[NodeType]DequeueRule{
			NodeTypeCore:  {MaxInFlight: 16},
			NodeTypeRelay: {MaxInFlight: 8, Rate: PerSecLimit(20)},
			NodeTypeEdge:  {MaxInFlight: 4, Rate: PerSecLimit(5)},
		})
	case ProfileRelay:
		return NewDequeuePolicy(map[NodeType]DequeueRule{
			NodeTypeCore:  {MaxInFlight: 12},
			NodeTypeRelay: {MaxInFlight: 8},
			NodeTypeEdge:  {MaxInFlight: 4, Rate: PerSecLimit(10)},
		})
	default: // the three edge profiles
		return NewDequeuePolicy(map[NodeType]DequeueRule{
			NodeTypeCore:  {MaxInFlight: 2},
			NodeTypeRelay: {MaxInFlight: 4, Rate: PerSecLimit(2)},
			NodeTypeEdge:  {MaxInFlight: 4, Rate: PerSecLimit(2)},
		})
	}
}

// DefaultFailurePolicy returns the stock cooldown table for profile.
func DefaultFailurePolicy(p Profile) FailurePolicy {
	switch p {
	case ProfileCore, ProfileRelay:
		return NewConstFailurePolicy(map[NodeType]time.Duration{
			NodeTypeCore:  30 * time.Second,
			NodeTypeRelay: 60 * time.Second,
			NodeTypeEdge:  120 * time.Second,
		})
	default:
		return NewConstFailurePolicy(map[NodeType]time.Duration{
			NodeTypeCore:  60 * time.Second,
			NodeTypeRelay: 200 * time.Second,
			NodeTypeEdge:  200 * time.Second,
		})
	}
}
