package outboundq

import (
	"context"

	outsync "github.com/tendermint/outboundq/libs/sync"
)

// Result is what a caller awaiting a packet's delivery eventually
// observes: the collaborator's return value, or the error it failed with
// (including ErrCancelled if the packet was dropped unsent).
type Result struct {
	Value interface{}
	Err   error
}

// ResultCell is a single-shot, write-once future. Exactly one of Resolve or
// Cancel is ever called on a given cell; calling either a second time is a
// no-op, matching the source's "Drop with no write resolves Cancelled"
// contract folded into an explicit Cancel instead of relying on a
// finalizer the target language doesn't have.
type ResultCell struct {
	done  *outsync.Closer
	value Result
	set   outsync.Mutex
	wrote bool
}

// NewResultCell allocates an unresolved cell.
func NewResultCell() *ResultCell {
	return &ResultCell{done: outsync.NewCloser()}
}

// Resolve writes the cell's value. Only the first call has effect.
func (c *ResultCell) Resolve(r Result) {
	c.set.Lock()
	defer c.set.Unlock()
	if c.wrote {
		return
	}
	c.value = r
	c.wrote = true
	c.done.Close()
}

// Cancel resolves the cell with ErrCancelled, if it has not already been
// resolved. Called when a packet is removed from the multi-queue by bucket
// cleanup before a worker ever sent it.
func (c *ResultCell) Cancel() {
	c.Resolve(Result{Err: ErrCancelled})
}

// Wait blocks until the cell is resolved, or ctx is done, whichever comes
// first.
func (c *ResultCell) Wait(ctx context.Context) (Result, error) {
	select {
	case <-c.done.Done():
		c.set.Lock()
		defer c.set.Unlock()
		return c.value, nil
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

// Done exposes the resolution channel directly, for callers that want to
// select on resolution without a context.
func (c *ResultCell) Done() <-chan struct{} { return c.done.Done() }

// Value returns the resolved value; only meaningful after Done() has
// fired.
func (c *ResultCell) Value() Result {
	c.set.Lock()
	defer c.set.Unlock()
	return c.value
}

// Key is one of the three index keys a packet is enqueued under in the
// multi-queue. Exactly one Key value of each shape below is constructed
// per packet; a packet is present under all three or none.
type Key struct {
	kind byte // 'p' = ByPrec, 'd' = ByDest, 'b' = ByDestPrec
	prec Precedence
	dest NodeID
}

// ByPrec is the key under which every packet of a given precedence is
// found, regardless of destination.
func ByPrec(p Precedence) Key { return Key{kind: 'p', prec: p} }

// ByDest is the key under which every packet bound for a given destination
// is found, regardless of precedence.
func ByDest(n NodeID) Key { return Key{kind: 'd', dest: n} }

// ByDestPrec is the key under which packets to a destination at a specific
// precedence are found; pick_alt's "ahead" computation sums scheduled
// counts under this key for prec..=Highest.
func ByDestPrec(n NodeID, p Precedence) Key { return Key{kind: 'b', dest: n, prec: p} }

// Packet is the unit of scheduling.
type Packet struct {
	Payload interface{}
	MsgType MsgType
	DestType NodeType
	Dest    NodeID
	Prec    Precedence
	Slot    *ResultCell

	keys []Key
}

// newPacket builds a packet and its three index keys.
func newPacket(payload interface{}, mt MsgType, destType NodeType, dest NodeID, prec Precedence) *Packet {
	p := &Packet{
		Payload:  payload,
		MsgType:  mt,
		DestType: destType,
		Dest:     dest,
		Prec:     prec,
		Slot:     NewResultCell(),
	}
	p.keys = []Key{ByPrec(prec), ByDest(dest), ByDestPrec(dest, prec)}
	return p
}
