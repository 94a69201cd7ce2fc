package outboundq

import "github.com/gogo/protobuf/proto"

// GossipPayload is the concrete wire payload this module ships with: an
// opaque message-type tag plus whatever bytes the application layer
// already serialized (block headers, transactions, MPC shares, ...). A
// packet's Payload field is typed interface{} so any proto.Message can
// stand in for it — SendMsg's caller decides how to marshal it onto the
// wire — but GossipPayload is what EncodePayload/DecodePayload in codec.go
// operate on when the application hasn't rolled its own envelope.
type GossipPayload struct {
	MsgType int32  `protobuf:"varint,1,opt,name=msg_type,proto3" json:"msg_type,omitempty"`
	Data    []byte `protobuf:"bytes,2,opt,name=data,proto3" json:"data,omitempty"`
}

func (m *GossipPayload) Reset()         { *m = GossipPayload{} }
func (m *GossipPayload) String() string { return proto.CompactTextString(m) }
func (m *GossipPayload) ProtoMessage()  {}

// NewGossipPayload wraps already-serialized application bytes under a
// message-type tag.
func NewGossipPayload(mt MsgType, data []byte) *GossipPayload {
	return &GossipPayload{MsgType: int32(mt), Data: data}
}
