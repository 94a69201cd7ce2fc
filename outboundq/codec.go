package outboundq

import (
	"fmt"

	"github.com/gogo/protobuf/proto"
)

// EncodePayload marshals a packet's payload for the wire. It requires the
// payload to be a proto.Message — GossipPayload satisfies this, and any
// other generated gogo message works too, since the core never interprets
// Payload itself beyond handing it to SendMsg.
func EncodePayload(payload interface{}) ([]byte, error) {
	msg, ok := payload.(proto.Message)
	if !ok {
		return nil, fmt.Errorf("outboundq: payload %T is not a proto.Message", payload)
	}
	return proto.Marshal(msg)
}

// DecodePayload unmarshals bytes into a fresh GossipPayload.
func DecodePayload(b []byte) (*GossipPayload, error) {
	var p GossipPayload
	if err := proto.Unmarshal(b, &p); err != nil {
		return nil, fmt.Errorf("outboundq: decode payload: %w", err)
	}
	return &p, nil
}

// wireEncode is what sendPacket calls right before handing a packet to
// SendMsg: if the packet's payload is a proto.Message (GossipPayload or an
// application-defined one), it is marshaled to bytes so SendMsg's
// collaborator always receives wire-ready data for that case. Payloads
// that aren't proto.Message values are left to the caller to encode
// however they see fit, which wireEncode reports via its error.
func wireEncode(payload interface{}) ([]byte, error) {
	return EncodePayload(payload)
}
