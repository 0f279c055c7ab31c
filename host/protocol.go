package host

import (
	"github.com/jangala-dev/zwavehost/codec"
	"github.com/jangala-dev/zwavehost/types"
)

// channel is the first byte of every application frame this library puts
// on the wire, multiplexing the controller's network-management dialogue
// (spec.md §4.C) and the per-node Command-Class traffic (spec.md §4.D)
// over the one frame stream the transport provides. Like the ctrlOp space
// in controller/protocol.go, this is this library's own invention: spec.md
// §1 leaves everything below "how the host drives the radio" undefined.
type channel byte

const (
	channelControl     channel = 0x00 // controller.HandleFrame owns everything after this byte
	channelApplication channel = 0x01 // application envelope follows
)

// envelopeHeaderLen is the fixed part of an application frame after the
// channel byte: a 2-byte transaction tag, node id, endpoint, command class
// and op byte.
const envelopeHeaderLen = 6

// buildApplicationFrame renders the bytes to hand to Transport.Send for one
// outbound command-class request: channel byte, tag, destination, class
// and the codec payload (which already starts with the op byte, as every
// codec Encode* function returns it). Endpoints other than root are transparently
// wrapped in Multi-Channel encapsulation (spec.md §4.D "Encapsulation"),
// addressed at the node's root endpoint on the wire.
func buildApplicationFrame(tag uint16, node types.NodeID, ep types.Endpoint, class types.CommandClass, payload []byte) ([]byte, error) {
	if !ep.IsRoot() {
		inner := make([]byte, 0, 1+len(payload))
		inner = append(inner, byte(class))
		inner = append(inner, payload...)
		wrapped, err := codec.WrapEncapsulation(ep, inner)
		if err != nil {
			return nil, err
		}
		return applicationEnvelope(tag, node, types.EndpointRoot, types.ClassMultiChannel, wrapped), nil
	}
	return applicationEnvelope(tag, node, ep, class, payload), nil
}

func applicationEnvelope(tag uint16, node types.NodeID, ep types.Endpoint, class types.CommandClass, payload []byte) []byte {
	out := make([]byte, 0, 1+envelopeHeaderLen+len(payload))
	out = append(out, byte(channelApplication), byte(tag>>8), byte(tag))
	out = append(out, byte(node), byte(ep), byte(class))
	out = append(out, payload...)
	return out
}

// parsedEnvelope is one inbound application frame after channel, tag,
// destination and class/op have been split from the codec payload.
type parsedEnvelope struct {
	Tag      uint16
	Node     types.NodeID
	Endpoint types.Endpoint
	Class    types.CommandClass
	Op       types.Op
	Payload  []byte // bytes after the op byte, as codec.Decode expects
}

// parseApplicationFrame splits body (the frame payload with the leading
// channel byte already stripped) into its envelope fields, following
// Multi-Channel encapsulation one level if present so the returned
// envelope always describes the innermost command, with Endpoint set to
// the source endpoint the encapsulation carried (spec.md §4.D
// "Encapsulation": "the inner frame is dispatched with the unwrapped
// endpoint as its source endpoint").
func parseApplicationFrame(body []byte) (parsedEnvelope, error) {
	if len(body) < envelopeHeaderLen {
		return parsedEnvelope{}, codec.ErrShort
	}
	tag := uint16(body[0])<<8 | uint16(body[1])
	envNode := types.NodeID(body[2])
	ep := types.Endpoint(body[3])
	class := types.CommandClass(body[4])
	op := types.Op(body[5])
	rest := body[6:]

	if class == types.ClassMultiChannel && op == types.OpMultiChannelEncap {
		srcEP, inner, err := codec.UnwrapEncapsulation(rest)
		if err != nil {
			return parsedEnvelope{}, err
		}
		if len(inner) < 2 {
			return parsedEnvelope{}, codec.ErrShort
		}
		return parsedEnvelope{
			Tag:      tag,
			Node:     envNode,
			Endpoint: srcEP,
			Class:    types.CommandClass(inner[0]),
			Op:       types.Op(inner[1]),
			Payload:  inner[2:],
		}, nil
	}

	return parsedEnvelope{
		Tag:      tag,
		Node:     envNode,
		Endpoint: ep,
		Class:    class,
		Op:       op,
		Payload:  rest,
	}, nil
}
