package main

// This file plays the device side of the wire protocol host/protocol.go
// and controller/protocol.go define for the host side. A real Z-Wave-
// family radio module's firmware would implement these bytes
// independently of this library's own (unexported) encoding — it only
// ever sees the bytes on the wire — so the simulated radio in this demo
// does the same rather than reaching into the host or controller
// packages for their private constants.

import (
	"github.com/jangala-dev/zwavehost/frame"
	"github.com/jangala-dev/zwavehost/types"
)

// channel mirrors host/protocol.go's channel byte.
type channel byte

const (
	channelControl     channel = 0x00
	channelApplication channel = 0x01
)

// ctrlOp mirrors controller/protocol.go's network-management op space.
type ctrlOp byte

const (
	opSetDefault     ctrlOp = 0x01
	opSetDefaultDone ctrlOp = 0x02

	opAddNodeStart ctrlOp = 0x03
	opAddNodeStop  ctrlOp = 0x04
	opNodeFound    ctrlOp = 0x05
	opNodeInfo     ctrlOp = 0x06

	opRemoveNodeStart ctrlOp = 0x07
	opRemoveNodeStop  ctrlOp = 0x08
	opNodeRemoved     ctrlOp = 0x09

	opNodeMaskGet    ctrlOp = 0x0A
	opNodeMaskReport ctrlOp = 0x0B
)

// nodeMaskBytes mirrors controller/protocol.go's bitmask sizing: one bit
// per possible node id, 1..232.
const nodeMaskBytes = (232 + 7) / 8

func controlFrame(op ctrlOp, payload ...byte) frame.Frame {
	body := append([]byte{byte(channelControl), byte(op)}, payload...)
	return frame.Frame{Type: frame.TypeResponse, Payload: body}
}

func encodeNodeMaskReport(present map[types.NodeID]bool) []byte {
	mask := make([]byte, nodeMaskBytes)
	for id := range present {
		if id < 1 {
			continue
		}
		idx := int(id) - 1
		mask[idx/8] |= 1 << uint(idx%8)
	}
	return mask
}

// applicationEnvelopeLen mirrors host/protocol.go's envelopeHeaderLen: tag
// (2 bytes) + node + endpoint + class + op.
const applicationEnvelopeLen = 6

// parsedRequest is one inbound (host-to-radio) application-channel frame
// after the channel byte has been stripped. Endpoints other than root are
// not handled: both simulated nodes are single-endpoint devices, so this
// demo never needs to unwrap Multi-Channel encapsulation.
type parsedRequest struct {
	Tag      uint16
	Node     types.NodeID
	Endpoint types.Endpoint
	Class    types.CommandClass
	Op       types.Op
	Payload  []byte
}

func parseApplicationRequest(body []byte) (parsedRequest, bool) {
	if len(body) < applicationEnvelopeLen {
		return parsedRequest{}, false
	}
	return parsedRequest{
		Tag:      uint16(body[0])<<8 | uint16(body[1]),
		Node:     types.NodeID(body[2]),
		Endpoint: types.Endpoint(body[3]),
		Class:    types.CommandClass(body[4]),
		Op:       types.Op(body[5]),
		Payload:  body[6:],
	}, true
}

// applicationReply builds a device-to-host application-channel frame:
// channel byte, tag, node, endpoint, class, op and payload, mirroring
// host/protocol.go's applicationEnvelope layout exactly (it has to: the
// host's own parseApplicationFrame expects this shape).
func applicationReply(tag uint16, node types.NodeID, ep types.Endpoint, class types.CommandClass, op types.Op, payload []byte) frame.Frame {
	out := make([]byte, 0, 1+applicationEnvelopeLen+len(payload))
	out = append(out, byte(channelApplication), byte(tag>>8), byte(tag))
	out = append(out, byte(node), byte(ep), byte(class), byte(op))
	out = append(out, payload...)
	return frame.Frame{Type: frame.TypeResponse, Payload: out}
}
