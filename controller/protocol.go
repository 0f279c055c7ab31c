// Package controller implements the four network-level state machines
// (spec.md §4.C): SetDefault, AddNode, RemoveNode and ListNodes. These
// drive a small "network management" dialogue with the radio module
// directly — distinct from the per-node Command-Class traffic the codec
// and session packages carry — since spec.md §1 explicitly leaves the
// radio's own firmware protocol undefined beyond "how the host drives
// it." The frame shapes here are this library's own invention for that
// purpose, built in the same manual byte-packing style as frame and codec.
package controller

import "github.com/jangala-dev/zwavehost/types"

// ctrlOp tags a network-management frame; never confused with a
// command-class byte because those start at 0x20 and these start at 0x01
// in their own numbering space used only inside this package.
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

// nodeMaskBytes holds one bit per possible node id (1..232).
const nodeMaskBytes = (int(types.NodeMax) + 7) / 8

func encodeSetDefault() []byte { return []byte{byte(opSetDefault)} }

// decodeSetDefaultDone reports whether the factory reset succeeded.
func decodeSetDefaultDone(payload []byte) (ok bool) {
	return len(payload) >= 1 && payload[0] != 0
}

func encodeAddNodeStart() []byte { return []byte{byte(opAddNodeStart)} }
func encodeAddNodeStop() []byte  { return []byte{byte(opAddNodeStop)} }

// decodeNodeInfo parses an opNodeInfo frame: the assigned node id, its
// device class triple and its supported command class list. Uses
// AddCommandClass so a NIF with duplicate or excess class bytes can't
// violate spec.md §3's no-duplicates/35-class-cap invariants.
func decodeNodeInfo(payload []byte) (*types.NodeRecord, bool) {
	if len(payload) < 4 {
		return nil, false
	}
	rec := &types.NodeRecord{
		ID: types.NodeID(payload[0]),
		Class: types.DeviceClass{
			Basic:    payload[1],
			Generic:  payload[2],
			Specific: payload[3],
		},
	}
	for _, b := range payload[4:] {
		rec.AddCommandClass(types.CommandClass(b))
	}
	return rec, true
}

func encodeRemoveNodeStart() []byte { return []byte{byte(opRemoveNodeStart)} }
func encodeRemoveNodeStop() []byte  { return []byte{byte(opRemoveNodeStop)} }

func decodeNodeRemoved(payload []byte) (types.NodeID, bool) {
	if len(payload) < 1 {
		return 0, false
	}
	return types.NodeID(payload[0]), true
}

func encodeNodeMaskGet() []byte { return []byte{byte(opNodeMaskGet)} }

// decodeNodeMaskReport unpacks the bitmask into the list of present node ids.
func decodeNodeMaskReport(payload []byte) ([]types.NodeID, bool) {
	if len(payload) < nodeMaskBytes {
		return nil, false
	}
	var ids []types.NodeID
	for i := 0; i < nodeMaskBytes; i++ {
		b := payload[i]
		for bit := 0; bit < 8; bit++ {
			if b&(1<<uint(bit)) == 0 {
				continue
			}
			id := types.NodeID(i*8 + bit + 1)
			if id.Valid() {
				ids = append(ids, id)
			}
		}
	}
	return ids, true
}
