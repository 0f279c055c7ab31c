package cache

import "github.com/jangala-dev/zwavehost/types"

// Persisted blob format (spec.md §3 "Persistent blob", §4.E, §6): a
// version byte, a big-endian node count, then each node's fields packed
// manually — the same manual byte-level style the transport and codec
// packages use, rather than a generic serialization library, since no
// third-party codec for this shape appears anywhere in the retrieved
// stack and the rest of the library never reaches for one either.
const blobVersion byte = 1

// MaxBlobSize bounds how much the host is asked to read back on Load; the
// store-load callback zero-pads any offset past the real end of the blob
// (spec.md §4.E, §6), so asking for more than was ever written is safe.
const MaxBlobSize = 16 * 1024

// StoreLoadFunc reads length bytes starting at offset from the host's
// persistence store. Offsets beyond the real end of the stored blob read
// back as zero (spec.md §6).
type StoreLoadFunc func(offset, length int) []byte

// StoreSaveFunc atomically rewrites the entire persisted blob.
type StoreSaveFunc func(data []byte) error

// StoreResetFunc erases the persisted blob (used by SetDefault).
type StoreResetFunc func() error

// encode renders the cache's node set as an opaque blob.
func encode(nodes map[types.NodeID]*types.NodeRecord) []byte {
	out := []byte{blobVersion, 0, 0}
	count := 0
	for id := types.NodeMin; id <= types.NodeMax; id++ {
		rec, ok := nodes[id]
		if !ok {
			continue
		}
		out = encodeNode(out, rec)
		count++
	}
	out[1] = byte(count >> 8)
	out[2] = byte(count)
	return out
}

func encodeNode(out []byte, rec *types.NodeRecord) []byte {
	out = append(out, byte(rec.ID), rec.Class.Basic, rec.Class.Generic, rec.Class.Specific)
	out = append(out, byte(len(rec.CommandClasses)))
	for _, cc := range rec.CommandClasses {
		out = append(out, byte(cc))
	}
	out = append(out, byte(len(rec.Endpoints)))
	for ep, epRec := range rec.Endpoints {
		out = append(out, byte(ep), epRec.Class.Basic, epRec.Class.Generic, epRec.Class.Specific)
		out = append(out, byte(len(epRec.CommandClasses)))
		for _, cc := range epRec.CommandClasses {
			out = append(out, byte(cc))
		}
	}
	out = append(out, byte(len(rec.AggregatedMembers)))
	for ep, members := range rec.AggregatedMembers {
		out = append(out, byte(ep), byte(len(members)))
		for _, m := range members {
			out = append(out, byte(m))
		}
	}
	return out
}

// decode parses a blob previously produced by encode. An unrecognized
// version tag yields an empty, non-error result (spec.md §4.E: "if the
// version tag is unrecognized it starts empty").
func decode(blob []byte) map[types.NodeID]*types.NodeRecord {
	nodes := make(map[types.NodeID]*types.NodeRecord)
	if len(blob) < 3 || blob[0] != blobVersion {
		return nodes
	}
	count := int(blob[1])<<8 | int(blob[2])
	pos := 3
	for i := 0; i < count; i++ {
		rec, next, ok := decodeNode(blob, pos)
		if !ok {
			return make(map[types.NodeID]*types.NodeRecord) // corrupt tail; treat as empty rather than guess
		}
		nodes[rec.ID] = rec
		pos = next
	}
	return nodes
}

func decodeNode(blob []byte, pos int) (*types.NodeRecord, int, bool) {
	if pos+5 > len(blob) {
		return nil, 0, false
	}
	rec := &types.NodeRecord{
		ID: types.NodeID(blob[pos]),
		Class: types.DeviceClass{
			Basic:    blob[pos+1],
			Generic:  blob[pos+2],
			Specific: blob[pos+3],
		},
	}
	pos += 4
	ccCount := int(blob[pos])
	pos++
	if pos+ccCount > len(blob) {
		return nil, 0, false
	}
	for _, b := range blob[pos : pos+ccCount] {
		rec.CommandClasses = append(rec.CommandClasses, types.CommandClass(b))
	}
	pos += ccCount

	if pos >= len(blob) {
		return nil, 0, false
	}
	epCount := int(blob[pos])
	pos++
	rec.Endpoints = make(map[types.Endpoint]*types.EndpointRecord, epCount)
	for i := 0; i < epCount; i++ {
		if pos+5 > len(blob) {
			return nil, 0, false
		}
		ep := types.Endpoint(blob[pos])
		epRec := &types.EndpointRecord{
			Class: types.DeviceClass{
				Basic:    blob[pos+1],
				Generic:  blob[pos+2],
				Specific: blob[pos+3],
			},
		}
		pos += 4
		n := int(blob[pos])
		pos++
		if pos+n > len(blob) {
			return nil, 0, false
		}
		for _, b := range blob[pos : pos+n] {
			epRec.CommandClasses = append(epRec.CommandClasses, types.CommandClass(b))
		}
		pos += n
		rec.Endpoints[ep] = epRec
	}

	if pos >= len(blob) {
		return nil, 0, false
	}
	aggCount := int(blob[pos])
	pos++
	rec.AggregatedMembers = make(map[types.Endpoint][]types.Endpoint, aggCount)
	for i := 0; i < aggCount; i++ {
		if pos+2 > len(blob) {
			return nil, 0, false
		}
		ep := types.Endpoint(blob[pos])
		n := int(blob[pos+1])
		pos += 2
		if pos+n > len(blob) {
			return nil, 0, false
		}
		members := make([]types.Endpoint, 0, n)
		for _, b := range blob[pos : pos+n] {
			members = append(members, types.Endpoint(b))
		}
		pos += n
		rec.AggregatedMembers[ep] = members
	}

	return rec, pos, true
}
