package cache

import (
	"testing"

	"github.com/jangala-dev/zwavehost/types"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	nodes := map[types.NodeID]*types.NodeRecord{
		5: {
			ID:             5,
			Class:          types.DeviceClass{Basic: 1, Generic: 2, Specific: 3},
			CommandClasses: []types.CommandClass{types.ClassBasic, types.ClassMeter},
			Endpoints: map[types.Endpoint]*types.EndpointRecord{
				1: {Class: types.DeviceClass{Generic: 4}, CommandClasses: []types.CommandClass{types.ClassBinarySwitch}},
			},
			AggregatedMembers: map[types.Endpoint][]types.Endpoint{
				3: {1, 2},
			},
		},
	}

	blob := encode(nodes)
	got := decode(blob)

	rec, ok := got[5]
	if !ok {
		t.Fatalf("expected node 5 in decoded set")
	}
	if rec.Class.Generic != 2 || len(rec.CommandClasses) != 2 {
		t.Fatalf("unexpected node fields: %+v", rec)
	}
	ep, ok := rec.Endpoints[1]
	if !ok || len(ep.CommandClasses) != 1 {
		t.Fatalf("unexpected endpoint: %+v", ep)
	}
	if members := rec.AggregatedMembers[3]; len(members) != 2 {
		t.Fatalf("unexpected aggregated members: %v", members)
	}
}

func TestDecodeUnrecognizedVersionStartsEmpty(t *testing.T) {
	blob := []byte{0xFF, 0, 1, 5}
	got := decode(blob)
	if len(got) != 0 {
		t.Fatalf("expected empty set for unrecognized version, got %d entries", len(got))
	}
}

func TestDecodeZeroPaddedTailIsTreatedAsEmptyBlob(t *testing.T) {
	// A freshly zero-filled store (never written) reads back as all zero
	// bytes (spec.md §4.E, §6); version 0 is not blobVersion so it must
	// start empty rather than panic indexing into a short slice.
	blob := make([]byte, MaxBlobSize)
	got := decode(blob)
	if len(got) != 0 {
		t.Fatalf("expected empty set for zero-filled blob, got %d entries", len(got))
	}
}

func TestCacheLoadPutPersists(t *testing.T) {
	var stored []byte
	load := func(offset, length int) []byte {
		out := make([]byte, length)
		copy(out, stored)
		return out
	}
	save := func(data []byte) error {
		stored = append([]byte(nil), data...)
		return nil
	}

	c := New(nil)
	c.Load(load, save)
	if c.Len() != 0 {
		t.Fatalf("expected empty cache on first load")
	}

	c.Put(&types.NodeRecord{ID: 9, Class: types.DeviceClass{Generic: 1}})
	if c.Len() != 1 {
		t.Fatalf("expected one node after Put")
	}
	if len(stored) == 0 {
		t.Fatalf("expected Put to persist to the store")
	}

	c2 := New(nil)
	c2.Load(load, save)
	if _, ok := c2.Get(9); !ok {
		t.Fatalf("expected node 9 to survive a reload from the persisted blob")
	}
}

func TestCacheResetClearsAndErasesStore(t *testing.T) {
	c := New(nil)
	c.Put(&types.NodeRecord{ID: 1})

	erased := false
	if err := c.Reset(func() error { erased = true; return nil }); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if c.Len() != 0 || !erased {
		t.Fatalf("expected cache cleared and store erase callback invoked")
	}
}
