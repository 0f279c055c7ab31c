package controller

import (
	"testing"

	"github.com/jangala-dev/zwavehost/cache"
	"github.com/jangala-dev/zwavehost/errcode"
	"github.com/jangala-dev/zwavehost/frame"
	"github.com/jangala-dev/zwavehost/types"
)

// fakeSender lets a test script a canned inbound reply (or none, to
// exercise timeouts) for every Send call.
type fakeSender struct {
	replies [][]byte // one entry consumed per Send call; nil entry means no reply
	sent    [][]byte
}

func (f *fakeSender) Send(payload []byte, typ frame.Type, deliver func(frame.Frame)) error {
	f.sent = append(f.sent, payload)
	if len(f.replies) == 0 {
		return nil
	}
	reply := f.replies[0]
	f.replies = f.replies[1:]
	if reply != nil && deliver != nil {
		deliver(frame.Frame{Type: frame.TypeResponse, Payload: reply})
	}
	return nil
}

func newClock(start int64) func() int64 {
	t := start
	return func() int64 { return t }
}

func TestSetDefaultSuccessWipesCache(t *testing.T) {
	c := cache.New(nil)
	c.Put(&types.NodeRecord{ID: 5})

	fs := &fakeSender{replies: [][]byte{{byte(opSetDefaultDone), 1}}}
	erased := false
	ctl := New(fs, c, func() error { erased = true; return nil }, newClock(0), nil)

	var gotCode errcode.Code
	ctl.SetDefault(func(code errcode.Code) { gotCode = code })

	if gotCode != errcode.OK {
		t.Fatalf("expected OK, got %v", gotCode)
	}
	if !erased {
		t.Fatalf("expected store reset to be invoked")
	}
	if c.Len() != 0 {
		t.Fatalf("expected cache wiped, still has %d nodes", c.Len())
	}
	if ctl.State() != StateIdle {
		t.Fatalf("expected controller back to idle")
	}
}

func TestSetDefaultFailureRestoresCache(t *testing.T) {
	c := cache.New(nil)
	c.Put(&types.NodeRecord{ID: 5})

	fs := &fakeSender{replies: [][]byte{{byte(opSetDefaultDone), 0}}}
	ctl := New(fs, c, func() error { return nil }, newClock(0), nil)

	var gotCode errcode.Code
	ctl.SetDefault(func(code errcode.Code) { gotCode = code })

	if gotCode != errcode.RadioFailure {
		t.Fatalf("expected radio_failure, got %v", gotCode)
	}
	if c.Len() != 1 {
		t.Fatalf("expected cache restored to previous contents, got %d nodes", c.Len())
	}
}

func TestSetDefaultRejectsConcurrentOp(t *testing.T) {
	c := cache.New(nil)
	fs := &fakeSender{} // no reply: set_default stays in-flight
	ctl := New(fs, c, nil, newClock(0), nil)

	ctl.SetDefault(func(errcode.Code) {})
	if ctl.State() != StateSetDefaultInProgress {
		t.Fatalf("expected in-progress state")
	}

	var secondCode errcode.Code
	ctl.AddNode(func(_ *types.NodeRecord, code errcode.Code) { secondCode = code })
	if secondCode != errcode.Busy {
		t.Fatalf("expected busy for a concurrent op, got %v", secondCode)
	}
}

func TestAddNodeDeliversDiscoveredNode(t *testing.T) {
	c := cache.New(nil)
	info := []byte{byte(opNodeInfo), 7, 1, 2, 3, byte(types.ClassBasic), byte(types.ClassMeter)}
	fs := &fakeSender{} // start send has no immediate reply
	ctl := New(fs, c, nil, newClock(0), nil)

	var gotNode *types.NodeRecord
	var gotCode errcode.Code
	ctl.AddNode(func(node *types.NodeRecord, code errcode.Code) { gotNode, gotCode = node, code })

	// Simulate the radio's NIF arriving asynchronously on a later pump tick.
	ctl.HandleFrame(frame.Frame{Type: frame.TypeResponse, Payload: info})

	if gotCode != errcode.OK {
		t.Fatalf("expected OK, got %v", gotCode)
	}
	if gotNode == nil || gotNode.ID != 7 {
		t.Fatalf("unexpected node: %+v", gotNode)
	}
	if _, ok := c.Get(7); !ok {
		t.Fatalf("expected node 7 to be cached")
	}
}

func TestListNodesDeliversCachedRecordsThenTerminator(t *testing.T) {
	c := cache.New(nil)
	c.Put(&types.NodeRecord{ID: 3})
	c.Put(&types.NodeRecord{ID: 9})

	mask := make([]byte, nodeMaskBytes)
	for _, id := range []types.NodeID{3, 9} {
		mask[(id-1)/8] |= 1 << uint((id-1)%8)
	}
	fs := &fakeSender{replies: [][]byte{append([]byte{byte(opNodeMaskReport)}, mask...)}}
	ctl := New(fs, c, nil, newClock(0), nil)

	var seen []types.NodeID
	terminated := false
	ctl.ListNodes(func(node *types.NodeRecord, code errcode.Code) {
		if node == nil {
			terminated = true
			return
		}
		seen = append(seen, node.ID)
	})

	if len(seen) != 2 {
		t.Fatalf("expected two nodes delivered, got %v", seen)
	}
	if !terminated {
		t.Fatalf("expected a final nil-record terminator")
	}
}

func TestProcTimesOutAddNode(t *testing.T) {
	c := cache.New(nil)
	fs := &fakeSender{} // never replies
	clock := newClock(0)
	ctl := New(fs, c, nil, clock, nil)

	var gotCode errcode.Code
	ctl.AddNode(func(_ *types.NodeRecord, code errcode.Code) { gotCode = code })

	ctl.Proc(addNodeTimeoutMs + 1)
	if gotCode != errcode.Timeout {
		t.Fatalf("expected timeout, got %v", gotCode)
	}
	if ctl.State() != StateIdle {
		t.Fatalf("expected controller released back to idle")
	}
}
