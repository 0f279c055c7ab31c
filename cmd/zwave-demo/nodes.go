package main

import (
	"sync"
	"time"

	"github.com/jangala-dev/zwavehost/types"
	"github.com/jangala-dev/zwavehost/x/ramp"
)

// simNode is one simulated device behind the fake radio. Only the root
// endpoint is modeled: the demo's purpose is to exercise the host library's
// dispatch and controller logic end to end, not to be a faithful device
// emulator.
type simNode struct {
	mu sync.Mutex

	rec *types.NodeRecord

	basic        types.SwitchValue
	binarySwitch types.SwitchValue

	// multilevel is driven by x/ramp in its own goroutine while a ramp is
	// in progress (StartChange/StopChange), so reads of it must hold mu.
	multilevel types.SwitchValue
	rampCancel chan struct{} // non-nil while a ramp goroutine is running
}

func newBinarySwitchNode(id types.NodeID) *simNode {
	return &simNode{
		rec: &types.NodeRecord{
			ID:             id,
			Class:          types.DeviceClass{Basic: 0x04, Generic: 0x10, Specific: 0x01}, // Binary Switch
			CommandClasses: []types.CommandClass{types.ClassBasic, types.ClassBinarySwitch, types.ClassVersion},
		},
		basic:        types.SwitchOff,
		binarySwitch: types.SwitchOff,
	}
}

func newDimmerNode(id types.NodeID) *simNode {
	return &simNode{
		rec: &types.NodeRecord{
			ID:             id,
			Class:          types.DeviceClass{Basic: 0x04, Generic: 0x11, Specific: 0x01}, // Multilevel Switch
			CommandClasses: []types.CommandClass{types.ClassBasic, types.ClassMultilevelSwitch, types.ClassVersion},
		},
		multilevel: types.SwitchOff,
	}
}

// handle processes one application request addressed at this node's root
// endpoint and returns the reply frames to send back, in order (a command
// with no report yields none).
func (n *simNode) handle(tag uint16, req parsedRequest) []replyFrame {
	switch req.Class {
	case types.ClassBasic:
		return n.handleBasic(tag, req)
	case types.ClassBinarySwitch:
		return n.handleBinarySwitch(tag, req)
	case types.ClassMultilevelSwitch:
		return n.handleMultilevelSwitch(tag, req)
	default:
		return nil
	}
}

// replyFrame holds the addressing and bytes of one report a node wants
// sent back; the fake radio renders it through applicationReply with the
// request's tag, so this file need not know about frame.Frame.
type replyFrame struct {
	node    types.NodeID
	ep      types.Endpoint
	class   types.CommandClass
	op      types.Op
	payload []byte
}

func (n *simNode) handleBasic(tag uint16, req parsedRequest) []replyFrame {
	n.mu.Lock()
	defer n.mu.Unlock()
	switch req.Op {
	case types.OpBasicSet:
		if len(req.Payload) >= 1 {
			n.basic = types.SwitchValue(req.Payload[0])
		}
		return nil
	case types.OpBasicGet:
		return []replyFrame{{n.rec.ID, req.Endpoint, types.ClassBasic, types.OpBasicReport, []byte{byte(n.basic)}}}
	default:
		return nil
	}
}

func (n *simNode) handleBinarySwitch(tag uint16, req parsedRequest) []replyFrame {
	n.mu.Lock()
	defer n.mu.Unlock()
	switch req.Op {
	case types.OpBinarySwitchSet:
		if len(req.Payload) >= 1 {
			n.binarySwitch = types.SwitchValue(req.Payload[0])
		}
		return nil
	case types.OpBinarySwitchGet:
		return []replyFrame{{n.rec.ID, req.Endpoint, types.ClassBinarySwitch, types.OpBinarySwitchReport, []byte{byte(n.binarySwitch)}}}
	default:
		return nil
	}
}

func (n *simNode) handleMultilevelSwitch(tag uint16, req parsedRequest) []replyFrame {
	switch req.Op {
	case types.OpMultilevelSwitchSet:
		if len(req.Payload) >= 1 {
			n.startRamp(types.SwitchValue(req.Payload[0]))
		}
		return nil
	case types.OpMultilevelSwitchGet:
		n.mu.Lock()
		v := n.multilevel
		n.mu.Unlock()
		return []replyFrame{{n.rec.ID, req.Endpoint, types.ClassMultilevelSwitch, types.OpMultilevelSwitchReport, []byte{byte(v)}}}
	case types.OpMultilevelSwitchStartChange:
		// Mirrors codec.EncodeMultilevelSwitchStartChange's bit layout:
		// bit 6 of the first payload byte set means ramp down.
		target := types.SwitchMax
		if len(req.Payload) >= 1 && req.Payload[0]&0x40 != 0 {
			target = types.SwitchOff
		}
		n.startRamp(target)
		return nil
	case types.OpMultilevelSwitchStopChange:
		n.stopRamp()
		return nil
	default:
		return nil
	}
}

// startRamp drives the node's level from its current value to target over
// roughly a second, using x/ramp.StartLinear the way the teacher's own
// dimming fixtures would, one goroutine per in-progress ramp. Starting a
// new ramp cancels any ramp already running.
func (n *simNode) startRamp(target types.SwitchValue) {
	n.stopRamp()

	n.mu.Lock()
	cur := n.multilevel
	cancel := make(chan struct{})
	n.rampCancel = cancel
	n.mu.Unlock()

	go ramp.StartLinear(uint16(cur), uint16(target), uint16(types.SwitchMax), 1000, 20,
		func(d time.Duration) bool {
			t := time.NewTimer(d)
			defer t.Stop()
			select {
			case <-cancel:
				return false
			case <-t.C:
				return true
			}
		},
		func(level uint16) {
			n.mu.Lock()
			n.multilevel = types.SwitchValue(level)
			n.mu.Unlock()
		},
	)
}

func (n *simNode) stopRamp() {
	n.mu.Lock()
	cancel := n.rampCancel
	n.rampCancel = nil
	n.mu.Unlock()
	if cancel != nil {
		close(cancel)
	}
}
