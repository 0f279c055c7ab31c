package controller

import (
	"github.com/jangala-dev/zwavehost/errcode"
	"github.com/jangala-dev/zwavehost/frame"
	"github.com/jangala-dev/zwavehost/logging"

	"github.com/jangala-dev/zwavehost/cache"
)

// State is the controller's single scalar state variable (spec.md §3):
// only one network-level operation may be active at a time.
type State uint8

const (
	StateIdle State = iota
	StateSetDefaultInProgress
	StateAddingNode
	StateRemovingNode
	StateListingNodes
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSetDefaultInProgress:
		return "set_default"
	case StateAddingNode:
		return "adding_node"
	case StateRemovingNode:
		return "removing_node"
	case StateListingNodes:
		return "listing_nodes"
	default:
		return "unknown"
	}
}

// Sender is the narrow part of *frame.Transport the controller depends
// on, so tests can substitute a fake.
type Sender interface {
	Send(payload []byte, typ frame.Type, deliverInbound func(frame.Frame)) error
}

// Controller drives the four network-management FSMs against the radio
// (spec.md §4.C), gated by the single state field so only one may run at
// a time.
type Controller struct {
	log        logging.Logger
	cache      *cache.Cache
	tx         Sender
	now        func() int64
	storeReset cache.StoreResetFunc

	state State

	setDefault setDefaultOp
	addNode    addNodeOp
	removeNode removeNodeOp
	listNodes  listNodesOp
}

func New(tx Sender, c *cache.Cache, storeReset cache.StoreResetFunc, now func() int64, log logging.Logger) *Controller {
	if log == nil {
		log = logging.Discard{}
	}
	return &Controller{tx: tx, cache: c, storeReset: storeReset, now: now, log: log}
}

// State reports the controller's current state.
func (ctl *Controller) State() State { return ctl.state }

// begin attempts to claim the controller for a new operation, failing
// immediately if one is already in flight (spec.md §3, §4.C).
func (ctl *Controller) begin(s State) bool {
	if ctl.state != StateIdle {
		return false
	}
	ctl.state = s
	return true
}

func (ctl *Controller) finish() { ctl.state = StateIdle }

// Proc drives deadline checks for whichever FSM is active. Call once per
// host Proc() tick (spec.md §5).
func (ctl *Controller) Proc(nowMs int64) {
	switch ctl.state {
	case StateSetDefaultInProgress:
		ctl.procSetDefault(nowMs)
	case StateAddingNode:
		ctl.procAddNode(nowMs)
	case StateRemovingNode:
		ctl.procRemoveNode(nowMs)
	case StateListingNodes:
		if nowMs >= ctl.listNodes.deadline {
			ctl.failListNodes(errcode.Timeout)
		}
	}
}

// HandleFrame offers an inbound network-management frame to whichever FSM
// is active. It returns true if the frame was one this package recognizes
// and consumed, false otherwise.
func (ctl *Controller) HandleFrame(f frame.Frame) bool {
	if len(f.Payload) < 1 {
		return false
	}
	op := ctrlOp(f.Payload[0])
	payload := f.Payload[1:]
	switch ctl.state {
	case StateSetDefaultInProgress:
		if op == opSetDefaultDone {
			ctl.completeSetDefault(decodeSetDefaultDone(payload))
			return true
		}
	case StateAddingNode:
		switch op {
		case opNodeFound:
			ctl.log.Debugf("controller: add-node saw a node present itself")
			return true
		case opNodeInfo:
			if rec, ok := decodeNodeInfo(payload); ok {
				ctl.completeAddNode(rec, errcode.OK)
			}
			return true
		}
	case StateRemovingNode:
		if op == opNodeRemoved {
			if id, ok := decodeNodeRemoved(payload); ok {
				ctl.completeRemoveNode(id, errcode.OK)
			}
			return true
		}
	case StateListingNodes:
		if op == opNodeMaskReport {
			if ids, ok := decodeNodeMaskReport(payload); ok {
				ctl.deliverNodeList(ids)
			}
			return true
		}
	}
	return false
}
