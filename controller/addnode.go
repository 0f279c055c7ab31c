package controller

import (
	"github.com/jangala-dev/zwavehost/errcode"
	"github.com/jangala-dev/zwavehost/frame"
	"github.com/jangala-dev/zwavehost/types"
)

const addNodeTimeoutMs = 30_000 // inclusion windows run tens of seconds

type addNodeOp struct {
	cb       func(node *types.NodeRecord, code errcode.Code)
	deadline int64
	broke    bool
}

// AddNode drives a learn-mode inclusion dialogue (spec.md §4.C): starts
// inclusion, waits for the radio to report a node's NIF, assigns it into
// the cache, stops inclusion. cb fires exactly once.
func (ctl *Controller) AddNode(cb func(node *types.NodeRecord, code errcode.Code)) {
	if !ctl.begin(StateAddingNode) {
		if cb != nil {
			cb(nil, errcode.Busy)
		}
		return
	}
	ctl.addNode = addNodeOp{cb: cb, deadline: ctl.now() + addNodeTimeoutMs}
	if err := ctl.tx.Send(encodeAddNodeStart(), frame.TypeRequest, ctl.HandleFrame); err != nil {
		ctl.completeAddNode(nil, errcode.Of(err))
	}
}

// BreakAddNode aborts an in-progress inclusion (spec.md §4.C "a break-in-
// progress call aborts"). No-op if no inclusion is active.
func (ctl *Controller) BreakAddNode() {
	if ctl.state != StateAddingNode || ctl.addNode.broke {
		return
	}
	ctl.addNode.broke = true
	_ = ctl.tx.Send(encodeAddNodeStop(), frame.TypeRequest, ctl.HandleFrame)
	ctl.completeAddNode(nil, errcode.Cancelled)
}

func (ctl *Controller) procAddNode(nowMs int64) {
	if nowMs >= ctl.addNode.deadline {
		ctl.completeAddNode(nil, errcode.Timeout)
	}
}

func (ctl *Controller) completeAddNode(rec *types.NodeRecord, code errcode.Code) {
	if rec != nil {
		ctl.cache.Put(rec)
	}
	if !ctl.addNode.broke {
		_ = ctl.tx.Send(encodeAddNodeStop(), frame.TypeRequest, ctl.HandleFrame)
	}
	cb := ctl.addNode.cb
	ctl.finish()
	if cb != nil {
		cb(rec, code)
	}
}
