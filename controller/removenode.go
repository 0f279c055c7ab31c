package controller

import (
	"github.com/jangala-dev/zwavehost/errcode"
	"github.com/jangala-dev/zwavehost/frame"
	"github.com/jangala-dev/zwavehost/types"
)

const removeNodeTimeoutMs = 30_000

type removeNodeOp struct {
	cb       func(node *types.NodeRecord, code errcode.Code)
	deadline int64
	broke    bool
}

// RemoveNode drives an exclusion dialogue, symmetric to AddNode (spec.md
// §4.C). On success cb receives the removed node's last-known record
// (looked up from cache before eviction) so the caller can report what was
// removed even though the radio reply only carries an id.
func (ctl *Controller) RemoveNode(cb func(node *types.NodeRecord, code errcode.Code)) {
	if !ctl.begin(StateRemovingNode) {
		if cb != nil {
			cb(nil, errcode.Busy)
		}
		return
	}
	ctl.removeNode = removeNodeOp{cb: cb, deadline: ctl.now() + removeNodeTimeoutMs}
	if err := ctl.tx.Send(encodeRemoveNodeStart(), frame.TypeRequest, ctl.HandleFrame); err != nil {
		ctl.completeRemoveNode(types.NodeInvalid, errcode.Of(err))
	}
}

// BreakRemoveNode cancels the exclusion window if no node has presented
// itself yet (spec.md §4.C).
func (ctl *Controller) BreakRemoveNode() {
	if ctl.state != StateRemovingNode || ctl.removeNode.broke {
		return
	}
	ctl.removeNode.broke = true
	_ = ctl.tx.Send(encodeRemoveNodeStop(), frame.TypeRequest, ctl.HandleFrame)
	ctl.completeRemoveNode(types.NodeInvalid, errcode.Cancelled)
}

func (ctl *Controller) procRemoveNode(nowMs int64) {
	if nowMs >= ctl.removeNode.deadline {
		ctl.completeRemoveNode(types.NodeInvalid, errcode.Timeout)
	}
}

func (ctl *Controller) completeRemoveNode(id types.NodeID, code errcode.Code) {
	var rec *types.NodeRecord
	if id != types.NodeInvalid {
		rec, _ = ctl.cache.Get(id)
		ctl.cache.Delete(id)
	}
	if !ctl.removeNode.broke {
		_ = ctl.tx.Send(encodeRemoveNodeStop(), frame.TypeRequest, ctl.HandleFrame)
	}
	cb := ctl.removeNode.cb
	ctl.finish()
	if cb != nil {
		cb(rec, code)
	}
}
