package controller

import (
	"github.com/jangala-dev/zwavehost/errcode"
	"github.com/jangala-dev/zwavehost/frame"
	"github.com/jangala-dev/zwavehost/types"
)

const listNodesTimeoutMs = 5_000

type listNodesOp struct {
	cb       func(node *types.NodeRecord, code errcode.Code)
	deadline int64
}

// ListNodes requests the radio's node mask and, for each present node id,
// invokes cb once with that node's cached record (never fetched over the
// air, spec.md §4.C), followed by one final invocation with a nil record
// to terminate the sequence.
func (ctl *Controller) ListNodes(cb func(node *types.NodeRecord, code errcode.Code)) {
	if !ctl.begin(StateListingNodes) {
		if cb != nil {
			cb(nil, errcode.Busy)
		}
		return
	}
	ctl.listNodes = listNodesOp{cb: cb, deadline: ctl.now() + listNodesTimeoutMs}
	if err := ctl.tx.Send(encodeNodeMaskGet(), frame.TypeRequest, ctl.HandleFrame); err != nil {
		ctl.failListNodes(errcode.Of(err))
	}
}

func (ctl *Controller) deliverNodeList(ids []types.NodeID) {
	cb := ctl.listNodes.cb
	ctl.finish()
	if cb == nil {
		return
	}
	for _, id := range ids {
		rec, _ := ctl.cache.Get(id)
		if rec == nil {
			continue
		}
		cb(rec, errcode.OK)
	}
	cb(nil, errcode.OK)
}

func (ctl *Controller) failListNodes(code errcode.Code) {
	cb := ctl.listNodes.cb
	ctl.finish()
	if cb != nil {
		cb(nil, code)
	}
}
