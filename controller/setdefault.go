package controller

import (
	"github.com/jangala-dev/zwavehost/errcode"
	"github.com/jangala-dev/zwavehost/frame"
	"github.com/jangala-dev/zwavehost/types"
)

const setDefaultTimeoutMs = 10_000

type setDefaultOp struct {
	cb       func(code errcode.Code)
	snapshot map[types.NodeID]*types.NodeRecord
	deadline int64
}

// SetDefault issues the radio's factory-reset command and, on success,
// wipes the node cache and persisted blob (spec.md §4.C). cb fires once,
// either on completion or immediately with errcode.Busy if another
// operation is already in flight.
func (ctl *Controller) SetDefault(cb func(code errcode.Code)) {
	if !ctl.begin(StateSetDefaultInProgress) {
		if cb != nil {
			cb(errcode.Busy)
		}
		return
	}
	ctl.setDefault = setDefaultOp{
		cb:       cb,
		snapshot: ctl.cache.Snapshot(),
		deadline: ctl.now() + setDefaultTimeoutMs,
	}
	if err := ctl.tx.Send(encodeSetDefault(), frame.TypeRequest, ctl.HandleFrame); err != nil {
		ctl.failSetDefault(errcode.Of(err))
	}
}

func (ctl *Controller) procSetDefault(nowMs int64) {
	if nowMs >= ctl.setDefault.deadline {
		ctl.failSetDefault(errcode.Timeout)
	}
}

func (ctl *Controller) completeSetDefault(ok bool) {
	if !ok {
		ctl.failSetDefault(errcode.RadioFailure)
		return
	}
	if err := ctl.cache.Reset(ctl.storeReset); err != nil {
		ctl.log.Errorf("controller: store reset failed after set_default: %v", err)
	}
	cb := ctl.setDefault.cb
	ctl.finish()
	if cb != nil {
		cb(errcode.OK)
	}
}

func (ctl *Controller) failSetDefault(code errcode.Code) {
	ctl.cache.Restore(ctl.setDefault.snapshot)
	cb := ctl.setDefault.cb
	ctl.finish()
	if cb != nil {
		cb(code)
	}
}
