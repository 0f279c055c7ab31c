package main

import (
	"sync"
	"time"

	"github.com/jangala-dev/zwavehost/faketransport"
	"github.com/jangala-dev/zwavehost/frame"
	"github.com/jangala-dev/zwavehost/types"
)

// fakeRadio plays the device side of both dialogues the host speaks: the
// controller's network-management ops (set_default, add/remove node,
// list nodes) and per-node Command-Class traffic. It drives a
// faketransport.Pipe/FakeRadio pair on its own ticking goroutine, so a
// demo run needs no real serial port.
type fakeRadio struct {
	pipe  *faketransport.Pipe
	radio *faketransport.FakeRadio

	mu      sync.Mutex
	nodes   map[types.NodeID]*simNode
	nextID  types.NodeID
	inclCh  chan struct{} // non-nil while an add-node join is scheduled
	exclCh  chan struct{} // non-nil while a remove-node join is scheduled
	stopped chan struct{}
}

func newFakeRadio() *fakeRadio {
	pipe := faketransport.NewPipe()
	return &fakeRadio{
		pipe:    pipe,
		radio:   faketransport.NewFakeRadio(pipe),
		nodes:   map[types.NodeID]*simNode{},
		nextID:  2, // id 1 is conventionally the controller itself
		stopped: make(chan struct{}),
	}
}

// uartRead/uartWrite/uartReset satisfy frame.ReadFunc/WriteFunc/ResetFunc
// for host.Options, wired to the host side of the in-memory pipe.
func (r *fakeRadio) uartRead(buf []byte) (int, error)  { return r.pipe.HostRead(buf) }
func (r *fakeRadio) uartWrite(data []byte) error       { return r.pipe.HostWrite(data) }
func (r *fakeRadio) uartReset() error                  { return nil } // nothing to resync in memory

// run ticks the simulated radio until stop is called: drain whatever the
// host sent, reply to anything this device model understands.
func (r *fakeRadio) run() {
	ticker := time.NewTicker(2 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-r.stopped:
			return
		case <-ticker.C:
			for _, f := range r.radio.Step() {
				r.handleFrame(f)
			}
		}
	}
}

func (r *fakeRadio) stop() { close(r.stopped) }

func (r *fakeRadio) handleFrame(f frame.Frame) {
	if len(f.Payload) < 1 {
		return
	}
	ch := channel(f.Payload[0])
	body := f.Payload[1:]
	switch ch {
	case channelControl:
		r.handleControl(body)
	case channelApplication:
		r.handleApplication(body)
	}
}

func (r *fakeRadio) handleControl(body []byte) {
	if len(body) < 1 {
		return
	}
	op := ctrlOp(body[0])
	switch op {
	case opSetDefault:
		r.mu.Lock()
		r.nodes = map[types.NodeID]*simNode{}
		r.nextID = 2
		r.mu.Unlock()
		go r.delayedReply(100*time.Millisecond, controlFrame(opSetDefaultDone, 1))
	case opAddNodeStart:
		r.scheduleInclusion()
	case opAddNodeStop:
		r.cancelInclusion()
	case opRemoveNodeStart:
		r.scheduleExclusion()
	case opRemoveNodeStop:
		r.cancelExclusion()
	case opNodeMaskGet:
		r.mu.Lock()
		present := make(map[types.NodeID]bool, len(r.nodes))
		for id := range r.nodes {
			present[id] = true
		}
		r.mu.Unlock()
		go r.delayedReply(20*time.Millisecond, controlFrame(opNodeMaskReport, encodeNodeMaskReport(present)...))
	}
}

func (r *fakeRadio) delayedReply(d time.Duration, f frame.Frame) {
	time.Sleep(d)
	_ = r.radio.Send(f)
}

// scheduleInclusion simulates an operator pressing the "include" button on
// a new device shortly after the host opens the inclusion window.
func (r *fakeRadio) scheduleInclusion() {
	r.mu.Lock()
	ch := make(chan struct{})
	r.inclCh = ch
	r.mu.Unlock()

	go func() {
		t := time.NewTimer(400 * time.Millisecond)
		defer t.Stop()
		select {
		case <-ch:
			return
		case <-t.C:
		}
		r.mu.Lock()
		if r.inclCh != ch {
			r.mu.Unlock()
			return
		}
		id := r.nextID
		r.nextID++
		var n *simNode
		if id%2 == 0 {
			n = newBinarySwitchNode(id)
		} else {
			n = newDimmerNode(id)
		}
		r.nodes[id] = n
		r.mu.Unlock()

		_ = r.radio.Send(controlFrame(opNodeFound))
		time.Sleep(50 * time.Millisecond)
		_ = r.radio.Send(controlFrame(opNodeInfo, encodeNodeInfo(n.rec)...))
	}()
}

func (r *fakeRadio) cancelInclusion() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.inclCh != nil {
		close(r.inclCh)
		r.inclCh = nil
	}
}

// scheduleExclusion simulates an operator presenting the last-joined node
// for removal shortly after the host opens the exclusion window.
func (r *fakeRadio) scheduleExclusion() {
	r.mu.Lock()
	ch := make(chan struct{})
	r.exclCh = ch
	var victim types.NodeID
	for id := range r.nodes {
		if id > victim {
			victim = id
		}
	}
	r.mu.Unlock()

	if victim == 0 {
		return // nothing to remove; the host's own timeout will fire
	}

	go func() {
		t := time.NewTimer(400 * time.Millisecond)
		defer t.Stop()
		select {
		case <-ch:
			return
		case <-t.C:
		}
		r.mu.Lock()
		if r.exclCh != ch {
			r.mu.Unlock()
			return
		}
		delete(r.nodes, victim)
		r.mu.Unlock()
		_ = r.radio.Send(controlFrame(opNodeRemoved, byte(victim)))
	}()
}

func (r *fakeRadio) cancelExclusion() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.exclCh != nil {
		close(r.exclCh)
		r.exclCh = nil
	}
}

func (r *fakeRadio) handleApplication(body []byte) {
	req, ok := parseApplicationRequest(body)
	if !ok {
		return
	}
	r.mu.Lock()
	n := r.nodes[req.Node]
	r.mu.Unlock()
	if n == nil {
		return
	}
	for _, rep := range n.handle(req.Tag, req) {
		_ = r.radio.Send(applicationReply(req.Tag, rep.node, rep.ep, rep.class, rep.op, rep.payload))
	}
}

// encodeNodeInfo mirrors controller/protocol.go's decodeNodeInfo layout:
// node id, device class triple, then the supported command class list.
func encodeNodeInfo(rec *types.NodeRecord) []byte {
	out := []byte{byte(rec.ID), rec.Class.Basic, rec.Class.Generic, rec.Class.Specific}
	for _, cc := range rec.CommandClasses {
		out = append(out, byte(cc))
	}
	return out
}
