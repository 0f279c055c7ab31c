package host

import (
	"github.com/jangala-dev/zwavehost/cache"
	"github.com/jangala-dev/zwavehost/codec"
	"github.com/jangala-dev/zwavehost/controller"
	"github.com/jangala-dev/zwavehost/errcode"
	"github.com/jangala-dev/zwavehost/event"
	"github.com/jangala-dev/zwavehost/frame"
	"github.com/jangala-dev/zwavehost/logging"
	"github.com/jangala-dev/zwavehost/session"
)

// Host wires the framing, session, cache and controller layers into the one
// object a calling application drives (spec.md §5, §6): construct it once
// with Init, call Proc on every tick of the host's own loop, and use the
// methods in api.go to issue commands.
type Host struct {
	opts Options
	log  logging.Logger

	transport *frame.Transport
	sessions  *session.Table
	cache     *cache.Cache
	ctl       *controller.Controller

	events *event.Bus
	conn   *event.Connection
}

// Init validates opts and brings every layer up: the node cache loads from
// the host's store, the controller is wired to a channel-prefixing sender,
// and the retained controller-state topic gets its first value. No radio
// traffic happens here beyond what Cache.Load's callback does.
func Init(opts Options) (*Host, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	log := opts.Logger

	transport := frame.NewTransport(opts.UARTRead, opts.UARTWrite, opts.UARTReset, opts.Now, log)
	sessions := session.New(log)
	if opts.SessionTimeoutMs > 0 {
		sessions.SetDefaultTimeout(opts.SessionTimeoutMs)
	}
	nodeCache := cache.New(log)
	nodeCache.Load(opts.StoreLoad, opts.StoreSave)

	bus := event.NewBus(0)
	conn := bus.NewConnection("host")

	h := &Host{
		opts:      opts,
		log:       log,
		transport: transport,
		sessions:  sessions,
		cache:     nodeCache,
		events:    bus,
		conn:      conn,
	}
	h.ctl = controller.New(&controlSender{h: h}, nodeCache, opts.StoreReset, opts.Now, log)
	h.publishControllerState()

	log.Infof("host: initialized with %d cached node(s)", nodeCache.Len())
	return h, nil
}

// Shutdown fails every outstanding session and tears down event
// subscriptions. It does not touch the persisted store: a restart should
// resume from whatever the cache last wrote.
func (h *Host) Shutdown() {
	h.sessions.CancelAll(errcode.Cancelled)
	h.conn.Disconnect()
}

// Proc drives one tick of the cooperative core (spec.md §5): pump any bytes
// waiting on the wire, expire overdue sessions, and advance whichever
// controller FSM is active. Call this at roughly 1kHz.
func (h *Host) Proc(nowMs int64) {
	before := h.ctl.State()
	h.transport.PumpFrame(h.dispatch)
	h.sessions.Proc(nowMs)

	h.ctl.Proc(nowMs)
	if h.ctl.State() != before {
		h.publishControllerState()
	}
}

// Events returns the connection a caller can subscribe on to observe node
// inventory and controller-state changes (spec.md's supplemented
// observability surface).
func (h *Host) Events() *event.Connection { return h.conn }

func (h *Host) publishControllerState() {
	h.conn.Publish(event.ControllerStateEvent(h.events, h.ctl.State().String()))
}

// dispatch is the inbound path for frames arriving outside of a Send call
// (the normal case, driven by Proc's PumpFrame). It always resolves the
// control channel to the controller directly, since at most one
// network-management dialogue is ever active.
func (h *Host) dispatch(f frame.Frame) {
	h.routeInbound(f, nil)
}

// routeInbound strips the leading channel byte (host/protocol.go) and hands
// the rest to either the controller or the application-frame path. During a
// Sender.Send call in progress, ctrlDeliver is the FSM's own HandleFrame so
// a reply racing the ack still reaches the state machine that is waiting
// for it; outside of that window ctrlDeliver is nil and the controller's
// current HandleFrame is used directly.
func (h *Host) routeInbound(f frame.Frame, ctrlDeliver func(frame.Frame)) {
	if len(f.Payload) < 1 {
		return
	}
	ch := channel(f.Payload[0])
	body := f.Payload[1:]

	switch ch {
	case channelControl:
		inner := frame.Frame{Type: f.Type, Payload: body}
		if ctrlDeliver != nil {
			ctrlDeliver(inner)
		} else {
			h.ctl.HandleFrame(inner)
		}
	case channelApplication:
		h.handleApplicationFrame(body)
	default:
		h.log.Warnf("host: dropped frame with unrecognized channel byte 0x%02x", ch)
	}
}

// handleApplicationFrame parses one inbound application-channel frame,
// decodes its report and routes it to the session awaiting it (spec.md
// §4.B's two matching rules, tag first then destination), falling back to
// an unsolicited event publish when nothing claims it.
func (h *Host) handleApplicationFrame(body []byte) {
	env, err := parseApplicationFrame(body)
	if err != nil {
		h.log.Warnf("host: dropped malformed application frame: %v", err)
		return
	}

	report, reportsToFollow, err := codec.Decode(env.Class, env.Op, env.Payload)
	if err != nil {
		if codec.Registered(env.Class, env.Op) {
			h.log.Warnf("host: failed to decode class 0x%02x op 0x%02x from node %d: %v", env.Class, env.Op, env.Node, err)
		} else {
			h.log.Debugf("host: no decoder for class 0x%02x op 0x%02x from node %d", env.Class, env.Op, env.Node)
		}
		return
	}
	multiPart := reportsToFollow != nil
	moreToFollow := multiPart && *reportsToFollow > 0

	if env.Tag != 0 {
		if rec, ok := h.sessions.MatchTag(env.Tag); ok {
			h.sessions.Deliver(rec, report, errcode.OK, moreToFollow, multiPart)
			return
		}
	}

	dest := session.Dest{Node: env.Node, Endpoint: env.Endpoint, Class: env.Class}
	if rec, ok := h.sessions.MatchUnsolicited(dest); ok {
		h.sessions.Deliver(rec, report, errcode.OK, moreToFollow, multiPart)
		return
	}

	h.conn.Publish(event.UnsolicitedReportEvent(h.events, env.Node, env.Endpoint, env.Class, report))
}

// controlSender adapts Host to controller.Sender: it prefixes every
// outbound frame with channelControl and demultiplexes whatever arrives
// while the send is in flight back through routeInbound, so application
// traffic racing a network-management dialogue is not lost or misrouted
// to the controller.
type controlSender struct{ h *Host }

func (s *controlSender) Send(payload []byte, typ frame.Type, deliverInbound func(frame.Frame)) error {
	out := make([]byte, 0, 1+len(payload))
	out = append(out, byte(channelControl))
	out = append(out, payload...)
	return s.h.transport.Send(out, typ, func(f frame.Frame) {
		s.h.routeInbound(f, deliverInbound)
	})
}
