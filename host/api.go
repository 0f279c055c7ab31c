package host

import (
	"fmt"

	"github.com/jangala-dev/zwavehost/codec"
	"github.com/jangala-dev/zwavehost/controller"
	"github.com/jangala-dev/zwavehost/errcode"
	"github.com/jangala-dev/zwavehost/event"
	"github.com/jangala-dev/zwavehost/frame"
	"github.com/jangala-dev/zwavehost/session"
	"github.com/jangala-dev/zwavehost/types"
)

// SetDefault issues a factory reset (spec.md §4.C). Per §4.B, a controller-
// wide reset drains every outstanding session with errcode.Cancelled before
// the radio dialogue even starts, since those sessions' destinations are
// about to be wiped from the cache anyway.
func (h *Host) SetDefault(cb func(code errcode.Code)) {
	if h.ctl.State() != controller.StateIdle {
		if cb != nil {
			cb(errcode.Busy)
		}
		return
	}
	h.sessions.CancelAll(errcode.Cancelled)
	h.ctl.SetDefault(cb)
	h.publishControllerState()
}

// NodeAdd starts inclusion (spec.md §4.C). On success the new node's record
// is also published as a retained event.NodeAddedTopic snapshot.
func (h *Host) NodeAdd(cb func(node *types.NodeRecord, code errcode.Code)) {
	h.ctl.AddNode(func(node *types.NodeRecord, code errcode.Code) {
		if node != nil {
			h.conn.Publish(event.NodeAddedEvent(h.events, node))
		}
		if cb != nil {
			cb(node, code)
		}
	})
	h.publishControllerState()
}

// NodeAddBreak aborts an in-progress inclusion.
func (h *Host) NodeAddBreak() { h.ctl.BreakAddNode() }

// NodeRem starts exclusion (spec.md §4.C).
func (h *Host) NodeRem(cb func(node *types.NodeRecord, code errcode.Code)) {
	h.ctl.RemoveNode(func(node *types.NodeRecord, code errcode.Code) {
		if node != nil {
			h.conn.Publish(event.NodeRemovedEvent(h.events, node.ID))
		}
		if cb != nil {
			cb(node, code)
		}
	})
	h.publishControllerState()
}

// NodeRemBreak cancels an exclusion window that hasn't seen a node yet.
func (h *Host) NodeRemBreak() { h.ctl.BreakRemoveNode() }

// NodeList enumerates the cached inventory via the radio's node mask
// (spec.md §4.C); cb fires once per node, then once more with a nil record.
func (h *Host) NodeList(cb func(node *types.NodeRecord, code errcode.Code)) {
	h.ctl.ListNodes(cb)
	h.publishControllerState()
}

// NodeInfo answers the public node_info query directly from the cache
// (spec.md §4.E: "Reads: ... by the public node_info query"), never over
// the air.
func (h *Host) NodeInfo(id types.NodeID) (*types.NodeRecord, bool) {
	return h.cache.Get(id)
}

// deliverTyped adapts a typed result callback to session.Callback: the
// codec hands back a decoded value of T (not *T, matching the value types
// in types/reports.go), and the multi-part terminator (nil payload) is
// forwarded as a nil *T.
func deliverTyped[T any](cb func(*T, errcode.Code)) session.Callback {
	return func(payload any, code errcode.Code) {
		if cb == nil {
			return
		}
		if payload == nil {
			cb(nil, code)
			return
		}
		v, ok := payload.(T)
		if !ok {
			cb(nil, errcode.Unknown)
			return
		}
		cb(&v, code)
	}
}

// submitGet allocates a session, sends the request, and blocks (bounded by
// the transport's retry budget, spec.md §5) until the frame is acked; the
// eventual report arrives later on a Proc tick via cb. Invalid arguments
// and duplicate in-flight requests are rejected synchronously, before any
// wire traffic, per spec.md §7.
func submitGet[T any](h *Host, node types.NodeID, ep types.Endpoint, class types.CommandClass, key string, payload []byte, cb func(*T, errcode.Code)) {
	if err := types.CheckNode(node); err != nil {
		if cb != nil {
			cb(nil, errcode.Of(err))
		}
		return
	}
	if err := types.CheckEndpoint(ep); err != nil {
		if cb != nil {
			cb(nil, errcode.Of(err))
		}
		return
	}
	dest := session.Dest{Node: node, Endpoint: ep, Class: class}
	tag, err := h.sessions.Submit(dest, key, deliverTyped(cb), h.opts.Now(), 0)
	if err != nil {
		if cb != nil {
			cb(nil, errcode.Of(err))
		}
		return
	}
	frameBytes, err := buildApplicationFrame(tag, node, ep, class, payload)
	if err != nil {
		h.failSession(tag, errcode.Of(err))
		return
	}
	if err := h.transport.Send(frameBytes, frame.TypeRequest, h.dispatch); err != nil {
		h.failSession(tag, errcode.Of(err))
	}
}

func (h *Host) failSession(tag uint16, code errcode.Code) {
	if rec, ok := h.sessions.MatchTag(tag); ok {
		h.sessions.Fail(rec, code)
	}
}

// sendSet transmits a command with no expected report (spec.md §8 scenario
// 1: "no callback fires (set has no report)" at the radio level); cb, if
// given, is invoked once with the outcome of getting the frame onto the
// wire (acked or not) rather than with any report.
func sendSet(h *Host, node types.NodeID, ep types.Endpoint, class types.CommandClass, payload []byte, cb func(code errcode.Code)) {
	if err := types.CheckNode(node); err != nil {
		if cb != nil {
			cb(errcode.Of(err))
		}
		return
	}
	if err := types.CheckEndpoint(ep); err != nil {
		if cb != nil {
			cb(errcode.Of(err))
		}
		return
	}
	frameBytes, err := buildApplicationFrame(0, node, ep, class, payload)
	if err != nil {
		if cb != nil {
			cb(errcode.Of(err))
		}
		return
	}
	err = h.transport.Send(frameBytes, frame.TypeRequest, h.dispatch)
	if cb != nil {
		cb(errcode.Of(err))
	}
}

// ---- Basic (0x20) ----

func (h *Host) BasicSet(node types.NodeID, ep types.Endpoint, req types.BasicSet, cb func(errcode.Code)) {
	payload, err := codec.EncodeBasicSet(req)
	if err != nil {
		if cb != nil {
			cb(errcode.Of(err))
		}
		return
	}
	sendSet(h, node, ep, types.ClassBasic, payload, cb)
}

func (h *Host) BasicGet(node types.NodeID, ep types.Endpoint, cb func(*types.BasicReport, errcode.Code)) {
	payload, _ := codec.EncodeBasicGet(types.BasicGet{})
	submitGet(h, node, ep, types.ClassBasic, "", payload, cb)
}

// ---- Binary Switch (0x25) ----

func (h *Host) BinarySwitchSet(node types.NodeID, ep types.Endpoint, req types.BinarySwitchSet, cb func(errcode.Code)) {
	payload, err := codec.EncodeBinarySwitchSet(req)
	if err != nil {
		if cb != nil {
			cb(errcode.Of(err))
		}
		return
	}
	sendSet(h, node, ep, types.ClassBinarySwitch, payload, cb)
}

func (h *Host) BinarySwitchGet(node types.NodeID, ep types.Endpoint, cb func(*types.BinarySwitchReport, errcode.Code)) {
	payload, _ := codec.EncodeBinarySwitchGet(types.BinarySwitchGet{})
	submitGet(h, node, ep, types.ClassBinarySwitch, "", payload, cb)
}

// ---- Multilevel Switch (0x26) ----

func (h *Host) MultilevelSwitchSet(node types.NodeID, ep types.Endpoint, req types.MultilevelSwitchSet, cb func(errcode.Code)) {
	payload, err := codec.EncodeMultilevelSwitchSet(req)
	if err != nil {
		if cb != nil {
			cb(errcode.Of(err))
		}
		return
	}
	sendSet(h, node, ep, types.ClassMultilevelSwitch, payload, cb)
}

func (h *Host) MultilevelSwitchGet(node types.NodeID, ep types.Endpoint, cb func(*types.MultilevelSwitchReport, errcode.Code)) {
	payload, _ := codec.EncodeMultilevelSwitchGet(types.MultilevelSwitchGet{})
	submitGet(h, node, ep, types.ClassMultilevelSwitch, "", payload, cb)
}

func (h *Host) MultilevelSwitchStartChange(node types.NodeID, ep types.Endpoint, req types.MultilevelSwitchStartChange, cb func(errcode.Code)) {
	payload, err := codec.EncodeMultilevelSwitchStartChange(req)
	if err != nil {
		if cb != nil {
			cb(errcode.Of(err))
		}
		return
	}
	sendSet(h, node, ep, types.ClassMultilevelSwitch, payload, cb)
}

func (h *Host) MultilevelSwitchStopChange(node types.NodeID, ep types.Endpoint, cb func(errcode.Code)) {
	payload, _ := codec.EncodeMultilevelSwitchStopChange(types.MultilevelSwitchStopChange{})
	sendSet(h, node, ep, types.ClassMultilevelSwitch, payload, cb)
}

// ---- Meter (0x32) ----

func (h *Host) MeterGet(node types.NodeID, ep types.Endpoint, req types.MeterGet, cb func(*types.MeterReport, errcode.Code)) {
	payload, _ := codec.EncodeMeterGet(req)
	submitGet(h, node, ep, types.ClassMeter, fmt.Sprintf("scale=%d", req.ScaleBits), payload, cb)
}

func (h *Host) MeterSupportedGet(node types.NodeID, ep types.Endpoint, cb func(*types.MeterSupportedReport, errcode.Code)) {
	payload, _ := codec.EncodeMeterSupportedGet(types.MeterSupportedGet{})
	submitGet(h, node, ep, types.ClassMeter, "supported", payload, cb)
}

func (h *Host) MeterReset(node types.NodeID, ep types.Endpoint, cb func(errcode.Code)) {
	payload, _ := codec.EncodeMeterReset(types.MeterReset{})
	sendSet(h, node, ep, types.ClassMeter, payload, cb)
}

// ---- Multi-Channel (0x60) ----

func (h *Host) MultiChannelEndpointGet(node types.NodeID, cb func(*types.MultiChannelEndpointReport, errcode.Code)) {
	payload, _ := codec.EncodeMultiChannelEndpointGet(types.MultiChannelEndpointGet{})
	submitGet(h, node, types.EndpointRoot, types.ClassMultiChannel, "endpoint_get", payload, cb)
}

func (h *Host) MultiChannelCapabilityGet(node types.NodeID, req types.MultiChannelCapabilityGet, cb func(*types.MultiChannelCapabilityReport, errcode.Code)) {
	payload, err := codec.EncodeMultiChannelCapabilityGet(req)
	if err != nil {
		if cb != nil {
			cb(nil, errcode.Of(err))
		}
		return
	}
	submitGet(h, node, types.EndpointRoot, types.ClassMultiChannel, fmt.Sprintf("cap=%d", req.Endpoint), payload, cb)
}

func (h *Host) MultiChannelEndpointFind(node types.NodeID, req types.MultiChannelEndpointFind, cb func(*types.MultiChannelEndpointFindReport, errcode.Code)) {
	payload, _ := codec.EncodeMultiChannelEndpointFind(req)
	key := fmt.Sprintf("find=%d,%d", req.GenericClass, req.SpecificClass)
	submitGet(h, node, types.EndpointRoot, types.ClassMultiChannel, key, payload, cb)
}

func (h *Host) MultiChannelAggregatedMembersGet(node types.NodeID, req types.MultiChannelAggregatedMembersGet, cb func(*types.MultiChannelAggregatedMembersReport, errcode.Code)) {
	payload, err := codec.EncodeMultiChannelAggregatedMembersGet(req)
	if err != nil {
		if cb != nil {
			cb(nil, errcode.Of(err))
		}
		return
	}
	submitGet(h, node, types.EndpointRoot, types.ClassMultiChannel, fmt.Sprintf("agg=%d", req.AggregatedEndpoint), payload, cb)
}

// ---- Configuration (0x70) ----

func (h *Host) ConfigurationSet(node types.NodeID, ep types.Endpoint, req types.ConfigurationSet, cb func(errcode.Code)) {
	payload, err := codec.EncodeConfigurationSet(req)
	if err != nil {
		if cb != nil {
			cb(errcode.Of(err))
		}
		return
	}
	sendSet(h, node, ep, types.ClassConfiguration, payload, cb)
}

func (h *Host) ConfigurationGet(node types.NodeID, ep types.Endpoint, req types.ConfigurationGet, cb func(*types.ConfigurationReport, errcode.Code)) {
	payload, _ := codec.EncodeConfigurationGet(req)
	submitGet(h, node, ep, types.ClassConfiguration, fmt.Sprintf("get=%d", req.Parameter), payload, cb)
}

func (h *Host) ConfigurationBulkSet(node types.NodeID, ep types.Endpoint, req types.ConfigurationBulkSet, cb func(errcode.Code)) {
	payload, err := codec.EncodeConfigurationBulkSet(req)
	if err != nil {
		if cb != nil {
			cb(errcode.Of(err))
		}
		return
	}
	sendSet(h, node, ep, types.ClassConfiguration, payload, cb)
}

func (h *Host) ConfigurationBulkGet(node types.NodeID, ep types.Endpoint, req types.ConfigurationBulkGet, cb func(*types.ConfigurationBulkReport, errcode.Code)) {
	payload, _ := codec.EncodeConfigurationBulkGet(req)
	key := fmt.Sprintf("bulk=%d,%d", req.FirstParameter, req.Count)
	submitGet(h, node, ep, types.ClassConfiguration, key, payload, cb)
}

func (h *Host) ConfigurationNameGet(node types.NodeID, ep types.Endpoint, req types.ConfigurationNameGet, cb func(*types.ConfigurationNameReport, errcode.Code)) {
	payload, _ := codec.EncodeConfigurationNameGet(req)
	submitGet(h, node, ep, types.ClassConfiguration, fmt.Sprintf("name=%d", req.Parameter), payload, cb)
}

func (h *Host) ConfigurationInfoGet(node types.NodeID, ep types.Endpoint, req types.ConfigurationInfoGet, cb func(*types.ConfigurationInfoReport, errcode.Code)) {
	payload, _ := codec.EncodeConfigurationInfoGet(req)
	submitGet(h, node, ep, types.ClassConfiguration, fmt.Sprintf("info=%d", req.Parameter), payload, cb)
}

func (h *Host) ConfigurationPropertiesGet(node types.NodeID, ep types.Endpoint, req types.ConfigurationPropertiesGet, cb func(*types.ConfigurationPropertiesReport, errcode.Code)) {
	payload, _ := codec.EncodeConfigurationPropertiesGet(req)
	submitGet(h, node, ep, types.ClassConfiguration, fmt.Sprintf("props=%d", req.Parameter), payload, cb)
}

func (h *Host) ConfigurationDefaultReset(node types.NodeID, ep types.Endpoint, cb func(errcode.Code)) {
	payload, _ := codec.EncodeConfigurationDefaultReset(types.ConfigurationDefaultReset{})
	sendSet(h, node, ep, types.ClassConfiguration, payload, cb)
}

// ---- Version (0x86) ----

func (h *Host) VersionGet(node types.NodeID, cb func(*types.VersionReport, errcode.Code)) {
	payload, _ := codec.EncodeVersionGet(types.VersionGet{})
	submitGet(h, node, types.EndpointRoot, types.ClassVersion, "version", payload, cb)
}

func (h *Host) CommandClassVersionGet(node types.NodeID, req types.CommandClassVersionGet, cb func(*types.CommandClassVersionReport, errcode.Code)) {
	payload, _ := codec.EncodeCommandClassVersionGet(req)
	submitGet(h, node, types.EndpointRoot, types.ClassVersion, fmt.Sprintf("cc_version=%d", req.Class), payload, cb)
}

// ---- Manufacturer / Device Specific (0x72) ----

func (h *Host) ManufacturerSpecificGet(node types.NodeID, cb func(*types.ManufacturerSpecificReport, errcode.Code)) {
	payload, _ := codec.EncodeManufacturerSpecificGet(types.ManufacturerSpecificGet{})
	submitGet(h, node, types.EndpointRoot, types.ClassManufacturerSpec, "manufacturer", payload, cb)
}

func (h *Host) DeviceSpecificGet(node types.NodeID, req types.DeviceSpecificGet, cb func(*types.DeviceSpecificReport, errcode.Code)) {
	payload, _ := codec.EncodeDeviceSpecificGet(req)
	submitGet(h, node, types.EndpointRoot, types.ClassDeviceSpecific, fmt.Sprintf("device_id=%d", req.IDType), payload, cb)
}

// ---- Z-Wave Plus Info (0x5E) ----

func (h *Host) ZWavePlusInfoGet(node types.NodeID, cb func(*types.ZWavePlusInfoReport, errcode.Code)) {
	payload, _ := codec.EncodeZWavePlusInfoGet(types.ZWavePlusInfoGet{})
	submitGet(h, node, types.EndpointRoot, types.ClassZWavePlusInfo, "plus_info", payload, cb)
}
