package event

import "github.com/jangala-dev/zwavehost/types"

// Topic roots published by the host application (spec.md's "supplemented
// observability" feature: external consumers see inventory and controller
// state changes without polling cache or controller directly).
const (
	rootNode       = "node"
	rootController = "controller"
)

// NodeAddedTopic, NodeRemovedTopic and NodeUpdatedTopic are retained
// per-node topics: node(id)/added, node(id)/removed, node(id)/updated.
func NodeAddedTopic(id types.NodeID) Topic   { return T(rootNode, id, "added") }
func NodeRemovedTopic(id types.NodeID) Topic { return T(rootNode, id, "removed") }
func NodeUpdatedTopic(id types.NodeID) Topic { return T(rootNode, id, "updated") }

// NodeAnyTopic matches every per-node lifecycle event, for a consumer that
// wants the whole inventory stream rather than one node.
func NodeAnyTopic() Topic { return T(rootNode, "+", "+") }

// ControllerStateTopic is the retained topic the host publishes the
// controller's current State to on every transition (spec.md §4.C).
func ControllerStateTopic() Topic { return T(rootController, "state") }

// NodeAddedEvent, NodeRemovedEvent and NodeUpdatedEvent build the retained
// Message a host publishes for the corresponding node lifecycle change.
func NodeAddedEvent(b *Bus, rec *types.NodeRecord) *Message {
	return b.NewMessage(NodeAddedTopic(rec.ID), rec, true)
}

func NodeRemovedEvent(b *Bus, id types.NodeID) *Message {
	return b.NewMessage(NodeRemovedTopic(id), id, true)
}

func NodeUpdatedEvent(b *Bus, rec *types.NodeRecord) *Message {
	return b.NewMessage(NodeUpdatedTopic(rec.ID), rec, true)
}

// ControllerStateEvent builds the retained Message a host publishes on
// every controller state transition.
func ControllerStateEvent(b *Bus, state string) *Message {
	return b.NewMessage(ControllerStateTopic(), state, true)
}

// UnsolicitedReportTopic is where a report is published when no pending
// session claims it (spec.md §4.B: a report with no matching tag or
// destination record is routed to the application path rather than
// dropped). Not retained: a stale reading should not be replayed to a
// subscriber that joins later.
func UnsolicitedReportTopic(node types.NodeID, ep types.Endpoint, class types.CommandClass) Topic {
	return T(rootNode, node, "report", ep, class)
}

func UnsolicitedReportEvent(b *Bus, node types.NodeID, ep types.Endpoint, class types.CommandClass, report any) *Message {
	return b.NewMessage(UnsolicitedReportTopic(node, ep, class), report, false)
}
