// Package types holds the wire-adjacent value types shared across the
// transport, codec, session, cache and controller packages: node and
// endpoint identifiers, command-class constants, and the typed
// request/report payloads for each supported command class (spec.md §3, §4.D).
package types

import "github.com/jangala-dev/zwavehost/errcode"

// NodeID identifies a node in the mesh. Valid range is [1, 232]; 0 means
// "broadcast/any" in request contexts, 0xFF is the "invalid" sentinel
// (spec.md §3).
type NodeID uint8

const (
	NodeBroadcast NodeID = 0
	NodeMin       NodeID = 1
	NodeMax       NodeID = 232
	NodeInvalid   NodeID = 0xFF
)

// Valid reports whether id is an acceptable destination for a public API
// call. Broadcast (0) is accepted only where the caller explicitly allows
// it via ValidOrBroadcast.
func (id NodeID) Valid() bool {
	return id >= NodeMin && id <= NodeMax
}

// ValidOrBroadcast additionally accepts NodeBroadcast.
func (id NodeID) ValidOrBroadcast() bool {
	return id == NodeBroadcast || id.Valid()
}

// CheckNode is the invariant enforced at every public entry point
// (spec.md §3, §8): 1 <= id <= 232, else InvalidParams.
func CheckNode(id NodeID) error {
	if !id.Valid() {
		return errcode.Wrap("check_node", errcode.InvalidParams, nil)
	}
	return nil
}

// Endpoint identifies a channel within a node. 0 is the root endpoint,
// [1,127] are multi-channel sub-endpoints (spec.md §3).
type Endpoint uint8

const (
	EndpointRoot Endpoint = 0
	EndpointMax  Endpoint = 127
)

func (e Endpoint) Valid() bool { return e <= EndpointMax }

func (e Endpoint) IsRoot() bool { return e == EndpointRoot }

func CheckEndpoint(e Endpoint) error {
	if !e.Valid() {
		return errcode.Wrap("check_endpoint", errcode.InvalidParams, nil)
	}
	return nil
}

// MaxSupportedClasses caps a node record's command-class list (spec.md §3).
const MaxSupportedClasses = 35

// DeviceClass captures a node's basic/generic/specific triple, reported in
// its Node Information Frame during inclusion.
type DeviceClass struct {
	Basic    uint8
	Generic  uint8
	Specific uint8
}
