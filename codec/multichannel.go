package codec

import (
	"github.com/jangala-dev/zwavehost/errcode"
	"github.com/jangala-dev/zwavehost/types"
)

func init() {
	Register(types.ClassMultiChannel, types.OpMultiChannelEndpointRpt, decodeMultiChannelEndpointReport)
	Register(types.ClassMultiChannel, types.OpMultiChannelCapRpt, decodeMultiChannelCapabilityReport)
	Register(types.ClassMultiChannel, types.OpMultiChannelEndpointFRpt, decodeMultiChannelEndpointFindReport)
	Register(types.ClassMultiChannel, types.OpMultiChannelAggMembersRpt, decodeMultiChannelAggregatedMembersReport)
}

func EncodeMultiChannelEndpointGet(types.MultiChannelEndpointGet) ([]byte, error) {
	return []byte{byte(types.OpMultiChannelEndpointGet)}, nil
}

func EncodeMultiChannelCapabilityGet(req types.MultiChannelCapabilityGet) ([]byte, error) {
	if err := types.CheckEndpoint(req.Endpoint); err != nil {
		return nil, err
	}
	return []byte{byte(types.OpMultiChannelCapGet), byte(req.Endpoint)}, nil
}

func EncodeMultiChannelEndpointFind(req types.MultiChannelEndpointFind) ([]byte, error) {
	return []byte{byte(types.OpMultiChannelEndpointFind), req.GenericClass, req.SpecificClass}, nil
}

func EncodeMultiChannelAggregatedMembersGet(req types.MultiChannelAggregatedMembersGet) ([]byte, error) {
	if err := types.CheckEndpoint(req.AggregatedEndpoint); err != nil {
		return nil, err
	}
	return []byte{byte(types.OpMultiChannelAggMembersGet), byte(req.AggregatedEndpoint)}, nil
}

// WrapEncapsulation wraps inner (a class-prefixed command payload) in a
// Multi-Channel encapsulation addressed at dstEndpoint, with the source
// root endpoint (0), per spec.md §4.D "Encapsulation": used whenever the
// target endpoint is non-root.
func WrapEncapsulation(dstEndpoint types.Endpoint, inner []byte) ([]byte, error) {
	if err := types.CheckEndpoint(dstEndpoint); err != nil {
		return nil, err
	}
	out := make([]byte, 0, 3+len(inner))
	out = append(out, byte(types.OpMultiChannelEncap), byte(types.EndpointRoot), byte(dstEndpoint))
	out = append(out, inner...)
	return out, nil
}

// UnwrapEncapsulation splits a Multi-Channel Encapsulation payload (op byte
// already stripped) into the source endpoint and the inner class-prefixed
// command, which the caller dispatches as if it arrived directly from that
// endpoint (spec.md §4.D).
func UnwrapEncapsulation(payload []byte) (srcEndpoint types.Endpoint, inner []byte, err error) {
	if len(payload) < 3 {
		return 0, nil, ErrShort
	}
	srcEndpoint = types.Endpoint(payload[0])
	if !srcEndpoint.Valid() {
		return 0, nil, errcode.Wrap("codec.multichannel_unwrap", errcode.InvalidParams, nil)
	}
	return srcEndpoint, payload[2:], nil
}

func decodeMultiChannelEndpointReport(payload []byte) (any, *int, error) {
	if len(payload) < 2 {
		return nil, nil, ErrShort
	}
	return types.MultiChannelEndpointReport{
		Dynamic:      payload[0]&0x80 != 0,
		Identical:    payload[0]&0x40 != 0,
		EndpointsLen: payload[1] & 0x7F,
	}, nil, nil
}

func decodeMultiChannelCapabilityReport(payload []byte) (any, *int, error) {
	if len(payload) < 4 {
		return nil, nil, ErrShort
	}
	rep := types.MultiChannelCapabilityReport{
		Endpoint: types.Endpoint(payload[0] & 0x7F),
		DeviceClass: types.DeviceClass{
			Generic:  payload[1],
			Specific: payload[2],
		},
	}
	for _, cc := range payload[3:] {
		rep.CommandClasses = append(rep.CommandClasses, types.CommandClass(cc))
	}
	return rep, nil, nil
}

func decodeMultiChannelEndpointFindReport(payload []byte) (any, *int, error) {
	if len(payload) < 3 {
		return nil, nil, ErrShort
	}
	reportsToGo := int(payload[0])
	rep := types.MultiChannelEndpointFindReport{
		ReportsToGo:   payload[0],
		GenericClass:  payload[1],
		SpecificClass: payload[2],
	}
	for _, e := range payload[3:] {
		rep.Endpoints = append(rep.Endpoints, types.Endpoint(e&0x7F))
	}
	return rep, &reportsToGo, nil
}

func decodeMultiChannelAggregatedMembersReport(payload []byte) (any, *int, error) {
	if len(payload) < 2 {
		return nil, nil, ErrShort
	}
	rep := types.MultiChannelAggregatedMembersReport{
		AggregatedEndpoint: types.Endpoint(payload[0] & 0x7F),
	}
	bitmaskLen := int(payload[1])
	if len(payload) < 2+bitmaskLen {
		return nil, nil, ErrShort
	}
	for i, b := range payload[2 : 2+bitmaskLen] {
		for bit := 0; bit < 8; bit++ {
			if b&(1<<uint(bit)) != 0 {
				rep.Members = append(rep.Members, types.Endpoint(i*8+bit+1))
			}
		}
	}
	return rep, nil, nil
}
