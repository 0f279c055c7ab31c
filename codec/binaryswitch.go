package codec

import (
	"github.com/jangala-dev/zwavehost/errcode"
	"github.com/jangala-dev/zwavehost/types"
)

func init() {
	Register(types.ClassBinarySwitch, types.OpBinarySwitchReport, decodeBinarySwitchReport)
}

func EncodeBinarySwitchSet(req types.BinarySwitchSet) ([]byte, error) {
	if !req.Value.ValidForSet() {
		return nil, errcode.Wrap("codec.binary_switch_set", errcode.InvalidParams, nil)
	}
	return []byte{byte(types.OpBinarySwitchSet), byte(req.Value)}, nil
}

func EncodeBinarySwitchGet(types.BinarySwitchGet) ([]byte, error) {
	return []byte{byte(types.OpBinarySwitchGet)}, nil
}

func decodeBinarySwitchReport(payload []byte) (any, *int, error) {
	if len(payload) < 1 {
		return nil, nil, ErrShort
	}
	rep := types.BinarySwitchReport{Value: types.SwitchValue(payload[0])}
	if len(payload) >= 3 {
		rep.Target = types.SwitchValue(payload[1])
		rep.Duration = payload[2]
	}
	return rep, nil, nil
}
