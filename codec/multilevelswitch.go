package codec

import (
	"github.com/jangala-dev/zwavehost/errcode"
	"github.com/jangala-dev/zwavehost/types"
)

func init() {
	Register(types.ClassMultilevelSwitch, types.OpMultilevelSwitchReport, decodeMultilevelSwitchReport)
}

func EncodeMultilevelSwitchSet(req types.MultilevelSwitchSet) ([]byte, error) {
	if !req.Value.ValidForSet() {
		return nil, errcode.Wrap("codec.multilevel_switch_set", errcode.InvalidParams, nil)
	}
	return []byte{byte(types.OpMultilevelSwitchSet), byte(req.Value), req.Duration}, nil
}

func EncodeMultilevelSwitchGet(types.MultilevelSwitchGet) ([]byte, error) {
	return []byte{byte(types.OpMultilevelSwitchGet)}, nil
}

func EncodeMultilevelSwitchStartChange(req types.MultilevelSwitchStartChange) ([]byte, error) {
	b := byte(0)
	if req.Direction == types.RampDown {
		b |= 1 << 6
	}
	if req.IgnoreTime {
		b |= 1 << 5
	}
	return []byte{byte(types.OpMultilevelSwitchStartChange), b, req.Duration}, nil
}

func EncodeMultilevelSwitchStopChange(types.MultilevelSwitchStopChange) ([]byte, error) {
	return []byte{byte(types.OpMultilevelSwitchStopChange)}, nil
}

func decodeMultilevelSwitchReport(payload []byte) (any, *int, error) {
	if len(payload) < 1 {
		return nil, nil, ErrShort
	}
	rep := types.MultilevelSwitchReport{Value: types.SwitchValue(payload[0])}
	if len(payload) >= 3 {
		rep.Target = types.SwitchValue(payload[1])
		rep.Duration = payload[2]
	}
	return rep, nil, nil
}
