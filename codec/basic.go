package codec

import (
	"github.com/jangala-dev/zwavehost/errcode"
	"github.com/jangala-dev/zwavehost/types"
)

func init() {
	Register(types.ClassBasic, types.OpBasicReport, decodeBasicReport)
}

// EncodeBasicSet builds the Basic Set payload (spec.md §4.D).
func EncodeBasicSet(req types.BasicSet) ([]byte, error) {
	if !req.Value.ValidForSet() {
		return nil, errcode.Wrap("codec.basic_set", errcode.InvalidParams, nil)
	}
	return []byte{byte(types.OpBasicSet), byte(req.Value)}, nil
}

// EncodeBasicGet builds the Basic Get payload.
func EncodeBasicGet(types.BasicGet) ([]byte, error) {
	return []byte{byte(types.OpBasicGet)}, nil
}

func decodeBasicReport(payload []byte) (any, *int, error) {
	if len(payload) < 1 {
		return nil, nil, ErrShort
	}
	rep := types.BasicReport{Value: types.SwitchValue(payload[0])}
	if len(payload) >= 3 {
		rep.Target = types.SwitchValue(payload[1])
		rep.Duration = payload[2]
	}
	return rep, nil, nil
}
