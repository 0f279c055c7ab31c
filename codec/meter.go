package codec

import (
	"encoding/binary"

	"github.com/jangala-dev/zwavehost/types"
)

func init() {
	Register(types.ClassMeter, types.OpMeterReport, decodeMeterReport)
	Register(types.ClassMeter, types.OpMeterSupportedRpt, decodeMeterSupportedReport)
}

func EncodeMeterGet(req types.MeterGet) ([]byte, error) {
	return []byte{byte(types.OpMeterGet), req.ScaleBits}, nil
}

func EncodeMeterSupportedGet(types.MeterSupportedGet) ([]byte, error) {
	return []byte{byte(types.OpMeterSupportedGet)}, nil
}

func EncodeMeterReset(types.MeterReset) ([]byte, error) {
	return []byte{byte(types.OpMeterReset)}, nil
}

// decodeMeterReport preserves every wire field as-is (spec.md §4.D): type,
// scale, precision, rate type, value, delta-time, previous value.
func decodeMeterReport(payload []byte) (any, *int, error) {
	if len(payload) < 7 {
		return nil, nil, ErrShort
	}
	meta := payload[0]
	rep := types.MeterReport{
		Type:      types.MeterType(meta & 0x1F),
		Rate:      types.RateType((meta >> 5) & 0x03),
		Precision: (payload[1] >> 5) & 0x07,
		Scale:     (payload[1] >> 3) & 0x03,
	}
	size := int(payload[1] & 0x07)
	off := 2
	if len(payload) < off+size+2 {
		return nil, nil, ErrShort
	}
	rep.Value = decodeSignedBE(payload[off : off+size])
	off += size
	rep.DeltaTime = binary.BigEndian.Uint16(payload[off : off+2])
	off += 2
	if rep.DeltaTime > 0 && len(payload) >= off+size {
		rep.Previous = decodeSignedBE(payload[off : off+size])
	}
	return rep, nil, nil
}

func decodeMeterSupportedReport(payload []byte) (any, *int, error) {
	if len(payload) < 2 {
		return nil, nil, ErrShort
	}
	meta := payload[0]
	return types.MeterSupportedReport{
		Type:            types.MeterType(meta & 0x1F),
		CanReset:        meta&0x80 != 0,
		SupportedScales: payload[1],
	}, nil, nil
}

// decodeSignedBE decodes a big-endian two's-complement integer of 1, 2 or 4
// bytes, matching the configuration/meter value encoding (spec.md §4.D).
func decodeSignedBE(b []byte) int32 {
	var v int32
	for _, c := range b {
		v = v<<8 | int32(c)
	}
	// sign-extend from the narrower width
	bits := uint(len(b)) * 8
	if bits < 32 && v&(1<<(bits-1)) != 0 {
		v -= 1 << bits
	}
	return v
}
