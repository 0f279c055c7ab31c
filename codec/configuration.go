package codec

import (
	"github.com/jangala-dev/zwavehost/errcode"
	"github.com/jangala-dev/zwavehost/types"
)

func init() {
	Register(types.ClassConfiguration, types.OpConfigurationReport, decodeConfigurationReport)
	Register(types.ClassConfiguration, types.OpConfigurationBulkReport, decodeConfigurationBulkReport)
	Register(types.ClassConfiguration, types.OpConfigurationNameReport, decodeConfigurationNameReport)
	Register(types.ClassConfiguration, types.OpConfigurationInfoReport, decodeConfigurationInfoReport)
	Register(types.ClassConfiguration, types.OpConfigurationPropReport, decodeConfigurationPropertiesReport)
}

func encodeSignedBE(v int32, size int) []byte {
	out := make([]byte, size)
	for i := size - 1; i >= 0; i-- {
		out[i] = byte(v)
		v >>= 8
	}
	return out
}

func EncodeConfigurationSet(req types.ConfigurationSet) ([]byte, error) {
	if !req.Size.Valid() || req.Size == types.ConfigSizeNone {
		return nil, errcode.Wrap("codec.configuration_set", errcode.InvalidParams, nil)
	}
	out := []byte{byte(types.OpConfigurationSet), byte(req.Parameter >> 8), byte(req.Parameter)}
	props := byte(req.Size)
	if req.Default {
		props |= 1 << 7
	}
	out = append(out, props)
	out = append(out, encodeSignedBE(req.Value, int(req.Size))...)
	return out, nil
}

func EncodeConfigurationGet(req types.ConfigurationGet) ([]byte, error) {
	return []byte{byte(types.OpConfigurationGet), byte(req.Parameter >> 8), byte(req.Parameter)}, nil
}

func EncodeConfigurationBulkSet(req types.ConfigurationBulkSet) ([]byte, error) {
	if !req.Size.Valid() || req.Size == types.ConfigSizeNone {
		return nil, errcode.Wrap("codec.configuration_bulk_set", errcode.InvalidParams, nil)
	}
	out := []byte{
		byte(types.OpConfigurationBulkSet),
		byte(req.FirstParameter >> 8), byte(req.FirstParameter),
		byte(len(req.Values) >> 8), byte(len(req.Values)),
		byte(req.Size),
	}
	flags := byte(0)
	if req.HandshakeOnly {
		flags |= 1 << 7
	}
	if req.Default {
		flags |= 1 << 6
	}
	out = append(out, flags)
	for _, v := range req.Values {
		out = append(out, encodeSignedBE(v, int(req.Size))...)
	}
	return out, nil
}

func EncodeConfigurationBulkGet(req types.ConfigurationBulkGet) ([]byte, error) {
	return []byte{
		byte(types.OpConfigurationBulkGet),
		byte(req.FirstParameter >> 8), byte(req.FirstParameter),
		byte(req.Count >> 8), byte(req.Count),
	}, nil
}

func EncodeConfigurationNameGet(req types.ConfigurationNameGet) ([]byte, error) {
	return []byte{byte(types.OpConfigurationNameGet), byte(req.Parameter >> 8), byte(req.Parameter)}, nil
}

func EncodeConfigurationInfoGet(req types.ConfigurationInfoGet) ([]byte, error) {
	return []byte{byte(types.OpConfigurationInfoGet), byte(req.Parameter >> 8), byte(req.Parameter)}, nil
}

func EncodeConfigurationPropertiesGet(req types.ConfigurationPropertiesGet) ([]byte, error) {
	return []byte{byte(types.OpConfigurationPropGet), byte(req.Parameter >> 8), byte(req.Parameter)}, nil
}

func EncodeConfigurationDefaultReset(types.ConfigurationDefaultReset) ([]byte, error) {
	return []byte{byte(types.OpConfigurationDefaultRst)}, nil
}

// decodeConfigSize extracts the 3-bit size field from a properties byte and
// validates it (spec.md §4.D: legal sizes are 1, 2, 4; 3 is illegal).
func decodeConfigSize(props byte) (types.ConfigSize, error) {
	size := types.ConfigSize(props & 0x07)
	if !size.Valid() {
		return 0, errcode.Wrap("codec.configuration", errcode.InvalidParams, nil)
	}
	return size, nil
}

func decodeConfigurationReport(payload []byte) (any, *int, error) {
	if len(payload) < 4 {
		return nil, nil, ErrShort
	}
	parameter := uint16(payload[0])<<8 | uint16(payload[1])
	size, err := decodeConfigSize(payload[2])
	if err != nil {
		return nil, nil, err
	}
	if len(payload) < 3+int(size) {
		return nil, nil, ErrShort
	}
	return types.ConfigurationReport{
		Parameter: parameter,
		Size:      size,
		Value:     decodeSignedBE(payload[3 : 3+int(size)]),
	}, nil, nil
}

func decodeConfigurationBulkReport(payload []byte) (any, *int, error) {
	if len(payload) < 6 {
		return nil, nil, ErrShort
	}
	first := uint16(payload[0])<<8 | uint16(payload[1])
	count := int(uint16(payload[2])<<8 | uint16(payload[3]))
	reportsToGo := int(payload[4])
	size, err := decodeConfigSize(payload[5])
	if err != nil {
		return nil, nil, err
	}
	off := 6
	rep := types.ConfigurationBulkReport{FirstParameter: first, Size: size, ReportsToGo: payload[4]}
	for i := 0; i < count; i++ {
		if len(payload) < off+int(size) {
			return nil, nil, ErrShort
		}
		rep.Values = append(rep.Values, decodeSignedBE(payload[off:off+int(size)]))
		off += int(size)
	}
	return rep, &reportsToGo, nil
}

func decodeConfigurationNameReport(payload []byte) (any, *int, error) {
	if len(payload) < 3 {
		return nil, nil, ErrShort
	}
	parameter := uint16(payload[0])<<8 | uint16(payload[1])
	reportsToGo := int(payload[2])
	return types.ConfigurationNameReport{
		Parameter:   parameter,
		ReportsToGo: payload[2],
		Name:        string(payload[3:]),
	}, &reportsToGo, nil
}

func decodeConfigurationInfoReport(payload []byte) (any, *int, error) {
	if len(payload) < 3 {
		return nil, nil, ErrShort
	}
	parameter := uint16(payload[0])<<8 | uint16(payload[1])
	reportsToGo := int(payload[2])
	return types.ConfigurationInfoReport{
		Parameter:   parameter,
		ReportsToGo: payload[2],
		Info:        string(payload[3:]),
	}, &reportsToGo, nil
}

func decodeConfigurationPropertiesReport(payload []byte) (any, *int, error) {
	if len(payload) < 4 {
		return nil, nil, ErrShort
	}
	parameter := uint16(payload[0])<<8 | uint16(payload[1])
	props := payload[2]
	size, err := decodeConfigSize(props)
	if err != nil {
		return nil, nil, err
	}
	// Properties byte layout: bits 0-2 size, bit 3 read-only, bit 4 altering
	// (a write takes effect without a reboot), bit 5 advanced, bits 6-7 format.
	rep := types.ConfigurationPropertiesReport{
		Parameter: parameter,
		Size:      size,
		Format:    (props >> 6) & 0x03,
		ReadOnly:  props&(1<<3) != 0,
		Altering:  props&(1<<4) != 0,
		Advanced:  props&(1<<5) != 0,
	}
	off := 3
	need := off + int(size)*3 + 2
	if len(payload) < need {
		return nil, nil, ErrShort
	}
	rep.MinValue = decodeSignedBE(payload[off : off+int(size)])
	off += int(size)
	rep.MaxValue = decodeSignedBE(payload[off : off+int(size)])
	off += int(size)
	rep.DefaultValue = decodeSignedBE(payload[off : off+int(size)])
	off += int(size)
	rep.NextParameter = uint16(payload[off])<<8 | uint16(payload[off+1])
	return rep, nil, nil
}
