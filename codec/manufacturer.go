package codec

import "github.com/jangala-dev/zwavehost/types"

func init() {
	Register(types.ClassManufacturerSpec, types.OpManufacturerSpecificRpt, decodeManufacturerSpecificReport)
	Register(types.ClassDeviceSpecific, types.OpDeviceSpecificReport, decodeDeviceSpecificReport)
	Register(types.ClassZWavePlusInfo, types.OpZWavePlusInfoReport, decodeZWavePlusInfoReport)
}

func EncodeManufacturerSpecificGet(types.ManufacturerSpecificGet) ([]byte, error) {
	return []byte{byte(types.OpManufacturerSpecificGet)}, nil
}

func EncodeDeviceSpecificGet(req types.DeviceSpecificGet) ([]byte, error) {
	return []byte{byte(types.OpDeviceSpecificGet), byte(req.IDType)}, nil
}

func EncodeZWavePlusInfoGet(types.ZWavePlusInfoGet) ([]byte, error) {
	return []byte{byte(types.OpZWavePlusInfoGet)}, nil
}

func decodeManufacturerSpecificReport(payload []byte) (any, *int, error) {
	if len(payload) < 6 {
		return nil, nil, ErrShort
	}
	return types.ManufacturerSpecificReport{
		ManufacturerID: uint16(payload[0])<<8 | uint16(payload[1]),
		ProductType:    uint16(payload[2])<<8 | uint16(payload[3]),
		ProductID:      uint16(payload[4])<<8 | uint16(payload[5]),
	}, nil, nil
}

func decodeDeviceSpecificReport(payload []byte) (any, *int, error) {
	if len(payload) < 2 {
		return nil, nil, ErrShort
	}
	idType := types.DeviceIDType(payload[0] & 0x07)
	length := int(payload[1] & 0x1F)
	if len(payload) < 2+length {
		return nil, nil, ErrShort
	}
	return types.DeviceSpecificReport{
		IDType: idType,
		ID:     append([]byte(nil), payload[2:2+length]...),
	}, nil, nil
}

func decodeZWavePlusInfoReport(payload []byte) (any, *int, error) {
	if len(payload) < 7 {
		return nil, nil, ErrShort
	}
	return types.ZWavePlusInfoReport{
		Version:       payload[0],
		RoleType:      payload[1],
		NodeType:      payload[2],
		InstallerIcon: uint16(payload[3])<<8 | uint16(payload[4]),
		UserIcon:      uint16(payload[5])<<8 | uint16(payload[6]),
	}, nil, nil
}
