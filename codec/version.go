package codec

import "github.com/jangala-dev/zwavehost/types"

func init() {
	Register(types.ClassVersion, types.OpVersionReport, decodeVersionReport)
	Register(types.ClassVersion, types.OpVersionCCReport, decodeCommandClassVersionReport)
}

func EncodeVersionGet(types.VersionGet) ([]byte, error) {
	return []byte{byte(types.OpVersionGet)}, nil
}

func EncodeCommandClassVersionGet(req types.CommandClassVersionGet) ([]byte, error) {
	return []byte{byte(types.OpVersionCCGet), byte(req.Class)}, nil
}

func decodeVersionReport(payload []byte) (any, *int, error) {
	if len(payload) < 6 {
		return nil, nil, ErrShort
	}
	return types.VersionReport{
		LibraryType:     payload[0],
		ProtocolMajor:   payload[1],
		ProtocolMinor:   payload[2],
		FirmwareMajor:   payload[3],
		FirmwareMinor:   payload[4],
		HardwareVersion: payload[5],
	}, nil, nil
}

func decodeCommandClassVersionReport(payload []byte) (any, *int, error) {
	if len(payload) < 2 {
		return nil, nil, ErrShort
	}
	return types.CommandClassVersionReport{
		Class:   types.CommandClass(payload[0]),
		Version: payload[1],
	}, nil, nil
}
