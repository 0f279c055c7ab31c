package codec

import (
	"reflect"
	"testing"

	"github.com/jangala-dev/zwavehost/errcode"
	"github.com/jangala-dev/zwavehost/types"
)

func TestEncodeBasicSetRejectsOutOfRangeValue(t *testing.T) {
	_, err := EncodeBasicSet(types.BasicSet{Value: 0x80})
	if errcode.Of(err) != errcode.InvalidParams {
		t.Fatalf("expected invalid_params, got %v", err)
	}
}

func TestBasicReportRoundTrip(t *testing.T) {
	payload := []byte{byte(types.SwitchMax), byte(types.SwitchMax), 5}
	got, more, err := Decode(types.ClassBasic, types.OpBasicReport, payload)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if more != nil {
		t.Fatalf("basic report is not multi-part")
	}
	want := types.BasicReport{Value: types.SwitchMax, Target: types.SwitchMax, Duration: 5}
	if got != want {
		t.Fatalf("got %+v want %+v", got, want)
	}
}

func TestBasicReportShortFrameIsDropped(t *testing.T) {
	_, _, err := Decode(types.ClassBasic, types.OpBasicReport, nil)
	if errcode.Of(err) != errcode.ShortFrame {
		t.Fatalf("expected short_frame, got %v", err)
	}
}

func TestConfigurationSetRejectsIllegalSize(t *testing.T) {
	_, err := EncodeConfigurationSet(types.ConfigurationSet{Parameter: 1, Size: 3, Value: 1})
	if errcode.Of(err) != errcode.InvalidParams {
		t.Fatalf("expected invalid_params for size 3, got %v", err)
	}
}

func TestConfigurationValueRoundTrip(t *testing.T) {
	cases := []struct {
		size  types.ConfigSize
		value int32
	}{
		{types.ConfigSize1, -5},
		{types.ConfigSize2, 1234},
		{types.ConfigSize4, -100000},
	}
	for _, c := range cases {
		enc, err := EncodeConfigurationSet(types.ConfigurationSet{Parameter: 7, Size: c.size, Value: c.value})
		if err != nil {
			t.Fatalf("encode size %d: %v", c.size, err)
		}
		// enc = [op, paramHi, paramLo, props, value...]
		got, _, err := Decode(types.ClassConfiguration, types.OpConfigurationReport,
			append([]byte{enc[1], enc[2], byte(c.size)}, enc[4:]...))
		if err != nil {
			t.Fatalf("decode size %d: %v", c.size, err)
		}
		rep := got.(types.ConfigurationReport)
		if rep.Value != c.value {
			t.Fatalf("size %d: got %d want %d", c.size, rep.Value, c.value)
		}
	}
}

// Name reports arrive in segments terminated by reports-to-follow == 0
// (spec.md §4.D).
func TestConfigurationNameReportSegments(t *testing.T) {
	first := []byte{0, 7, 1, 'h', 'e'}
	_, more, err := Decode(types.ClassConfiguration, types.OpConfigurationNameReport, first)
	if err != nil {
		t.Fatalf("decode first segment: %v", err)
	}
	if more == nil || *more != 1 {
		t.Fatalf("expected reports-to-follow 1, got %v", more)
	}

	last := []byte{0, 7, 0, 'l', 'l', 'o'}
	_, more, err = Decode(types.ClassConfiguration, types.OpConfigurationNameReport, last)
	if err != nil {
		t.Fatalf("decode final segment: %v", err)
	}
	if more == nil || *more != 0 {
		t.Fatalf("expected reports-to-follow 0, got %v", more)
	}
}

func TestMultiChannelEncapsulationRoundTrip(t *testing.T) {
	inner := []byte{byte(types.ClassBasic), byte(types.OpBasicGet)}
	enc, err := WrapEncapsulation(3, inner)
	if err != nil {
		t.Fatalf("wrap: %v", err)
	}
	// enc[0] is the op byte; UnwrapEncapsulation expects it stripped.
	src, got, err := UnwrapEncapsulation(enc[1:])
	if err != nil {
		t.Fatalf("unwrap: %v", err)
	}
	// Outbound encapsulation carries source root and destination 3;
	// unwrapping reports the source endpoint it finds.
	if enc[2] != 3 {
		t.Fatalf("expected destination endpoint 3, got %d", enc[2])
	}
	if src != types.EndpointRoot {
		t.Fatalf("expected source endpoint root, got %d", src)
	}
	if !reflect.DeepEqual(got, inner) {
		t.Fatalf("got %v want %v", got, inner)
	}
}

func TestMultiChannelEncapsulationRejectsInvalidEndpoint(t *testing.T) {
	_, err := WrapEncapsulation(200, []byte{0x20, 0x02})
	if errcode.Of(err) != errcode.InvalidParams {
		t.Fatalf("expected invalid_params, got %v", err)
	}
}

func TestMeterReportPreservesFields(t *testing.T) {
	// meta: rate=import(1)<<5 | type=electric(1); scale/precision byte: precision=2<<5 | scale=1<<3 | size=2
	payload := []byte{
		0x01 | (1 << 5),
		(2 << 5) | (1 << 3) | 2,
		0x00, 0x64, // value = 100
		0x00, 0x1e, // delta-time = 30
		0x00, 0x32, // previous = 50
	}
	got, more, err := Decode(types.ClassMeter, types.OpMeterReport, payload)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if more != nil {
		t.Fatalf("meter report is not multi-part")
	}
	rep := got.(types.MeterReport)
	if rep.Type != types.MeterElectric || rep.Rate != types.RateImport {
		t.Fatalf("unexpected type/rate: %+v", rep)
	}
	if rep.Value != 100 || rep.Previous != 50 || rep.DeltaTime != 30 {
		t.Fatalf("unexpected values: %+v", rep)
	}
}
