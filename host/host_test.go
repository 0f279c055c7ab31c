package host

import (
	"testing"

	"github.com/jangala-dev/zwavehost/cache"
	"github.com/jangala-dev/zwavehost/errcode"
	"github.com/jangala-dev/zwavehost/frame"
	"github.com/jangala-dev/zwavehost/logging"
	"github.com/jangala-dev/zwavehost/types"
)

// fakeWire is a duplex in-memory byte pipe, directly grounded on
// frame/transport_test.go's own fakeWire: every time the host writes a
// full frame (starting with SOF) the next queued response becomes
// available to read on the very next poll, simulating a radio reply
// without any real I/O or wall-clock wait.
type fakeWire struct {
	responses   [][]byte
	toHost      []byte
	fromHost    []byte
	clockMs     int64
}

func (w *fakeWire) read(buf []byte) (int, error) {
	if len(w.toHost) == 0 {
		return 0, nil
	}
	n := copy(buf, w.toHost)
	w.toHost = w.toHost[n:]
	return n, nil
}

func (w *fakeWire) write(data []byte) error {
	w.fromHost = append(w.fromHost, data...)
	if len(data) > 0 && data[0] == frame.SOF && len(w.responses) > 0 {
		w.toHost = append(w.toHost, w.responses[0]...)
		w.responses = w.responses[1:]
	}
	return nil
}

func (w *fakeWire) now() int64 { return w.clockMs }

func noStore() (cache.StoreLoadFunc, cache.StoreSaveFunc, cache.StoreResetFunc) {
	return func(int, int) []byte { return nil },
		func([]byte) error { return nil },
		func() error { return nil }
}

// newTestHost builds a Host wired to w. Every response fakeWire owns is
// queued onto its read side synchronously, inside the write() call that
// triggers it, so Transport.Send always finds its ACK/NACK on the very
// first poll and never actually sleeps between attempts.
func newTestHost(t *testing.T, w *fakeWire) *Host {
	t.Helper()
	load, save, reset := noStore()
	h, err := Init(Options{
		Now:        w.now,
		Logger:     logging.Discard{},
		UARTRead:   w.read,
		UARTWrite:  w.write,
		StoreSave:  save,
		StoreLoad:  load,
		StoreReset: reset,
	})
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	return h
}

func encodeFrame(t *testing.T, typ frame.Type, payload []byte) []byte {
	t.Helper()
	enc, err := frame.Encode(frame.Frame{Type: typ, Payload: payload})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	return enc
}

// TestBinarySwitchSetSendsEnvelopeWithNoReport covers spec.md §8 scenario 1:
// a Set frame carries tag 0 and its callback fires on transmission outcome
// alone, never a report.
func TestBinarySwitchSetSendsEnvelopeWithNoReport(t *testing.T) {
	w := &fakeWire{responses: [][]byte{{frame.ACK}}}
	h := newTestHost(t, w)

	var gotCode errcode.Code
	h.BinarySwitchSet(5, types.EndpointRoot, types.BinarySwitchSet{Value: types.SwitchMax}, func(code errcode.Code) {
		gotCode = code
	})

	if gotCode != errcode.OK {
		t.Fatalf("expected OK, got %v", gotCode)
	}

	wantPayload := applicationEnvelope(0, 5, types.EndpointRoot, types.ClassBinarySwitch, []byte{byte(types.OpBinarySwitchSet), byte(types.SwitchMax)})
	want := encodeFrame(t, frame.TypeRequest, wantPayload)
	if string(w.fromHost) != string(want) {
		t.Fatalf("unexpected bytes on the wire:\n got % x\nwant % x", w.fromHost, want)
	}
}

// TestMultiChannelEncapsulationRoundTrip covers spec.md §8 scenario 2: a Get
// addressed at a non-root endpoint goes out Multi-Channel encapsulated, and
// an encapsulated report comes back decoded with the originating endpoint.
func TestMultiChannelEncapsulationRoundTrip(t *testing.T) {
	const tag = uint16(1) // first Submit on a fresh session table

	inner := append([]byte{byte(types.ClassBinarySwitch), byte(types.OpBinarySwitchReport)}, byte(types.SwitchMax), byte(types.SwitchMax), 0)
	encapBody := append([]byte{byte(types.OpMultiChannelEncap), byte(2), byte(types.EndpointRoot)}, inner...)
	replyPayload := applicationEnvelope(tag, 7, types.EndpointRoot, types.ClassMultiChannel, encapBody)
	reply := append([]byte{frame.ACK}, encodeFrame(t, frame.TypeResponse, replyPayload)...)

	w := &fakeWire{responses: [][]byte{reply}}
	h := newTestHost(t, w)

	var gotReport *types.BinarySwitchReport
	var gotCode errcode.Code
	h.BinarySwitchGet(7, 2, func(rep *types.BinarySwitchReport, code errcode.Code) {
		gotReport, gotCode = rep, code
	})

	wantPayload, err := buildApplicationFrame(tag, 7, 2, types.ClassBinarySwitch, []byte{byte(types.OpBinarySwitchGet)})
	if err != nil {
		t.Fatalf("buildApplicationFrame: %v", err)
	}
	// The encapsulated Get, then the host's ACK for the inbound report.
	want := append(encodeFrame(t, frame.TypeRequest, wantPayload), frame.ACK)
	if string(w.fromHost) != string(want) {
		t.Fatalf("unexpected outbound bytes:\n got % x\nwant % x", w.fromHost, want)
	}

	if gotCode != errcode.OK {
		t.Fatalf("expected OK, got %v", gotCode)
	}
	if gotReport == nil || gotReport.Value != types.SwitchMax {
		t.Fatalf("unexpected report: %+v", gotReport)
	}
}

// TestConfigurationSetRejectsIllegalSize covers spec.md §4.D: size 3 is
// explicitly illegal and must be rejected before any wire traffic.
func TestConfigurationSetRejectsIllegalSize(t *testing.T) {
	w := &fakeWire{}
	h := newTestHost(t, w)

	var gotCode errcode.Code
	h.ConfigurationSet(4, types.EndpointRoot, types.ConfigurationSet{
		Parameter: 1,
		Size:      types.ConfigSize(3),
		Value:     10,
	}, func(code errcode.Code) { gotCode = code })

	if gotCode != errcode.InvalidParams {
		t.Fatalf("expected invalid_params, got %v", gotCode)
	}
	if len(w.fromHost) != 0 {
		t.Fatalf("expected no wire traffic, got % x", w.fromHost)
	}
}

// TestConfigurationNameGetDeliversSegmentsThenTerminator covers the
// multi-part "reports to follow" path (spec.md §4.D, §8).
func TestConfigurationNameGetDeliversSegmentsThenTerminator(t *testing.T) {
	const tag = uint16(1)

	seg1 := applicationEnvelope(tag, 9, types.EndpointRoot, types.ClassConfiguration,
		append([]byte{byte(types.OpConfigurationNameReport), 0, 5, 1}, []byte("Li")...))
	seg2 := applicationEnvelope(tag, 9, types.EndpointRoot, types.ClassConfiguration,
		append([]byte{byte(types.OpConfigurationNameReport), 0, 5, 0}, []byte("ght")...))

	reply := []byte{frame.ACK}
	reply = append(reply, encodeFrame(t, frame.TypeResponse, seg1)...)
	reply = append(reply, encodeFrame(t, frame.TypeResponse, seg2)...)

	w := &fakeWire{responses: [][]byte{reply}}
	h := newTestHost(t, w)

	var segments []string
	terminated := false
	h.ConfigurationNameGet(9, types.EndpointRoot, types.ConfigurationNameGet{Parameter: 5}, func(rep *types.ConfigurationNameReport, code errcode.Code) {
		if rep == nil {
			terminated = true
			return
		}
		segments = append(segments, rep.Name)
	})

	if len(segments) != 2 || segments[0] != "Li" || segments[1] != "ght" {
		t.Fatalf("unexpected segments: %v", segments)
	}
	if !terminated {
		t.Fatalf("expected a final nil-report terminator")
	}
}

// TestTransportRetriesOnNACK covers spec.md §8 scenario 5: a NACK on the
// first attempt, ACK on the second, with exactly one logical delivery.
func TestTransportRetriesOnNACK(t *testing.T) {
	w := &fakeWire{responses: [][]byte{{frame.NACK}, {frame.ACK}}}
	h := newTestHost(t, w)

	var gotCode errcode.Code
	h.BasicSet(3, types.EndpointRoot, types.BasicSet{Value: types.SwitchOff}, func(code errcode.Code) {
		gotCode = code
	})

	if gotCode != errcode.OK {
		t.Fatalf("expected eventual OK after a retry, got %v", gotCode)
	}
	if h.transport.RetryCount != 1 {
		t.Fatalf("expected exactly one retry, got %d", h.transport.RetryCount)
	}
}

// TestSessionExpiresWhenNoReportArrives covers the session table's own
// timeout path (spec.md §4.B, §5): the frame is acked, but the node never
// sends the report, so the periodic tick must fail it.
func TestSessionExpiresWhenNoReportArrives(t *testing.T) {
	w := &fakeWire{responses: [][]byte{{frame.ACK}}} // acked, no report ever follows
	load, save, reset := noStore()
	h, err := Init(Options{
		Now:              w.now,
		Logger:           logging.Discard{},
		UARTRead:         w.read,
		UARTWrite:        w.write,
		StoreSave:        save,
		StoreLoad:        load,
		StoreReset:       reset,
		SessionTimeoutMs: 50,
	})
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	var gotCode errcode.Code
	called := false
	h.BasicGet(11, types.EndpointRoot, func(rep *types.BasicReport, code errcode.Code) {
		called = true
		gotCode = code
	})
	if called {
		t.Fatalf("callback must not fire before the report or a timeout")
	}

	h.Proc(51)
	if !called || gotCode != errcode.Timeout {
		t.Fatalf("expected a timeout delivery, got called=%v code=%v", called, gotCode)
	}
}

// TestSetDefaultCancelsOutstandingSessions covers spec.md §4.B: a
// controller-wide reset drains every pending session before the radio
// dialogue even starts, regardless of how that dialogue itself resolves.
func TestSetDefaultCancelsOutstandingSessions(t *testing.T) {
	// ACKs the Get's send (the session stays pending, awaiting a report that
	// never comes) and then the set_default send (its own completion is not
	// this test's concern).
	w := &fakeWire{responses: [][]byte{{frame.ACK}, {frame.ACK}}}
	h := newTestHost(t, w)

	called := false
	var pendingCode errcode.Code
	h.BasicGet(2, types.EndpointRoot, func(rep *types.BasicReport, code errcode.Code) {
		called = true
		pendingCode = code
	})
	if called {
		t.Fatalf("callback must not fire yet")
	}
	if h.sessions.Len() != 1 {
		t.Fatalf("expected one pending session before set_default, got %d", h.sessions.Len())
	}

	h.SetDefault(func(errcode.Code) {})

	if !called || pendingCode != errcode.Cancelled {
		t.Fatalf("expected the pending Get to be cancelled, got called=%v code=%v", called, pendingCode)
	}
	if h.sessions.Len() != 0 {
		t.Fatalf("expected no pending sessions after set_default, got %d", h.sessions.Len())
	}
}
