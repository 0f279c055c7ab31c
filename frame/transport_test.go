package frame

import (
	"testing"
	"time"
)

// fakeWire is an in-memory duplex byte pipe standing in for the real UART.
// Each time the transport writes a full frame (starting with SOF), the
// next queued response (an ACK, NACK or CAN byte) becomes available to
// read, simulating a radio replying to one attempt at a time.
type fakeWire struct {
	responses   [][]byte
	toTransport []byte
	fromXport   []byte
	clockMs     int64
}

func (w *fakeWire) read(buf []byte) (int, error) {
	if len(w.toTransport) == 0 {
		return 0, nil
	}
	n := copy(buf, w.toTransport)
	w.toTransport = w.toTransport[n:]
	return n, nil
}

func (w *fakeWire) write(data []byte) error {
	w.fromXport = append(w.fromXport, data...)
	if len(data) > 0 && data[0] == SOF && len(w.responses) > 0 {
		w.toTransport = append(w.toTransport, w.responses[0]...)
		w.responses = w.responses[1:]
	}
	return nil
}

func (w *fakeWire) now() int64 { return w.clockMs }

func newTestTransport(w *fakeWire) *Transport {
	tr := NewTransport(w.read, w.write, nil, w.now, nil)
	tr.sleep = func(time.Duration) { w.clockMs++ } // advance the fake clock instead of sleeping
	return tr
}

func TestSend_ImmediateACK(t *testing.T) {
	w := &fakeWire{responses: [][]byte{{ACK}}}
	tr := newTestTransport(w)

	if err := tr.Send([]byte{0x25, 0x02}, TypeRequest, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tr.RetryCount != 0 {
		t.Fatalf("expected no retries, got %d", tr.RetryCount)
	}
}

// Scenario 5 (spec.md §8): NACK on first attempt, ACK on second — exactly
// one frame observed by upper layers, retry counter increments by one.
func TestSend_RetryOnNACK(t *testing.T) {
	w := &fakeWire{responses: [][]byte{{NACK}, {ACK}}}
	tr := newTestTransport(w)

	delivered := 0
	err := tr.Send([]byte{0x20, 0x02}, TypeRequest, func(Frame) { delivered++ })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tr.RetryCount != 1 {
		t.Fatalf("expected retry count 1, got %d", tr.RetryCount)
	}
	if delivered != 0 {
		t.Fatalf("expected no inbound frames delivered, got %d", delivered)
	}
}

func TestSend_ExhaustsRetriesOnSilence(t *testing.T) {
	w := &fakeWire{}
	tr := newTestTransport(w)
	// Make the clock advance fast so the deadline trips without a real sleep.
	tr.sleep = func(time.Duration) { w.clockMs += 2000 }

	err := tr.Send([]byte{0x25, 0x02}, TypeRequest, nil)
	if err == nil {
		t.Fatal("expected an error after exhausting retries")
	}
}

func TestFramer_ChecksumFailureYieldsNACK(t *testing.T) {
	w := &fakeWire{}
	tr := newTestTransport(w)

	good, _ := Encode(Frame{Type: TypeResponse, Payload: []byte{0x25, 0x03, 0xFF}})
	good[len(good)-1] ^= 0xFF // corrupt the checksum byte
	w.toTransport = append(w.toTransport, good...)

	var delivered []Frame
	tr.PumpFrame(func(f Frame) { delivered = append(delivered, f) })

	if len(delivered) != 0 {
		t.Fatalf("corrupted frame must not be delivered, got %d", len(delivered))
	}
	if len(w.fromXport) == 0 || w.fromXport[len(w.fromXport)-1] != NACK {
		t.Fatalf("expected a trailing NACK byte, got % x", w.fromXport)
	}
}

func TestFramer_ValidFrameYieldsACKAndDelivery(t *testing.T) {
	w := &fakeWire{}
	tr := newTestTransport(w)

	good, _ := Encode(Frame{Type: TypeResponse, Payload: []byte{0x25, 0x03, 0xFF}})
	w.toTransport = append(w.toTransport, good...)

	var delivered []Frame
	tr.PumpFrame(func(f Frame) { delivered = append(delivered, f) })

	if len(delivered) != 1 {
		t.Fatalf("expected exactly one delivered frame, got %d", len(delivered))
	}
	if string(delivered[0].Payload) != "\x25\x03\xFF" {
		t.Fatalf("unexpected payload: % x", delivered[0].Payload)
	}
	if len(w.fromXport) == 0 || w.fromXport[len(w.fromXport)-1] != ACK {
		t.Fatalf("expected a trailing ACK byte, got % x", w.fromXport)
	}
}

func TestFramer_DiscardsGarbageUntilSOF(t *testing.T) {
	fr := NewFramer()
	good, _ := Encode(Frame{Type: TypeRequest, Payload: []byte{0x01}})
	fr.Feed(append([]byte{0xAA, 0xBB}, good...))

	u1, ok := fr.Next()
	if !ok || u1.Kind != UnitGarbage {
		t.Fatalf("expected first unit to be garbage, got %+v ok=%v", u1, ok)
	}
	u2, ok := fr.Next()
	if !ok || u2.Kind != UnitGarbage {
		t.Fatalf("expected second unit to be garbage, got %+v ok=%v", u2, ok)
	}
	u3, ok := fr.Next()
	if !ok || u3.Kind != UnitData || !u3.ChecksumOK {
		t.Fatalf("expected a valid data frame next, got %+v ok=%v", u3, ok)
	}
}
