// Package faketransport provides an in-memory duplex byte pipe and a
// radio-side double, so a host can speak the real wire protocol without an
// actual serial port; cmd/zwave-demo's simulated radio is built on it. It
// follows the teacher's own preference for small hand-rolled fakes (see
// frame/transport_test.go's fakeWire) over a mocking framework, extended
// to a full two-party pipe that drives both ends.
package faketransport

import (
	"sync"

	"github.com/jangala-dev/zwavehost/frame"
)

// queue is a non-blocking byte buffer: frame.ReadFunc must return
// immediately with whatever is available, which rules out a blocking
// io.Pipe on the read side.
type queue struct {
	mu  sync.Mutex
	buf []byte
}

func (q *queue) write(p []byte) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.buf = append(q.buf, p...)
}

func (q *queue) read(dst []byte) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := copy(dst, q.buf)
	q.buf = q.buf[n:]
	return n
}

// Pipe is a duplex in-memory connection between a frame.Transport under
// test (the "host" side) and a FakeRadio (the "radio" side): one queue per
// direction.
type Pipe struct {
	toRadio *queue
	toHost  *queue
}

func NewPipe() *Pipe {
	return &Pipe{toRadio: &queue{}, toHost: &queue{}}
}

// HostRead and HostWrite satisfy frame.ReadFunc/frame.WriteFunc for the
// Transport under test.
func (p *Pipe) HostRead(buf []byte) (int, error) { return p.toHost.read(buf), nil }
func (p *Pipe) HostWrite(data []byte) error      { p.toRadio.write(data); return nil }

func (p *Pipe) radioRead(buf []byte) (int, error) { return p.toRadio.read(buf), nil }
func (p *Pipe) radioWrite(data []byte) error      { p.toHost.write(data); return nil }

// FakeRadio speaks the wire protocol from the radio's side of a Pipe: it
// ACKs or NACKs every frame the host sends per checksum, and lets a test
// push canned application frames toward the host to simulate reports,
// inclusion callbacks and network-management replies.
type FakeRadio struct {
	pipe *Pipe
	fr   *frame.Framer
}

func NewFakeRadio(pipe *Pipe) *FakeRadio {
	return &FakeRadio{pipe: pipe, fr: frame.NewFramer()}
}

// Step drains whatever the host has written since the last call, ACKing or
// NACKing each frame found, and returns the well-formed frames received (so
// a test can assert on exactly what the host transmitted).
func (r *FakeRadio) Step() []frame.Frame {
	buf := make([]byte, 512)
	n, _ := r.pipe.radioRead(buf)
	if n > 0 {
		r.fr.Feed(buf[:n])
	}
	var out []frame.Frame
	for {
		u, ok := r.fr.Next()
		if !ok {
			break
		}
		if u.Kind != frame.UnitData {
			continue
		}
		if u.ChecksumOK {
			_ = r.pipe.radioWrite([]byte{frame.ACK})
			out = append(out, u.Frame)
		} else {
			_ = r.pipe.radioWrite([]byte{frame.NACK})
		}
	}
	return out
}

// Send pushes an application frame from the radio toward the host. It does
// not itself wait for or require an ACK back (the host's transport ACKs
// inbound data frames automatically in Transport.step); call Step
// afterward on the host side (PumpFrame/Proc) to have it delivered.
func (r *FakeRadio) Send(f frame.Frame) error {
	enc, err := frame.Encode(f)
	if err != nil {
		return err
	}
	return r.pipe.radioWrite(enc)
}
