package frame

import (
	"time"

	"github.com/jangala-dev/zwavehost/errcode"
	"github.com/jangala-dev/zwavehost/logging"
)

// Sending rules (spec.md §4.A): after transmitting a frame the transport
// waits up to a bounded interval for an ACK; on timeout, NACK or CAN it
// retransmits; after three failed attempts the frame is reported failed
// upward and the transport performs a hard resynchronization.
const (
	ackTimeout       = 1500 * time.Millisecond
	maxSendAttempts  = 3
	maxContentionRun = 8 // safety bound on host-loses contention restarts for one Send
	pollInterval     = 2 * time.Millisecond
)

// ReadFunc is the host's uart_read callback: it fills buf with whatever is
// currently available and returns immediately (0, nil when nothing is
// available — it must never block indefinitely).
type ReadFunc func(buf []byte) (int, error)

// WriteFunc is the host's uart_write callback.
type WriteFunc func(data []byte) error

// ResetFunc is the optional host uart_reset callback, used after repeated
// framing failures (spec.md §6). May be nil.
type ResetFunc func() error

// ClockFunc is the host's monotonic millisecond clock (spec.md §6).
type ClockFunc func() int64

// Transport owns the byte pipe and implements the reliable frame protocol.
// It is single-threaded and cooperative (spec.md §5): Send may block the
// caller for up to a few seconds (the retry budget), and PumpFrame never
// blocks.
type Transport struct {
	read  ReadFunc
	write WriteFunc
	reset ResetFunc
	now   ClockFunc
	log   logging.Logger
	sleep func(time.Duration) // overridable in tests

	fr *Framer

	readBuf []byte

	// Stats, primarily for tests (spec.md §8 scenario 5).
	RetryCount int
}

func NewTransport(read ReadFunc, write WriteFunc, reset ResetFunc, now ClockFunc, log logging.Logger) *Transport {
	if log == nil {
		log = logging.Discard{}
	}
	return &Transport{
		read:    read,
		write:   write,
		reset:   reset,
		now:     now,
		log:     log,
		sleep:   time.Sleep,
		fr:      NewFramer(),
		readBuf: make([]byte, 256),
	}
}

// step performs one non-blocking read-and-drain pass: it reads whatever
// bytes are available, feeds the framer, and processes every complete unit
// found. Inbound data frames are ACKed/NACKed per checksum and, if valid,
// handed to deliver. It reports which control bytes were seen and whether
// a data frame was processed (the host-loses contention signal).
func (t *Transport) step(deliver func(Frame)) (sawACK, sawNACK, sawCAN, sawData bool) {
	n, err := t.read(t.readBuf)
	if err == nil && n > 0 {
		t.fr.Feed(t.readBuf[:n])
	}
	for {
		u, ok := t.fr.Next()
		if !ok {
			return
		}
		switch u.Kind {
		case UnitACK:
			sawACK = true
		case UnitNACK:
			sawNACK = true
		case UnitCAN:
			sawCAN = true
		case UnitGarbage:
			t.log.Warnf("frame: dropped unexpected byte 0x%02x", u.Dropped)
		case UnitData:
			sawData = true
			if u.ChecksumOK {
				_ = t.write([]byte{ACK})
				if deliver != nil {
					deliver(u.Frame)
				}
			} else {
				t.log.Warnf("frame: checksum failed, dropping frame (%d bytes)", len(u.Frame.Payload))
				_ = t.write([]byte{NACK})
			}
		}
	}
}

// Send transmits payload as a frame of the given type and blocks until it
// is acknowledged or permanently fails (spec.md §4.A, §5). deliverInbound
// is invoked (possibly several times) for any unsolicited frames the radio
// sends while Send is waiting — this is how contention-losing inbound
// traffic still reaches the session layer promptly.
func (t *Transport) Send(payload []byte, typ Type, deliverInbound func(Frame)) error {
	enc, err := Encode(Frame{Type: typ, Payload: payload})
	if err != nil {
		return errcode.Wrap("transport.send", errcode.InvalidParams, err)
	}

	attempt := 0
	contentionRuns := 0
	for attempt < maxSendAttempts {
		if err := t.write(enc); err != nil {
			attempt++
			continue
		}
		deadline := t.now() + ackTimeout.Milliseconds()
		contended := false
		for t.now() < deadline {
			ack, nack, can, hadData := t.step(deliverInbound)
			switch {
			case ack:
				t.RetryCount += attempt
				return nil
			case nack, can:
				goto retry
			case hadData:
				contended = true
				goto waitDone
			}
			t.sleep(pollInterval)
		}
	waitDone:
		if contended {
			contentionRuns++
			if contentionRuns > maxContentionRun {
				break // give up treating this as recoverable contention
			}
			continue // resend the same frame; does not consume an attempt
		}
		// plain timeout
	retry:
		attempt++
	}

	t.RetryCount += attempt
	t.hardResync()
	return errcode.Wrap("transport.send", errcode.RetriesExhausted, nil)
}

// PumpFrame performs one non-blocking pass over the wire, delivering any
// complete inbound application frame to deliver. It is safe to call on
// every Proc() tick even when no Send is outstanding.
func (t *Transport) PumpFrame(deliver func(Frame)) {
	t.step(deliver)
}

// hardResync flushes buffered bytes and asks the host to reset the UART,
// if it provided that optional callback (spec.md §4.A, §6).
func (t *Transport) hardResync() {
	t.fr = NewFramer()
	if t.reset != nil {
		if err := t.reset(); err != nil {
			t.log.Errorf("transport: uart reset failed: %v", err)
		}
	}
}
