package frame

// UnitKind classifies one thing the byte-stream scanner pulled off the wire.
type UnitKind uint8

const (
	UnitNone UnitKind = iota
	UnitACK
	UnitNACK
	UnitCAN
	UnitData
	UnitGarbage // a byte that matched no frame shape; dropped and logged by the caller
)

// Unit is one parsed element of the inbound byte stream.
type Unit struct {
	Kind       UnitKind
	Frame      Frame
	ChecksumOK bool  // only meaningful when Kind == UnitData
	Dropped    byte  // only meaningful when Kind == UnitGarbage
}

// Framer incrementally scans an inbound byte stream into frames and control
// bytes (spec.md §4.A). It holds no I/O of its own — the transport feeds it
// bytes read from the host's uart_read callback and asks for the next Unit.
type Framer struct {
	buf []byte
}

func NewFramer() *Framer { return &Framer{} }

// Feed appends newly read bytes to the internal buffer.
func (fr *Framer) Feed(data []byte) {
	fr.buf = append(fr.buf, data...)
}

// Pending reports how many unconsumed bytes are buffered.
func (fr *Framer) Pending() int { return len(fr.buf) }

// Next extracts the next complete Unit from the buffer. ok is false when
// the buffer holds no complete unit yet (more bytes are needed); callers
// should keep calling Next in a loop after each Feed until ok is false, so
// that multiple units queued in one read are all drained (spec.md §4.A:
// "frames are delivered up in the order they arrived on the wire").
func (fr *Framer) Next() (Unit, bool) {
	for len(fr.buf) > 0 {
		b := fr.buf[0]
		switch b {
		case ACK:
			fr.consume(1)
			return Unit{Kind: UnitACK}, true
		case NACK:
			fr.consume(1)
			return Unit{Kind: UnitNACK}, true
		case CAN:
			fr.consume(1)
			return Unit{Kind: UnitCAN}, true
		case SOF:
			u, ok, garbage := fr.tryDataFrame()
			if garbage {
				fr.consume(1)
				return Unit{Kind: UnitGarbage, Dropped: SOF}, true
			}
			if !ok {
				return Unit{}, false // incomplete; wait for more bytes
			}
			return u, true
		default:
			fr.consume(1)
			return Unit{Kind: UnitGarbage, Dropped: b}, true
		}
	}
	return Unit{}, false
}

// tryDataFrame attempts to parse a SOF-prefixed frame starting at buf[0].
// garbage is true when the header itself is malformed (e.g. zero length)
// and the SOF byte should simply be discarded rather than waited on.
func (fr *Framer) tryDataFrame() (u Unit, ok bool, garbage bool) {
	if len(fr.buf) < 2 {
		return Unit{}, false, false
	}
	length := fr.buf[1]
	if length == 0 {
		return Unit{}, false, true // a frame always has at least a type byte
	}
	total := int(length) + 3 // SOF + length + (type+payload, counted by length) + checksum
	if len(fr.buf) < total {
		return Unit{}, false, false
	}
	typ := Type(fr.buf[2])
	payload := append([]byte(nil), fr.buf[3:2+int(length)]...)
	gotChecksum := fr.buf[2+int(length)]
	wantChecksum := Checksum(length, typ, payload)
	fr.consume(total)
	return Unit{
		Kind:       UnitData,
		Frame:      Frame{Type: typ, Payload: payload},
		ChecksumOK: gotChecksum == wantChecksum,
	}, true, false
}

func (fr *Framer) consume(n int) {
	fr.buf = fr.buf[n:]
}
