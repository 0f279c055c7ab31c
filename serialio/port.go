// Package serialio is the one concrete UART binding this repository ships:
// a go.bug.st/serial-backed implementation of the host's Options.UARTRead /
// UARTWrite / UARTReset callbacks (spec.md §6), for a host application that
// talks to a real radio over an actual serial port rather than a test
// double or an in-process loopback.
package serialio

import (
	"errors"
	"fmt"
	"io"
	"time"

	"go.bug.st/serial"

	"github.com/jangala-dev/zwavehost/logging"
)

// Default link parameters for a Z-Wave-family serial API: 115200 8N1, no
// flow control.
const (
	DefaultBaud = 115200

	// readPollTimeout bounds how long a single Read call may block before
	// returning 0, nil with nothing available. frame.ReadFunc must never
	// block indefinitely (frame/transport.go's step is meant to be a quick
	// non-blocking poll), so this is kept short rather than left at the
	// library's own unbounded default.
	readPollTimeout = 5 * time.Millisecond
)

// serialPort is the slice of go.bug.st/serial's Port interface this package
// actually drives. Depending on this narrower, locally-declared interface
// instead of serial.Port directly keeps Port testable with a small fake
// instead of a mock of the full third-party surface.
type serialPort interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	Close() error
	SetReadTimeout(t time.Duration) error
	SetDTR(dtr bool) error
	ResetInputBuffer() error
}

// Port owns an open serial port and exposes it as the three callbacks
// host.Options needs. It does not frame or retry anything itself: that is
// frame.Transport's job, one layer up.
type Port struct {
	port serialPort
	log  logging.Logger
}

// Open opens name (e.g. "/dev/ttyACM0", "COM3") at baud and wraps it as a
// Port. Pass 0 for baud to use DefaultBaud.
func Open(name string, baud int, log logging.Logger) (*Port, error) {
	if log == nil {
		log = logging.Discard{}
	}
	if baud == 0 {
		baud = DefaultBaud
	}
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	p, err := serial.Open(name, mode)
	if err != nil {
		return nil, fmt.Errorf("serialio: opening %s: %w", name, err)
	}
	if err := p.SetReadTimeout(readPollTimeout); err != nil {
		_ = p.Close()
		return nil, fmt.Errorf("serialio: setting read timeout on %s: %w", name, err)
	}
	log.Infof("serialio: opened %s at %d baud", name, baud)
	return &Port{port: p, log: log}, nil
}

// Read implements frame.ReadFunc: it fills buf with whatever arrives within
// readPollTimeout and returns (0, nil), not an error, when nothing did —
// io.EOF from the underlying port (the common signal for "timed out, no
// data") is swallowed for exactly that reason.
func (p *Port) Read(buf []byte) (int, error) {
	n, err := p.port.Read(buf)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return 0, nil
		}
		return 0, fmt.Errorf("serialio: read: %w", err)
	}
	return n, nil
}

// Write implements frame.WriteFunc.
func (p *Port) Write(data []byte) error {
	_, err := p.port.Write(data)
	if err != nil {
		return fmt.Errorf("serialio: write: %w", err)
	}
	return nil
}

// Reset implements frame.ResetFunc: it toggles DTR, the common way a
// Z-Wave-family serial API controller is hard-reset over USB, and drops
// whatever is sitting in the OS's input buffer so a resync starts clean.
func (p *Port) Reset() error {
	if err := p.port.SetDTR(false); err != nil {
		return fmt.Errorf("serialio: reset: clearing dtr: %w", err)
	}
	time.Sleep(50 * time.Millisecond)
	if err := p.port.SetDTR(true); err != nil {
		return fmt.Errorf("serialio: reset: setting dtr: %w", err)
	}
	if err := p.port.ResetInputBuffer(); err != nil {
		p.log.Warnf("serialio: reset: clearing input buffer: %v", err)
	}
	return nil
}

// Close releases the underlying port. Not part of the host callback vtable:
// a host application calls this itself on shutdown, after Host.Shutdown.
func (p *Port) Close() error {
	if err := p.port.Close(); err != nil {
		return fmt.Errorf("serialio: close: %w", err)
	}
	return nil
}

// List returns the names of every serial port the OS currently reports, for
// a host application's own device-discovery UI.
func List() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("serialio: listing ports: %w", err)
	}
	return ports, nil
}
