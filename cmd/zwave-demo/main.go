// Command zwave-demo drives a Host against either a real serial radio or
// an in-process simulated one, and exposes its operations through a small
// line-oriented console. It exists to exercise the library end to end
// the way the teacher's cmd/boardtest and cmd/uart-test programs exercise
// their own hal package: a throwaway operator harness, not a product.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/jangala-dev/zwavehost/event"
	"github.com/jangala-dev/zwavehost/host"
	"github.com/jangala-dev/zwavehost/logging"
	"github.com/jangala-dev/zwavehost/serialio"
	"github.com/jangala-dev/zwavehost/x/timex"
)

// procInterval is the host's own Proc tick rate; spec.md §5 asks for
// "roughly 1kHz".
const procInterval = time.Millisecond

func main() {
	portName := flag.String("port", "", "serial device of a real radio (e.g. /dev/ttyUSB0); omit to run an in-process simulated one")
	baud := flag.Int("baud", serialio.DefaultBaud, "serial baud rate, ignored with -port unset")
	storePath := flag.String("store", "zwave-demo.cache", "file backing the persisted node cache")
	flag.Parse()

	log := logging.NewLogrus()

	uartRead, uartWrite, uartReset, stopRadio, err := bringUpRadio(*portName, *baud, log)
	if err != nil {
		fmt.Fprintln(os.Stderr, "zwave-demo:", err)
		os.Exit(1)
	}
	defer stopRadio()

	store := newFileStore(*storePath)

	h, err := host.Init(host.Options{
		Now:        timex.NowMs,
		Logger:     log,
		UARTRead:   uartRead,
		UARTWrite:  uartWrite,
		UARTReset:  uartReset,
		StoreSave:  store.save,
		StoreLoad:  store.load,
		StoreReset: store.reset,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "zwave-demo: host init:", err)
		os.Exit(1)
	}
	defer h.Shutdown()

	go printEvents(h)

	fmt.Println("zwave-demo ready. Type 'help' for commands, 'quit' to exit.")

	cmdCh := make(chan func(*host.Host))
	go runREPL(cmdCh)

	ticker := time.NewTicker(procInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			h.Proc(timex.NowMs())
		case fn, ok := <-cmdCh:
			if !ok {
				return
			}
			fn(h)
		}
	}
}

// bringUpRadio opens a real serial port when portName is set, otherwise
// starts the in-process simulated one from fakeradio.go. Either way it
// returns the three callbacks host.Options wants and a func to tear the
// radio down on exit.
func bringUpRadio(portName string, baud int, log logging.Logger) (readFn func([]byte) (int, error), writeFn func([]byte) error, resetFn func() error, stop func(), err error) {
	if portName == "" {
		radio := newFakeRadio()
		go radio.run()
		return radio.uartRead, radio.uartWrite, radio.uartReset, radio.stop, nil
	}

	port, err := serialio.Open(portName, baud, log)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	return port.Read, port.Write, port.Reset, func() { _ = port.Close() }, nil
}

// printEvents prints the retained controller-state and per-node lifecycle
// feed (spec.md's supplemented observability surface) as it arrives, on
// its own goroutine, the way the teacher's boardtest feeds values in
// a background select loop.
func printEvents(h *host.Host) {
	conn := h.Events()
	state := conn.Subscribe(event.ControllerStateTopic())
	nodes := conn.Subscribe(event.NodeAnyTopic())
	for {
		select {
		case m, ok := <-state.Channel():
			if !ok {
				return
			}
			fmt.Printf("[event] controller state: %v\n", m.Payload)
		case m, ok := <-nodes.Channel():
			if !ok {
				return
			}
			fmt.Printf("[event] %v: %v\n", m.Topic, m.Payload)
		}
	}
}
