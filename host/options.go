package host

import (
	"github.com/jangala-dev/zwavehost/cache"
	"github.com/jangala-dev/zwavehost/errcode"
	"github.com/jangala-dev/zwavehost/frame"
	"github.com/jangala-dev/zwavehost/logging"
)

// Options is the host callback vtable (spec.md §6) plus tunables. There is
// no file-based configuration layer: the library is configured
// programmatically, the way the teacher's services/hal/config validates a
// struct before use, not by parsing a document.
//
// The memory allocator spec.md §6 lists as a required callback has no
// field here: Go's runtime allocator is implicit and not something a host
// application would plausibly override, unlike the C original this spec
// distills from.
type Options struct {
	// Now is the monotonic millisecond clock (required).
	Now func() int64
	// Logger receives every log line the core emits (required; pass
	// logging.Discard{} explicitly for no output).
	Logger logging.Logger

	// UARTRead/UARTWrite move bytes to and from the radio (required).
	UARTRead  frame.ReadFunc
	UARTWrite frame.WriteFunc
	// UARTReset is used after repeated framing failures (optional).
	UARTReset frame.ResetFunc

	// StoreSave/StoreLoad/StoreReset persist the node cache blob (required).
	StoreSave  cache.StoreSaveFunc
	StoreLoad  cache.StoreLoadFunc
	StoreReset cache.StoreResetFunc

	// SessionTimeoutMs overrides the session table's default per-request
	// deadline (5s) when positive.
	SessionTimeoutMs int64
}

// Validate rejects a missing required callback before Init commits to the
// operational state (spec.md §7: "fatal: failure of a required host
// callback during init; the library refuses to enter the operational
// state and logs an error").
func (o Options) Validate() error {
	missing := func(name string) error {
		return errcode.Wrap("host.options.validate", errcode.InitFailed, nil).WithMsg(name + " is required")
	}
	switch {
	case o.Now == nil:
		return missing("Now")
	case o.Logger == nil:
		return missing("Logger")
	case o.UARTRead == nil:
		return missing("UARTRead")
	case o.UARTWrite == nil:
		return missing("UARTWrite")
	case o.StoreSave == nil:
		return missing("StoreSave")
	case o.StoreLoad == nil:
		return missing("StoreLoad")
	case o.StoreReset == nil:
		return missing("StoreReset")
	}
	return nil
}
