// Package codec implements the Command-Class Codec (spec.md §4.D): encode
// routines that build a wire payload from a typed request, and decode
// routines that parse a wire payload into a typed report, one pair per
// supported command class.
//
// Each Encode* function returns a payload starting with the operation
// byte; callers (the session/dispatch layer) prepend the one-byte command
// class id before handing the result to the transport. Decode functions
// are given the payload with both the class and op byte already stripped.
//
// Decode dispatch is a registry keyed by (class, op), following the
// teacher's registration pattern (services/hal/registry.go,
// services/hal/internal/registry/registry.go): each command-class file
// registers its decoders from an init() function and a duplicate
// registration panics at program start rather than failing silently later.
package codec

import (
	"fmt"
	"sync"

	"github.com/jangala-dev/zwavehost/errcode"
	"github.com/jangala-dev/zwavehost/types"
)

// Key identifies one (command class, operation) pair in the decode registry.
type Key struct {
	Class types.CommandClass
	Op    types.Op
}

// Decoder parses payload (the bytes after the class and op bytes) into a
// typed report. reportsToFollow is non-nil only for operations that carry
// a "reports to follow" counter (spec.md §4.D); the session layer uses it
// to decide whether to keep the session open for another segment.
type Decoder func(payload []byte) (report any, reportsToFollow *int, err error)

var (
	mu       sync.RWMutex
	decoders = map[Key]Decoder{}
)

// Register installs the decoder for (class, op). It panics on a duplicate
// registration for the same key, matching the teacher's registry panic
// discipline — a second registration is always a programming mistake, not
// a runtime condition to recover from.
func Register(class types.CommandClass, op types.Op, d Decoder) {
	mu.Lock()
	defer mu.Unlock()
	k := Key{class, op}
	if _, exists := decoders[k]; exists {
		panic(fmt.Sprintf("codec: duplicate decoder for class 0x%02x op 0x%02x", uint8(class), uint8(op)))
	}
	decoders[k] = d
}

// Decode looks up and runs the decoder registered for (class, op).
func Decode(class types.CommandClass, op types.Op, payload []byte) (any, *int, error) {
	mu.RLock()
	d, ok := decoders[Key{class, op}]
	mu.RUnlock()
	if !ok {
		return nil, nil, errcode.Wrap("codec.decode", errcode.InvalidParams, nil)
	}
	return d(payload)
}

// Registered reports whether a decoder exists for (class, op), used by the
// dispatch layer to tell "unsupported op" apart from a parse failure.
func Registered(class types.CommandClass, op types.Op) bool {
	mu.RLock()
	defer mu.RUnlock()
	_, ok := decoders[Key{class, op}]
	return ok
}

// ErrShort is returned by a decoder when the payload is too short for its
// fixed fields (spec.md §4.D "length guards"). Callers treat this the same
// as a dropped frame: logged, no user callback.
var ErrShort = errcode.Wrap("codec.decode", errcode.ShortFrame, nil)
