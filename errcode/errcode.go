// Package errcode defines the stable error identifiers that cross the
// library's callback boundary. The public API (host/api.go) hands these
// Codes to its callbacks; Code.Int maps each to the small integer of
// spec.md §6 ("all public callbacks carry an integer error: 0 means
// success") for a caller that needs that form.
package errcode

// Code is a stable, callback-facing error identifier. It is a string
// newtype, comparable, allocation-free, and implements error.
type Code string

func (c Code) Error() string { return string(c) }

// Canonical codes. OK must map to Int() == 0; every other code must map to
// a distinct nonzero value, since user callbacks distinguish failures only
// by that integer (spec.md §6, §7).
const (
	OK Code = "ok"

	// Recovered locally (spec.md §7) — never escape to a user callback on
	// their own; they either trigger a retry or get folded into one of the
	// codes below once a budget is exhausted.
	ChecksumFailed Code = "checksum_failed"
	ShortFrame     Code = "short_frame"

	// Surfaced to the user.
	RetriesExhausted Code = "retries_exhausted"
	Timeout          Code = "timeout"
	RadioFailure     Code = "radio_failure"
	Busy             Code = "busy"
	InvalidParams    Code = "invalid_params"
	Cancelled        Code = "cancelled"
	Duplicate        Code = "duplicate_request"

	// Fatal / programmer error.
	Uninitialized Code = "uninitialized"
	InitFailed    Code = "init_failed"

	Unknown Code = "error" // generic fallback
)

var intTable = map[Code]int32{
	OK:               0,
	ChecksumFailed:   1,
	ShortFrame:       2,
	RetriesExhausted: 3,
	Timeout:          4,
	RadioFailure:     5,
	Busy:             6,
	InvalidParams:    7,
	Cancelled:        8,
	Duplicate:        9,
	Uninitialized:    10,
	InitFailed:       11,
	Unknown:          99,
}

// Int returns the stable integer this Code reports across the public
// callback boundary. Unrecognized codes map to Unknown's value, never 0.
func (c Code) Int() int32 {
	if n, ok := intTable[c]; ok {
		return n
	}
	return intTable[Unknown]
}

// E wraps a Code with an operation name and an underlying cause, for
// internal errors.Is/errors.As chains. Only the bare Code crosses the
// public API; E is for logs and internal control flow.
type E struct {
	C   Code
	Op  string
	Msg string
	Err error
}

func (e *E) Error() string {
	if e.Msg != "" {
		return e.Op + ": " + string(e.C) + ": " + e.Msg
	}
	return e.Op + ": " + string(e.C)
}
func (e *E) Unwrap() error { return e.Err }
func (e *E) Code() Code    { return e.C }

// WithMsg attaches a human-readable detail message and returns e, for
// chaining onto Wrap at the call site.
func (e *E) WithMsg(msg string) *E {
	e.Msg = msg
	return e
}

// Wrap builds an *E, attaching op/cause context to a Code.
func Wrap(op string, c Code, cause error) *E {
	return &E{C: c, Op: op, Err: cause}
}

// Of extracts a Code from an error, defaulting to Unknown. A nil error
// yields OK.
func Of(err error) Code {
	if err == nil {
		return OK
	}
	if c, ok := err.(Code); ok {
		return c
	}
	type coder interface{ Code() Code }
	if x, ok := err.(coder); ok {
		return x.Code()
	}
	return Unknown
}
