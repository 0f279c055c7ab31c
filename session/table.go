// Package session implements the Session Table (spec.md §4.B): the bounded
// set of pending request/reply records that bridges an outbound command to
// the eventual inbound callback or report, with timeouts and cancellation.
//
// The bookkeeping — a map of pending items plus a linear due-time scan
// driven by a periodic tick rather than per-item goroutines/timers — is
// grounded on the teacher's measurement worker (services/hal/worker.go),
// adapted from its goroutine-and-channel form to the pump-driven model
// spec.md §5 requires: there is no Start/ctx here, only Proc, called from
// the host's tick.
package session

import (
	"github.com/jangala-dev/zwavehost/errcode"
	"github.com/jangala-dev/zwavehost/logging"
	"github.com/jangala-dev/zwavehost/types"
)

// Callback receives one delivery for a session: a decoded payload (opaque
// to the table itself) and a result code. For multi-part reports it fires
// once per segment, then a final time with a nil payload as a terminator
// once the "reports to follow" counter reaches zero (spec.md §4.B, §4.D).
type Callback func(payload any, code errcode.Code)

// Dest identifies the application-level source/destination a record is
// pending against, used both for the duplicate-request check and for
// matching unsolicited reports that arrive with no transaction tag.
type Dest struct {
	Node     types.NodeID
	Endpoint types.Endpoint
	Class    types.CommandClass
}

// Record is one in-flight request/reply (spec.md §3 "Session record").
type Record struct {
	Tag   uint16
	Dest  Dest
	Key   string // disambiguates same (node,endpoint,class) requests with different parameters
	CB    Callback
	Multi bool // true once a segment has indicated more reports are coming

	submittedAt int64
	deadline    int64
}

// Table holds every pending record, indexed both by transaction tag (for
// radio callbacks) and by destination (for unsolicited reports), per the
// matching rules in spec.md §4.B.
type Table struct {
	log logging.Logger

	byTag  map[uint16]*Record
	byDest map[Dest][]*Record

	nextTag uint16

	defaultTimeoutMs int64
}

func New(log logging.Logger) *Table {
	if log == nil {
		log = logging.Discard{}
	}
	return &Table{
		log:              log,
		byTag:            make(map[uint16]*Record),
		byDest:           make(map[Dest][]*Record),
		defaultTimeoutMs: 5000,
	}
}

// SetDefaultTimeout overrides the per-record timeout (default 5s); tests
// and hosts with a slower mesh may want a wider budget.
func (t *Table) SetDefaultTimeout(ms int64) { t.defaultTimeoutMs = ms }

func (t *Table) allocTag() uint16 {
	for {
		t.nextTag++
		if t.nextTag == 0 {
			t.nextTag = 1 // 0 reserved as "no tag" / unsolicited
		}
		if _, taken := t.byTag[t.nextTag]; !taken {
			return t.nextTag
		}
	}
}

// Submit inserts a new pending record ahead of the transport send,
// enforcing the at-most-one-session-per-(dest,key) invariant (spec.md §3):
// a colliding request fast-fails with errcode.Duplicate rather than
// queuing, per DESIGN.md's resolution of that open question.
func (t *Table) Submit(dest Dest, key string, cb Callback, nowMs int64, timeoutMs int64) (uint16, error) {
	for _, rec := range t.byDest[dest] {
		if rec.Key == key {
			return 0, errcode.Wrap("session.submit", errcode.Duplicate, nil)
		}
	}
	if timeoutMs <= 0 {
		timeoutMs = t.defaultTimeoutMs
	}
	tag := t.allocTag()
	rec := &Record{
		Tag:         tag,
		Dest:        dest,
		Key:         key,
		CB:          cb,
		submittedAt: nowMs,
		deadline:    nowMs + timeoutMs,
	}
	t.byTag[tag] = rec
	t.byDest[dest] = append(t.byDest[dest], rec)
	return tag, nil
}

// MatchTag finds a pending record by the transaction tag the radio echoed
// back (spec.md §4.B, first matching rule).
func (t *Table) MatchTag(tag uint16) (*Record, bool) {
	rec, ok := t.byTag[tag]
	return rec, ok
}

// MatchUnsolicited finds a pending record awaiting a report from dest, used
// when an inbound frame carries no transaction tag (spec.md §4.B, second
// matching rule). Callers should treat "no match" as an unsolicited report
// to be routed to the node cache / application path instead.
func (t *Table) MatchUnsolicited(dest Dest) (*Record, bool) {
	recs := t.byDest[dest]
	if len(recs) == 0 {
		return nil, false
	}
	return recs[0], true
}

// Deliver completes one delivery to rec. moreToFollow keeps the session
// open for the next segment of a multi-part report (spec.md §4.D); once a
// segment reports no more to follow, the callback fires with this payload.
// multiPart marks the underlying operation as one whose reports carry a
// "reports to follow" counter at all (i.e. the decoder returned a non-nil
// count), as opposed to a single-shot op that never does — only a
// multi-part op gets the final nil-payload terminator call, per spec.md
// §8's "the user callback is invoked exactly once for single-shot
// operations." rec.Multi already being set (a prior segment arrived)
// implies multiPart, so it is checked too for clarity at the call site.
func (t *Table) Deliver(rec *Record, payload any, code errcode.Code, moreToFollow bool, multiPart bool) {
	if moreToFollow {
		rec.Multi = true
		if rec.CB != nil {
			rec.CB(payload, code)
		}
		return
	}
	if rec.CB != nil {
		rec.CB(payload, code)
		if rec.Multi || multiPart {
			rec.CB(nil, code)
		}
	}
	t.remove(rec)
}

// Fail completes rec immediately with a failure code and no payload, used
// for send failures, timeouts and cancellation.
func (t *Table) Fail(rec *Record, code errcode.Code) {
	if rec.CB != nil {
		rec.CB(nil, code)
	}
	t.remove(rec)
}

func (t *Table) remove(rec *Record) {
	delete(t.byTag, rec.Tag)
	recs := t.byDest[rec.Dest]
	for i, r := range recs {
		if r == rec {
			recs = append(recs[:i], recs[i+1:]...)
			break
		}
	}
	if len(recs) == 0 {
		delete(t.byDest, rec.Dest)
	} else {
		t.byDest[rec.Dest] = recs
	}
}

// Proc scans for expired records and fails them with errcode.Timeout
// (spec.md §4.B, §5 "the core's periodic tick scans for expired records").
// Call it once per host Proc() tick.
func (t *Table) Proc(nowMs int64) {
	var expired []*Record
	for _, rec := range t.byTag {
		if nowMs >= rec.deadline {
			expired = append(expired, rec)
		}
	}
	for _, rec := range expired {
		t.log.Warnf("session: tag %d to node %d timed out", rec.Tag, rec.Dest.Node)
		t.Fail(rec, errcode.Timeout)
	}
}

// CancelAll drains every pending record with the given code, used by
// set_default's controller-wide reset and by shutdown (spec.md §4.C, §5).
func (t *Table) CancelAll(code errcode.Code) {
	all := make([]*Record, 0, len(t.byTag))
	for _, rec := range t.byTag {
		all = append(all, rec)
	}
	for _, rec := range all {
		t.Fail(rec, code)
	}
}

// Len reports the number of pending records, mainly for tests.
func (t *Table) Len() int { return len(t.byTag) }
