package session

import (
	"testing"

	"github.com/jangala-dev/zwavehost/errcode"
	"github.com/jangala-dev/zwavehost/types"
)

func TestSubmitAndMatchTag(t *testing.T) {
	tbl := New(nil)
	dest := Dest{Node: 5, Endpoint: 0, Class: types.ClassBasic}

	var got []any
	tag, err := tbl.Submit(dest, "get", func(p any, c errcode.Code) {
		got = append(got, p)
	}, 0, 1000)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	rec, ok := tbl.MatchTag(tag)
	if !ok {
		t.Fatalf("expected to find record for tag %d", tag)
	}
	tbl.Deliver(rec, "value", errcode.OK, false, false)

	if len(got) != 1 || got[0] != "value" {
		t.Fatalf("unexpected delivery: %+v", got)
	}
	if tbl.Len() != 0 {
		t.Fatalf("expected record to be removed after delivery, got %d pending", tbl.Len())
	}
}

func TestSubmitRejectsDuplicate(t *testing.T) {
	tbl := New(nil)
	dest := Dest{Node: 5, Endpoint: 0, Class: types.ClassBasic}

	if _, err := tbl.Submit(dest, "get", nil, 0, 1000); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	_, err := tbl.Submit(dest, "get", nil, 0, 1000)
	if errcode.Of(err) != errcode.Duplicate {
		t.Fatalf("expected duplicate error, got %v", err)
	}
}

func TestMatchUnsolicited(t *testing.T) {
	tbl := New(nil)
	dest := Dest{Node: 9, Endpoint: 2, Class: types.ClassMeter}
	tag, _ := tbl.Submit(dest, "get", func(any, errcode.Code) {}, 0, 1000)

	rec, ok := tbl.MatchUnsolicited(dest)
	if !ok || rec.Tag != tag {
		t.Fatalf("expected unsolicited match against pending record, got %+v ok=%v", rec, ok)
	}

	other := Dest{Node: 9, Endpoint: 3, Class: types.ClassMeter}
	if _, ok := tbl.MatchUnsolicited(other); ok {
		t.Fatalf("did not expect a match for an unrelated destination")
	}
}

func TestProcTimesOutExpiredRecords(t *testing.T) {
	tbl := New(nil)
	dest := Dest{Node: 1, Endpoint: 0, Class: types.ClassBasic}

	var gotCode errcode.Code
	tbl.Submit(dest, "get", func(p any, c errcode.Code) { gotCode = c }, 0, 100)

	tbl.Proc(50) // before deadline
	if tbl.Len() != 1 {
		t.Fatalf("record should still be pending before its deadline")
	}

	tbl.Proc(101) // past deadline
	if tbl.Len() != 0 {
		t.Fatalf("expected expired record to be removed")
	}
	if gotCode != errcode.Timeout {
		t.Fatalf("expected timeout code, got %v", gotCode)
	}
}

func TestCancelAllDrainsWithCode(t *testing.T) {
	tbl := New(nil)
	var codes []errcode.Code
	tbl.Submit(Dest{Node: 1, Class: types.ClassBasic}, "a", func(_ any, c errcode.Code) { codes = append(codes, c) }, 0, 1000)
	tbl.Submit(Dest{Node: 2, Class: types.ClassBasic}, "b", func(_ any, c errcode.Code) { codes = append(codes, c) }, 0, 1000)

	tbl.CancelAll(errcode.Cancelled)

	if tbl.Len() != 0 {
		t.Fatalf("expected table to be drained")
	}
	for _, c := range codes {
		if c != errcode.Cancelled {
			t.Fatalf("expected all records cancelled, got %v", c)
		}
	}
}

// A single-shot report (multiPart=false, e.g. Basic/BinarySwitch/Version
// Get) must invoke the callback exactly once, with no nil terminator
// (spec.md §8: "the user callback is invoked exactly once for single-shot
// operations").
func TestDeliverSingleShotFiresExactlyOnce(t *testing.T) {
	tbl := New(nil)
	dest := Dest{Node: 4, Endpoint: 0, Class: types.ClassVersion}

	var calls []any
	tag, _ := tbl.Submit(dest, "version", func(p any, c errcode.Code) {
		calls = append(calls, p)
	}, 0, 1000)

	rec, _ := tbl.MatchTag(tag)
	tbl.Deliver(rec, "report", errcode.OK, false, false)

	if len(calls) != 1 || calls[0] != "report" {
		t.Fatalf("expected exactly one callback invocation carrying the report, got %+v", calls)
	}
}

// Multi-part reports (spec.md §4.D) stay open across segments and the
// table fires a final nil-payload terminator once the last one arrives.
func TestDeliverMultiPartReport(t *testing.T) {
	tbl := New(nil)
	dest := Dest{Node: 3, Endpoint: 0, Class: types.ClassConfiguration}

	var segments []any
	tag, _ := tbl.Submit(dest, "name_get", func(p any, c errcode.Code) {
		segments = append(segments, p)
	}, 0, 1000)

	rec, _ := tbl.MatchTag(tag)
	tbl.Deliver(rec, "segment-1", errcode.OK, true, true)
	if tbl.Len() != 1 {
		t.Fatalf("session must stay open while more reports are expected")
	}

	rec, ok := tbl.MatchTag(tag)
	if !ok {
		t.Fatalf("expected to still find the record by tag")
	}
	tbl.Deliver(rec, "segment-2", errcode.OK, false, true)

	if tbl.Len() != 0 {
		t.Fatalf("expected record removed after final segment")
	}
	if len(segments) != 3 || segments[2] != nil {
		t.Fatalf("expected two segments plus a nil terminator, got %+v", segments)
	}
}
