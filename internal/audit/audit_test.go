package audit

import "testing"

func TestRecord_NewestFirstMonotonicIDs(t *testing.T) {
	l := New(10, nil)

	first := l.Record("tool_call", "t1", SeverityInfo, nil)
	second := l.Record("memory_write", "t2", SeverityWarn, nil)

	if second.ID != first.ID+1 {
		t.Errorf("expected monotonic ids, got %d then %d", first.ID, second.ID)
	}

	events := l.List(0)
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].ID != second.ID {
		t.Errorf("expected newest first, got id %d", events[0].ID)
	}
}

func TestRecord_Defaults(t *testing.T) {
	l := New(10, nil)
	e := l.Record("moderation", "", "", nil)

	if e.TraceID != "unknown" {
		t.Errorf("expected trace 'unknown', got %q", e.TraceID)
	}
	if e.Severity != SeverityInfo {
		t.Errorf("expected info severity, got %q", e.Severity)
	}
	if e.Status != StatusOpen {
		t.Errorf("expected open status, got %q", e.Status)
	}
	if e.Payload == nil || e.Notes == nil {
		t.Error("expected non-nil payload and notes")
	}
}

func TestRing_DropsOldest(t *testing.T) {
	l := New(3, nil)
	for i := 0; i < 5; i++ {
		l.Record("tool_call", "t", SeverityInfo, nil)
	}

	events := l.List(0)
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	// IDs 5, 4, 3 survive; 1 and 2 were dropped.
	if events[0].ID != 5 || events[2].ID != 3 {
		t.Errorf("unexpected surviving ids: %d..%d", events[0].ID, events[2].ID)
	}
}

func TestList_Limit(t *testing.T) {
	l := New(10, nil)
	for i := 0; i < 5; i++ {
		l.Record("tool_call", "t", SeverityInfo, nil)
	}
	if got := len(l.List(2)); got != 2 {
		t.Errorf("expected 2 events, got %d", got)
	}
	if got := len(l.List(0)); got != 5 {
		t.Errorf("expected all 5 events, got %d", got)
	}
}

func TestExport_ReturnsFullTrail(t *testing.T) {
	l := New(10, nil)
	for i := 0; i < 4; i++ {
		l.Record("tool_call", "t", SeverityInfo, nil)
	}

	events := l.Export()
	if len(events) != 4 {
		t.Fatalf("expected 4 events, got %d", len(events))
	}
	if events[0].ID != 4 || events[3].ID != 1 {
		t.Errorf("expected newest first, got ids %d..%d", events[0].ID, events[3].ID)
	}

	// Export hands back a copy; mutating it must not touch the ring.
	events[0].Status = StatusOverridden
	if l.List(0)[0].Status != StatusOpen {
		t.Error("export leaked internal state")
	}
}

func TestOverride(t *testing.T) {
	l := New(10, nil)
	e := l.Record("tool_call", "t1", SeverityWarn, nil)

	if !l.Override(e.ID, "false positive", "reviewer") {
		t.Fatal("expected override to succeed")
	}

	got := l.List(0)[0]
	if got.Status != StatusOverridden {
		t.Errorf("expected overridden status, got %q", got.Status)
	}
	if len(got.Notes) != 1 || got.Notes[0].Actor != "reviewer" || got.Notes[0].Note != "false positive" {
		t.Errorf("unexpected notes: %+v", got.Notes)
	}

	if l.Override(999, "nope", "") {
		t.Error("expected override of unknown id to fail")
	}
}
