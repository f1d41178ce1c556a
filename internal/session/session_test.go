package session

import (
	"testing"

	"github.com/google/go-dap"
)

func TestNextSeqMonotonicFromOne(t *testing.T) {
	s := New(nil)
	for i := 1; i <= 3; i++ {
		if got := s.NextSeq(); got != i {
			t.Fatalf("NextSeq() = %d, want %d", got, i)
		}
	}
}

func TestResetReturnsSeqToOne(t *testing.T) {
	s := New(nil)
	s.NextSeq()
	s.NextSeq()
	s.Reset()
	if got := s.NextSeq(); got != 1 {
		t.Fatalf("NextSeq() after Reset = %d, want 1", got)
	}
}

func TestDrainNotificationsOrderingAndClear(t *testing.T) {
	s := New(nil)
	_ = s.EnqueueNotification("debug/output", map[string]string{"a": "1"})
	_ = s.EnqueueNotification("debug/output", map[string]string{"a": "2"})
	_ = s.EnqueueNotification("debug/stopped", map[string]string{"reason": "breakpoint"})

	got := s.DrainNotifications()
	if len(got) != 3 {
		t.Fatalf("len(got) = %d, want 3", len(got))
	}
	wantMethods := []string{"debug/output", "debug/output", "debug/stopped"}
	for i, n := range got {
		if n.Method != wantMethods[i] {
			t.Errorf("got[%d].Method = %q, want %q", i, n.Method, wantMethods[i])
		}
	}

	if again := s.DrainNotifications(); len(again) != 0 {
		t.Errorf("second DrainNotifications = %v, want empty", again)
	}
}

func TestTakeOutputClearsBuffer(t *testing.T) {
	s := New(nil)
	s.AppendOutput("stdout", "hello\n")
	s.AppendOutput("stderr", "oops\n")

	got := s.TakeOutput()
	if len(got) != 2 || got[0].Text != "hello\n" || got[1].Category != "stderr" {
		t.Fatalf("TakeOutput() = %+v", got)
	}
	if again := s.TakeOutput(); len(again) != 0 {
		t.Errorf("second TakeOutput = %v, want empty", again)
	}
}

func TestResolveFrameID(t *testing.T) {
	s := New(nil)
	if _, ok := s.ResolveFrameID(0); ok {
		t.Error("ResolveFrameID with no cached stack should fail")
	}

	s.SetFrames([]int{100, 200, 300})
	if id, ok := s.ResolveFrameID(0); !ok || id != 100 {
		t.Errorf("ResolveFrameID(0) = (%d, %v), want (100, true)", id, ok)
	}
	if id, ok := s.ResolveFrameID(2); !ok || id != 300 {
		t.Errorf("ResolveFrameID(2) = (%d, %v), want (300, true)", id, ok)
	}
	if id, ok := s.ResolveFrameID(99); !ok || id != 100 {
		t.Errorf("ResolveFrameID(out of range) = (%d, %v), want (100, true) [cached topmost]", id, ok)
	}
}

func TestBufferedEventsFIFOMatchByName(t *testing.T) {
	s := New(nil)
	out := &dap.OutputEvent{Event: dap.Event{Event: "output"}}
	init := &dap.InitializedEvent{Event: dap.Event{Event: "initialized"}}
	s.BufferEvent(out)
	s.BufferEvent(init)

	if _, ok := s.TakeBufferedEvent("stopped"); ok {
		t.Error("TakeBufferedEvent matched a name that was never buffered")
	}
	got, ok := s.TakeBufferedEvent("initialized")
	if !ok || got != dap.Message(init) {
		t.Fatalf("TakeBufferedEvent(initialized) = (%v, %v)", got, ok)
	}
	// The non-matching "output" event should remain queued for later.
	got2, ok := s.TakeBufferedEvent("output")
	if !ok || got2 != dap.Message(out) {
		t.Fatalf("TakeBufferedEvent(output) = (%v, %v)", got2, ok)
	}
}
