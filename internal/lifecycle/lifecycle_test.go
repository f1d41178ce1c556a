package lifecycle

import (
	"encoding/json"
	"net"
	"testing"
	"time"

	"github.com/google/go-dap"
	"github.com/sirupsen/logrus"

	"github.com/dev-console/dap-proxy/internal/adapter"
	"github.com/dev-console/dap-proxy/internal/correlator"
	"github.com/dev-console/dap-proxy/internal/session"
	"github.com/dev-console/dap-proxy/internal/transport"
)

// pipeLifecycle wires a Lifecycle to one end of an in-memory net.Pipe and
// returns the other end for the test to act as the fake adapter on.
func pipeLifecycle(t *testing.T) (*Lifecycle, net.Conn) {
	t.Helper()
	client, fakeAdapter := net.Pipe()
	sess := session.New(logrus.New())
	sess.Transport = transport.Tcp(client, nil)
	corr := correlator.New(sess, 2*time.Second)
	cfg := adapter.Config{ID: "test-adapter"}
	return New(cfg, sess, corr, nil), fakeAdapter
}

func writeFrame(t *testing.T, conn net.Conn, v any) {
	t.Helper()
	body, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if _, err := conn.Write(transport.Encode(body)); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func readRequest(t *testing.T, conn net.Conn) map[string]any {
	t.Helper()
	buf := make([]byte, 4096)
	n, err := conn.Read(buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	status, body, _ := transport.Decode(buf[:n])
	if status != transport.OK {
		t.Fatalf("frame did not decode cleanly: %q", buf[:n])
	}
	var env map[string]any
	if err := json.Unmarshal(body, &env); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return env
}

// TestSetFileBreakpointDeferredWindowOnlyUpdatesRegistry covers spec.md
// §4.8.7: before any launch has completed, setting a breakpoint must not
// produce any wire traffic.
func TestSetFileBreakpointDeferredWindowOnlyUpdatesRegistry(t *testing.T) {
	l, fakeAdapter := pipeLifecycle(t)
	defer fakeAdapter.Close()

	bp, err := l.SetFileBreakpoint("/tmp/does-not-exist.go", 10, "", "", "")
	if err != nil {
		t.Fatalf("SetFileBreakpoint: %v", err)
	}
	if bp.Line != 10 {
		t.Fatalf("bp.Line = %d, want 10", bp.Line)
	}

	files, _ := l.ListBreakpoints()
	if len(files) != 1 {
		t.Fatalf("ListBreakpoints() files = %+v, want exactly one file", files)
	}

	// Confirm no wire traffic was produced: a concurrent read with a short
	// deadline should time out rather than see a setBreakpoints request.
	done := make(chan struct{})
	go func() {
		defer close(done)
		fakeAdapter.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
		buf := make([]byte, 64)
		if _, err := fakeAdapter.Read(buf); err == nil {
			t.Error("expected no wire traffic while deferred, but a read succeeded")
		}
	}()
	<-done
}

// TestRearmBreakpointsSendsSetBreakpointsAndAppliesVerification covers
// spec.md §4.9: rearm replays a consolidated setBreakpoints per tracked file
// and applies the adapter's verification response back onto the registry.
func TestRearmBreakpointsSendsSetBreakpointsAndAppliesVerification(t *testing.T) {
	l, fakeAdapter := pipeLifecycle(t)
	defer fakeAdapter.Close()

	bp, err := l.SetFileBreakpoint("/tmp/main.go", 5, "x > 1", "", "")
	if err != nil {
		t.Fatalf("SetFileBreakpoint: %v", err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		env := readRequest(t, fakeAdapter)
		if env["command"] != "setBreakpoints" {
			t.Errorf("command = %v, want setBreakpoints", env["command"])
		}
		writeFrame(t, fakeAdapter, &dap.SetBreakpointsResponse{
			Response: dap.Response{
				ProtocolMessage: dap.ProtocolMessage{Seq: 1, Type: "response"},
				RequestSeq:      int(env["seq"].(float64)),
				Success:         true,
				Command:         "setBreakpoints",
			},
			Body: dap.SetBreakpointsResponseBody{
				Breakpoints: []dap.Breakpoint{{Verified: true, Line: 6}},
			},
		})
	}()

	l.rearmBreakpoints()
	<-done

	files, _ := l.ListBreakpoints()
	got := files["/tmp/main.go"][0]
	if got.ID != bp.ID {
		t.Fatalf("registry entry id mismatch: got %d, want %d", got.ID, bp.ID)
	}
	if !got.Verified || got.Line != 6 {
		t.Fatalf("breakpoint = %+v, want Verified=true Line=6 after rearm", got)
	}
}

// TestRunContinueFetchesStackTraceOnStop covers spec.md §4.8.5: a successful
// stop eagerly fetches and caches a stack trace.
func TestRunContinueFetchesStackTraceOnStop(t *testing.T) {
	l, fakeAdapter := pipeLifecycle(t)
	defer fakeAdapter.Close()
	l.Session.Initialized = true
	l.Session.State = session.StateRunning

	done := make(chan struct{})
	go func() {
		defer close(done)

		env := readRequest(t, fakeAdapter)
		if env["command"] != "continue" {
			t.Fatalf("command = %v, want continue", env["command"])
		}
		writeFrame(t, fakeAdapter, &dap.ContinueResponse{
			Response: dap.Response{
				ProtocolMessage: dap.ProtocolMessage{Seq: 1, Type: "response"},
				RequestSeq:      int(env["seq"].(float64)),
				Success:         true,
				Command:         "continue",
			},
		})
		writeFrame(t, fakeAdapter, &dap.StoppedEvent{
			Event: dap.Event{ProtocolMessage: dap.ProtocolMessage{Seq: 2, Type: "event"}, Event: "stopped"},
			Body:  dap.StoppedEventBody{Reason: "breakpoint", ThreadId: 1},
		})

		env = readRequest(t, fakeAdapter)
		if env["command"] != "stackTrace" {
			t.Fatalf("command = %v, want stackTrace", env["command"])
		}
		writeFrame(t, fakeAdapter, &dap.StackTraceResponse{
			Response: dap.Response{
				ProtocolMessage: dap.ProtocolMessage{Seq: 3, Type: "response"},
				RequestSeq:      int(env["seq"].(float64)),
				Success:         true,
				Command:         "stackTrace",
			},
			Body: dap.StackTraceResponseBody{
				StackFrames: []dap.StackFrame{{Id: 42, Name: "main"}},
				TotalFrames: 1,
			},
		})
	}()

	state, err := l.Run(ActionContinue, RunOptions{ThreadID: 1})
	<-done
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if state.Exited {
		t.Fatal("state.Exited = true, want false")
	}
	if state.Reason != "breakpoint" {
		t.Fatalf("state.Reason = %q, want breakpoint", state.Reason)
	}
	if state.TopFrameID != 42 {
		t.Fatalf("state.TopFrameID = %d, want 42", state.TopFrameID)
	}
}
