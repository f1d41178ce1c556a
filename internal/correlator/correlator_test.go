package correlator

import (
	"encoding/json"
	"net"
	"testing"
	"time"

	"github.com/google/go-dap"
	"github.com/sirupsen/logrus"

	"github.com/dev-console/dap-proxy/internal/session"
	"github.com/dev-console/dap-proxy/internal/transport"
)

// pipeSession wires a Session to one end of an in-memory net.Pipe and
// returns the other end for a test to act as the fake adapter on.
func pipeSession(t *testing.T) (*session.Session, net.Conn) {
	t.Helper()
	client, adapter := net.Pipe()
	sess := session.New(logrus.New())
	sess.Transport = transport.Tcp(client, nil)
	return sess, adapter
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

func TestSendRequestDropsStaleResponseThenReturnsMatch(t *testing.T) {
	sess, adapter := pipeSession(t)
	defer adapter.Close()
	c := New(sess, 2*time.Second)

	done := make(chan struct{})
	go func() {
		defer close(done)
		// Consume the request first: net.Pipe is unbuffered and SendRequest
		// writes before it reads.
		_, _ = adapter.Read(make([]byte, 4096))
		// A stale response for a request this correlator never sent (or
		// already gave up on), followed by the real match.
		writeFrame(t, adapter, &dap.Response{
			ProtocolMessage: dap.ProtocolMessage{Seq: 1, Type: "response"},
			RequestSeq:      999,
			Success:         true,
			Command:         "next",
		})
		writeFrame(t, adapter, &dap.InitializeResponse{
			Response: dap.Response{
				ProtocolMessage: dap.ProtocolMessage{Seq: 2, Type: "response"},
				RequestSeq:      1,
				Success:         true,
				Command:         "initialize",
			},
		})
	}()

	req := &dap.InitializeRequest{
		Request: dap.Request{
			ProtocolMessage: dap.ProtocolMessage{Seq: 1, Type: "request"},
			Command:         "initialize",
		},
	}
	resp, err := c.SendRequest(req)
	if err != nil {
		t.Fatalf("SendRequest: %v", err)
	}
	if _, ok := resp.(*dap.InitializeResponse); !ok {
		t.Fatalf("SendRequest returned %T, want *dap.InitializeResponse", resp)
	}
	<-done
}

func TestSendRequestClassifiesInterleavedEvent(t *testing.T) {
	sess, adapter := pipeSession(t)
	defer adapter.Close()
	c := New(sess, 2*time.Second)

	go func() {
		_, _ = adapter.Read(make([]byte, 4096)) // consume the continue request
		writeFrame(t, adapter, &dap.OutputEvent{
			Event: dap.Event{ProtocolMessage: dap.ProtocolMessage{Seq: 1, Type: "event"}, Event: "output"},
			Body:  dap.OutputEventBody{Category: "stdout", Output: "hello\n"},
		})
		writeFrame(t, adapter, &dap.Response{
			ProtocolMessage: dap.ProtocolMessage{Seq: 2, Type: "response"},
			RequestSeq:      1,
			Success:         true,
			Command:         "continue",
		})
	}()

	req := &dap.ContinueRequest{
		Request: dap.Request{ProtocolMessage: dap.ProtocolMessage{Seq: 1, Type: "request"}, Command: "continue"},
	}
	if _, err := c.SendRequest(req); err != nil {
		t.Fatalf("SendRequest: %v", err)
	}

	out := sess.TakeOutput()
	if len(out) != 1 || out[0].Text != "hello\n" {
		t.Fatalf("TakeOutput() = %+v, want one stdout entry", out)
	}
}

func TestWaitForEventServesBufferedEventFirst(t *testing.T) {
	sess, adapter := pipeSession(t)
	defer adapter.Close()
	c := New(sess, 2*time.Second)

	stopped := &dap.StoppedEvent{
		Event: dap.Event{ProtocolMessage: dap.ProtocolMessage{Seq: 1, Type: "event"}, Event: "stopped"},
		Body:  dap.StoppedEventBody{Reason: "breakpoint", ThreadId: 7},
	}
	sess.BufferEvent(stopped)

	ev, err := c.WaitForEvent("stopped")
	if err != nil {
		t.Fatalf("WaitForEvent: %v", err)
	}
	if ev != dap.Message(stopped) {
		t.Fatalf("WaitForEvent returned wrong event: %+v", ev)
	}
	if sess.ThreadID != 7 {
		t.Errorf("ThreadID = %d, want 7 (classifyTyped side effect)", sess.ThreadID)
	}
}

func TestWaitForEventBuffersNonMatchingEvents(t *testing.T) {
	sess, adapter := pipeSession(t)
	defer adapter.Close()
	c := New(sess, 2*time.Second)

	go func() {
		writeFrame(t, adapter, &dap.ThreadEvent{
			Event: dap.Event{ProtocolMessage: dap.ProtocolMessage{Seq: 1, Type: "event"}, Event: "thread"},
			Body:  dap.ThreadEventBody{Reason: "started", ThreadId: 1},
		})
		writeFrame(t, adapter, &dap.StoppedEvent{
			Event: dap.Event{ProtocolMessage: dap.ProtocolMessage{Seq: 2, Type: "event"}, Event: "stopped"},
			Body:  dap.StoppedEventBody{Reason: "entry", ThreadId: 1},
		})
	}()

	if _, err := c.WaitForEvent("stopped"); err != nil {
		t.Fatalf("WaitForEvent(stopped): %v", err)
	}

	ev, ok := sess.TakeBufferedEvent("thread")
	if !ok {
		t.Fatal("thread event was not buffered for later retrieval")
	}
	if _, ok := ev.(*dap.ThreadEvent); !ok {
		t.Fatalf("buffered event has wrong type: %T", ev)
	}
}

func TestHandleReverseRequestStartDebuggingAcksAndCapturesConfig(t *testing.T) {
	sess, adapter := pipeSession(t)
	defer adapter.Close()
	c := New(sess, 2*time.Second)

	readDone := make(chan []byte)
	go func() {
		buf := make([]byte, 4096)
		n, _ := adapter.Read(buf)
		readDone <- buf[:n]
	}()

	raw := json.RawMessage(`{"seq":1,"type":"request","command":"startDebugging","arguments":{"configuration":{"program":"x"},"request":"launch"}}`)
	f, err := decodeFrame(raw)
	if err != nil {
		t.Fatalf("decodeFrame: %v", err)
	}
	c.handleReverseRequest(f)

	if sess.ChildConfig.Pending == nil {
		t.Fatal("ChildConfig.Pending was not captured")
	}

	select {
	case got := <-readDone:
		var env struct {
			Command    string `json:"command"`
			Success    bool   `json:"success"`
			RequestSeq int    `json:"request_seq"`
		}
		body := got
		// strip the Content-Length header the same way Decode would.
		status, b, _ := transport.Decode(body)
		if status != transport.OK {
			t.Fatalf("ack frame did not decode cleanly: %q", body)
		}
		if err := json.Unmarshal(b, &env); err != nil {
			t.Fatalf("unmarshal ack: %v", err)
		}
		if env.Command != "startDebugging" || !env.Success || env.RequestSeq != 1 {
			t.Fatalf("ack = %+v, want success startDebugging ack for request_seq 1", env)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for ack")
	}
}
