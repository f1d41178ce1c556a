package transport

import (
	"errors"
	"io"
	"os"
	"testing"
	"time"

	"github.com/dev-console/dap-proxy/internal/process"
	"github.com/dev-console/dap-proxy/internal/proxyerr"
)

func TestNoneTransportRejectsIO(t *testing.T) {
	tr := None()
	if tr.Kind() != KindNone {
		t.Fatalf("Kind() = %v, want KindNone", tr.Kind())
	}
	if _, err := tr.Write([]byte("x")); !errors.Is(err, proxyerr.ErrConnectionClosed) {
		t.Errorf("Write on None = %v, want ErrConnectionClosed", err)
	}
	if _, err := tr.Read(make([]byte, 1)); !errors.Is(err, proxyerr.ErrConnectionClosed) {
		t.Errorf("Read on None = %v, want ErrConnectionClosed", err)
	}
	if _, ok := tr.GetPid(); ok {
		t.Error("GetPid on None returned ok=true")
	}
}

func TestNilTransportKind(t *testing.T) {
	var tr *Transport
	if tr.Kind() != KindNone {
		t.Errorf("nil Transport Kind() = %v, want KindNone", tr.Kind())
	}
}

func TestStdioTransportReadWrite(t *testing.T) {
	outR, outW, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe: %v", err)
	}
	inR, inW, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe: %v", err)
	}

	proc := &process.DetachedProcess{
		Pid:    4242,
		Stdin:  inW,
		Stdout: outR,
		Stderr: io.NopCloser(new(nopReader)),
	}
	tr := Stdio(proc)
	if tr.Kind() != KindStdio {
		t.Fatalf("Kind() = %v, want KindStdio", tr.Kind())
	}
	if pid, ok := tr.GetPid(); !ok || pid != 4242 {
		t.Errorf("GetPid() = (%d, %v), want (4242, true)", pid, ok)
	}

	go func() {
		_, _ = outW.Write([]byte("hello"))
		_ = outW.Close()
	}()

	buf := make([]byte, 5)
	n, err := tr.Read(buf)
	if err != nil || n != 5 || string(buf) != "hello" {
		t.Fatalf("Read = (%d, %v, %q), want (5, nil, hello)", n, err, buf)
	}

	go func() {
		got := make([]byte, 3)
		_, _ = io.ReadFull(inR, got)
	}()
	if _, err := tr.Write([]byte("abc")); err != nil {
		t.Errorf("Write: %v", err)
	}
}

func TestTransportKillIsIdempotentAndResetsToNone(t *testing.T) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe: %v", err)
	}
	proc := &process.DetachedProcess{Pid: 1, Stdin: w, Stdout: r, Stderr: io.NopCloser(new(nopReader))}
	tr := Stdio(proc)

	tr.Kill()
	if tr.Kind() != KindNone {
		t.Errorf("Kind() after Kill = %v, want KindNone", tr.Kind())
	}
	// second call must not panic
	tr.Kill()
}

func TestPollReadableTimesOutWithoutData(t *testing.T) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe: %v", err)
	}
	defer w.Close()
	defer r.Close()

	proc := &process.DetachedProcess{Pid: 1, Stdin: w, Stdout: r, Stderr: io.NopCloser(new(nopReader))}
	tr := Stdio(proc)

	start := time.Now()
	err = tr.PollReadable(50 * time.Millisecond)
	elapsed := time.Since(start)
	if !errors.Is(err, proxyerr.ErrTimeout) {
		t.Fatalf("PollReadable = %v, want ErrTimeout", err)
	}
	if elapsed > time.Second {
		t.Errorf("PollReadable took %v, want close to 50ms", elapsed)
	}
}

func TestPollReadableReturnsWhenDataArrives(t *testing.T) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe: %v", err)
	}
	defer w.Close()
	defer r.Close()

	proc := &process.DetachedProcess{Pid: 1, Stdin: w, Stdout: r, Stderr: io.NopCloser(new(nopReader))}
	tr := Stdio(proc)

	go func() {
		time.Sleep(10 * time.Millisecond)
		_, _ = w.Write([]byte("x"))
	}()

	if err := tr.PollReadable(2 * time.Second); err != nil {
		t.Errorf("PollReadable = %v, want nil", err)
	}
}

type nopReader struct{}

func (*nopReader) Read(p []byte) (int, error) { return 0, io.EOF }
