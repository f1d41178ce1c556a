package transport

import (
	"net"
	"syscall"
	"time"

	"github.com/dev-console/dap-proxy/internal/process"
	"github.com/dev-console/dap-proxy/internal/proxyerr"
)

// Kind identifies which variant of Transport is live.
type Kind int

const (
	// KindNone means no transport is connected.
	KindNone Kind = iota
	// KindStdio means the transport is a detached child's stdio pipes.
	KindStdio
	// KindTcp means the transport is a TCP stream to a (possibly
	// separately spawned) adapter server.
	KindTcp
)

// Transport is a tagged union over the ways the proxy talks to an adapter.
// Exactly one variant is live at a time; the zero value is None. A Transport
// may additionally retain one "parent" stream displaced by a child-session
// swap (§4.8.4), closed only at final teardown.
type Transport struct {
	kind   Kind
	proc   *process.DetachedProcess
	conn   net.Conn
	parent net.Conn
}

// None returns an unconnected transport.
func None() *Transport {
	return &Transport{kind: KindNone}
}

// Stdio returns a transport backed by a detached process's stdio pipes.
func Stdio(proc *process.DetachedProcess) *Transport {
	return &Transport{kind: KindStdio, proc: proc}
}

// Tcp returns a transport backed by a TCP stream to an adapter that was
// spawned as proc (proc may be nil if the adapter connection was not
// itself responsible for spawning, e.g. a reused child-session socket).
func Tcp(conn net.Conn, proc *process.DetachedProcess) *Transport {
	return &Transport{kind: KindTcp, conn: conn, proc: proc}
}

// Kind reports which variant is live.
func (t *Transport) Kind() Kind {
	if t == nil {
		return KindNone
	}
	return t.kind
}

// Write sends p over the live transport.
func (t *Transport) Write(p []byte) (int, error) {
	switch t.Kind() {
	case KindStdio:
		return t.proc.Stdin.Write(p)
	case KindTcp:
		return t.conn.Write(p)
	default:
		return 0, proxyerr.ErrConnectionClosed
	}
}

// Read reads from the live transport into p.
func (t *Transport) Read(p []byte) (int, error) {
	switch t.Kind() {
	case KindStdio:
		return t.proc.Stdout.Read(p)
	case KindTcp:
		return t.conn.Read(p)
	default:
		return 0, proxyerr.ErrConnectionClosed
	}
}

// PollReadable blocks until the transport has input ready, timeout elapses,
// or an error occurs. It returns proxyerr.ErrTimeout on timeout.
func (t *Transport) PollReadable(timeout time.Duration) error {
	switch t.Kind() {
	case KindStdio:
		fd, ok := fdOf(t.proc.Stdout)
		if !ok {
			return nil
		}
		return pollReadable(fd, timeout)
	case KindTcp:
		fd, ok := fdOf(t.conn)
		if !ok {
			return nil
		}
		return pollReadable(fd, timeout)
	default:
		return proxyerr.ErrConnectionClosed
	}
}

// SwapStream replaces the live TCP connection with conn, retaining the
// previously live one as the parent stream so it can be closed at teardown.
// Used by child-session orchestration (§4.8.4) to move a live Session onto
// a new DAP connection without losing any other state.
func (t *Transport) SwapStream(conn net.Conn) {
	if t.conn != nil {
		t.parent = t.conn
	}
	t.kind = KindTcp
	t.conn = conn
}

// GetPid returns the pid of the process owning this transport, if any.
func (t *Transport) GetPid() (int, bool) {
	if t == nil || t.proc == nil {
		return 0, false
	}
	return t.proc.Pid, true
}

// Kill tears the transport down: closes any TCP connection and retained
// parent stream, kills the owned process group, and resets the transport to
// None. Idempotent.
func (t *Transport) Kill() {
	if t == nil {
		return
	}
	if t.conn != nil {
		_ = t.conn.Close()
	}
	if t.parent != nil {
		_ = t.parent.Close()
	}
	t.proc.Kill()
	t.kind = KindNone
	t.conn = nil
	t.proc = nil
	t.parent = nil
}

// fdOf extracts the raw file descriptor backing r, if r exposes one via
// syscall.Conn (true of both *os.File, as returned by exec's pipes, and
// net.TCPConn).
func fdOf(r any) (uintptr, bool) {
	sc, ok := r.(syscall.Conn)
	if !ok {
		return 0, false
	}
	raw, err := sc.SyscallConn()
	if err != nil {
		return 0, false
	}
	var fd uintptr
	if err := raw.Control(func(f uintptr) { fd = f }); err != nil {
		return 0, false
	}
	return fd, true
}
