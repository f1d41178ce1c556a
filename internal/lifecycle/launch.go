package lifecycle

import (
	"bufio"
	"fmt"
	"net"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dev-console/dap-proxy/internal/adapter"
	"github.com/dev-console/dap-proxy/internal/message"
	"github.com/dev-console/dap-proxy/internal/process"
	"github.com/dev-console/dap-proxy/internal/proxyerr"
	"github.com/dev-console/dap-proxy/internal/session"
	"github.com/dev-console/dap-proxy/internal/transport"
)

// LaunchParams are the caller-facing launch arguments (spec.md §4.8.1/§4.8.2).
type LaunchParams struct {
	Program     string
	Args        []string
	StopOnEntry bool
	Cwd         string
	Checks      []adapter.DependencyCheck
}

// Launch runs the full launch sequence (§4.8.1 for stdio adapters, §4.8.2
// for TCP adapters, including the child-session wait for adapters that
// enable it).
func (l *Lifecycle) Launch(p LaunchParams) error {
	l.Session.State = session.StateInitializing

	installDir, entryPoint, err := l.resolveInstall(p.Checks)
	if err != nil {
		return err
	}

	argv := append([]string{l.Config.Command}, l.Config.Argv...)
	argv = resolveArgv(argv, installDir, entryPoint)

	l.Session.SavedLaunch = session.SavedLaunchParams{
		Program:     p.Program,
		Args:        p.Args,
		StopOnEntry: p.StopOnEntry,
		Cwd:         p.Cwd,
		Extras:      l.Config.Extras,
		AdapterArgv: argv,
	}

	proc, err := process.Spawn(argv)
	if err != nil {
		return fmt.Errorf("lifecycle: spawn adapter: %w", err)
	}

	switch l.Config.Transport {
	case adapter.TransportStdio:
		l.Session.Transport = transport.Stdio(proc)
		return l.completeLaunch(p.StopOnEntry, p.Program, p.Args, p.Cwd, false)

	case adapter.TransportTcp:
		conn, err := l.connectTcpAdapter(proc)
		if err != nil {
			proc.Kill()
			return err
		}
		l.Session.Transport = transport.Tcp(conn, proc)

		// Child-session adapters always launch with stopOnEntry=false; the
		// child, not the parent, implements entry-stop.
		effectiveStopOnEntry := p.StopOnEntry
		if l.Config.ChildSessionsEnabled {
			effectiveStopOnEntry = false
		}
		cwd := p.Cwd
		if l.Config.ChildSessionsEnabled {
			cwd = filepath.Dir(p.Program)
		}
		if err := l.completeLaunch(effectiveStopOnEntry, p.Program, p.Args, cwd, false); err != nil {
			return err
		}

		if l.Config.ChildSessionsEnabled {
			l.waitForChildConfig()
			if l.Session.ChildConfig.Pending != nil {
				return l.connectChildSession()
			}
		}
		return nil

	default:
		proc.Kill()
		return fmt.Errorf("lifecycle: unknown transport kind %v", l.Config.Transport)
	}
}

// completeLaunch runs the shared tail of both transport variants: initialize,
// launch (raw), wait for initialized, re-arm breakpoints (unless skipRearm —
// used by restart's child-session case, where the child re-arms instead),
// configurationDone.
func (l *Lifecycle) completeLaunch(stopOnEntry bool, program string, args []string, cwd string, skipRearm bool) error {
	if err := l.initializeHandshake(); err != nil {
		return err
	}

	raw, err := message.LaunchArguments(program, args, stopOnEntry, cwd, l.Config.Extras)
	if err != nil {
		return err
	}
	if err := l.Corr.SendRaw(message.LaunchRaw(l.Session.NextSeq(), raw)); err != nil {
		return err
	}
	if _, err := l.Corr.WaitForEvent("initialized"); err != nil {
		return err
	}
	if !skipRearm {
		l.rearmBreakpoints()
	}
	if _, err := l.Corr.SendRequest(message.ConfigurationDone(l.Session.NextSeq())); err != nil {
		return err
	}

	l.Session.Initialized = true
	l.Session.State = session.StateRunning
	return nil
}

// connectTcpAdapter reads proc's stdout until the configured port-announce
// prefix is seen, parses the port from the trailing colon-separated token,
// and dials it.
func (l *Lifecycle) connectTcpAdapter(proc *process.DetachedProcess) (net.Conn, error) {
	deadline := time.Now().Add(l.Config.PortDetectTimeout)
	reader := bufio.NewReader(proc.Stdout)

	for {
		if time.Now().After(deadline) {
			return nil, proxyerr.ErrTimeout
		}
		line, err := reader.ReadString('\n')
		if line != "" && strings.Contains(line, l.Config.PortStdoutPrefix) {
			idx := strings.LastIndex(line, ":")
			if idx < 0 {
				return nil, fmt.Errorf("%w: no ':' in port-announce line %q", proxyerr.ErrPortParseFailed, line)
			}
			portStr := strings.TrimSpace(line[idx+1:])
			port, perr := strconv.Atoi(portStr)
			if perr != nil {
				return nil, fmt.Errorf("%w: %v", proxyerr.ErrPortParseFailed, perr)
			}
			conn, derr := net.DialTimeout("tcp", fmt.Sprintf("127.0.0.1:%d", port), 5*time.Second)
			if derr != nil {
				return nil, fmt.Errorf("%w: %v", proxyerr.ErrConnectionFailed, derr)
			}
			l.Session.ChildConfig.Port = port
			return conn, nil
		}
		if err != nil {
			return nil, fmt.Errorf("%w: reading adapter stdout: %v", proxyerr.ErrConnectionFailed, err)
		}
	}
}
