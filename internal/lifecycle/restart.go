package lifecycle

import (
	"fmt"

	"github.com/dev-console/dap-proxy/internal/adapter"
	"github.com/dev-console/dap-proxy/internal/message"
	"github.com/dev-console/dap-proxy/internal/process"
	"github.com/dev-console/dap-proxy/internal/session"
	"github.com/dev-console/dap-proxy/internal/transport"
)

// Restart implements spec.md §4.8.6: native restart when both the adapter
// advertises supportsRestartRequest and the configured restart method is
// native, otherwise a full emulated restart.
func (l *Lifecycle) Restart() error {
	if l.Config.Restart == adapter.RestartNative && l.Session.Capabilities.SupportsRestartRequest {
		return l.nativeRestart()
	}
	return l.emulatedRestart()
}

func (l *Lifecycle) nativeRestart() error {
	if _, err := l.Corr.SendRequest(message.Restart(l.Session.NextSeq(), nil)); err != nil {
		return err
	}
	if _, err := l.Corr.WaitForEvent("initialized"); err != nil {
		l.Logger.WithError(err).Debug("lifecycle: restart: no initialized event, continuing")
	}
	l.rearmBreakpoints()
	if _, err := l.Corr.SendRequest(message.ConfigurationDone(l.Session.NextSeq())); err != nil {
		return err
	}
	return nil
}

// emulatedRestart tears the adapter process down entirely and replays the
// full launch sequence against a fresh process, since the adapter itself
// lacks (or is configured not to use) native restart support.
func (l *Lifecycle) emulatedRestart() error {
	_, _ = l.Corr.SendRequest(message.Disconnect(l.Session.NextSeq(), true, true))

	l.Session.Transport.Kill()
	l.Session.Reset()
	l.Session.Transport = transport.None()
	l.Session.Initialized = false

	argv := l.Session.SavedLaunch.AdapterArgv
	proc, err := process.Spawn(argv)
	if err != nil {
		return fmt.Errorf("lifecycle: restart: respawn adapter: %w", err)
	}

	switch l.Config.Transport {
	case adapter.TransportStdio:
		l.Session.Transport = transport.Stdio(proc)
	case adapter.TransportTcp:
		conn, err := l.connectTcpAdapter(proc)
		if err != nil {
			proc.Kill()
			return err
		}
		l.Session.Transport = transport.Tcp(conn, proc)
	default:
		proc.Kill()
		return fmt.Errorf("lifecycle: restart: unknown transport kind %v", l.Config.Transport)
	}

	sl := l.Session.SavedLaunch
	if err := l.completeLaunch(sl.StopOnEntry, sl.Program, sl.Args, sl.Cwd, l.Config.ChildSessionsEnabled); err != nil {
		return err
	}

	if l.Config.ChildSessionsEnabled {
		l.waitForChildConfig()
		if l.Session.ChildConfig.Pending != nil {
			return l.connectChildSession()
		}
	}

	l.Session.State = session.StateRunning
	return nil
}
