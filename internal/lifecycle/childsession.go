package lifecycle

import (
	"encoding/json"
	"fmt"
	"net"
	"path/filepath"
	"time"

	"github.com/dev-console/dap-proxy/internal/message"
	"github.com/dev-console/dap-proxy/internal/proxyerr"
	"github.com/dev-console/dap-proxy/internal/session"
)

const childConfigWaitTimeout = 15 * time.Second

// waitForChildConfig pumps the correlator's read loop for up to 15 seconds
// looking for a captured startDebugging configuration. A timeout here is
// not an error: most adapters never use the child-session pattern
// (spec.md §4.8.3).
func (l *Lifecycle) waitForChildConfig() {
	l.Session.State = session.StateChildPendingConfig
	err := l.Corr.PumpUntil(func() bool {
		return l.Session.ChildConfig.Pending != nil
	}, childConfigWaitTimeout)
	if err != nil {
		l.Logger.Debug("lifecycle: no child-session startDebugging observed; adapter does not use child sessions")
	}
	if l.Session.ChildConfig.Pending == nil && l.Session.State == session.StateChildPendingConfig {
		l.Session.State = session.StateRunning
	}
}

// connectChildSession implements spec.md §4.8.4: swap onto a fresh TCP
// connection to the same adapter port, reinitialize, enrich and send the
// captured launch configuration, re-arm breakpoints, and either send
// configurationDone immediately or defer it for the first run(continue).
func (l *Lifecycle) connectChildSession() error {
	conn, err := net.DialTimeout("tcp", fmt.Sprintf("127.0.0.1:%d", l.Session.ChildConfig.Port), 5*time.Second)
	if err != nil {
		return fmt.Errorf("%w: child session: %v", proxyerr.ErrConnectionFailed, err)
	}

	l.Session.Transport.SwapStream(conn)
	l.Session.Reset()

	if err := l.initializeHandshake(); err != nil {
		return err
	}

	enriched, err := l.enrichChildConfig(l.Session.ChildConfig.Pending)
	if err != nil {
		return err
	}
	if err := l.Corr.SendRaw(message.LaunchRaw(l.Session.NextSeq(), enriched)); err != nil {
		return err
	}
	if _, err := l.Corr.WaitForEvent("initialized"); err != nil {
		return err
	}
	l.Session.Initialized = true

	l.rearmBreakpoints()

	if l.Session.SavedLaunch.StopOnEntry {
		l.Session.ChildConfig.DeferredConfigurationDone = true
		l.Session.State = session.StateDeferredConfigDone
	} else {
		if _, err := l.Corr.SendRequest(message.ConfigurationDone(l.Session.NextSeq())); err != nil {
			return err
		}
		l.Session.State = session.StateRunning
	}

	// Discard handshake noise accumulated on the child connection.
	l.Session.DrainNotifications()
	l.Session.ChildConfig.Pending = nil
	return nil
}

// enrichChildConfig implements the child-launch enrichment rules of
// spec.md §4.8.4: source-map wiring when the top-level extras blob opts
// into it, and an unconditional stopOnEntry=false override (child adapters'
// persistent entry breakpoints misbehave otherwise).
func (l *Lifecycle) enrichChildConfig(pending json.RawMessage) (json.RawMessage, error) {
	var fields map[string]any
	if len(pending) > 0 {
		if err := json.Unmarshal(pending, &fields); err != nil {
			return nil, fmt.Errorf("lifecycle: child config: %w", err)
		}
	}
	if fields == nil {
		fields = map[string]any{}
	}

	if sourceMapsEnabled(l.Config.Extras) {
		programDir := filepath.Dir(l.Session.SavedLaunch.Program)
		fields["sourceMaps"] = true
		fields["__workspaceFolder"] = programDir
		fields["cwd"] = l.Session.SavedLaunch.Cwd
		fields["outFiles"] = []string{
			filepath.Join(programDir, "**/*.js"),
			"!**/node_modules/**",
		}
		fields["resolveSourceMapLocations"] = []string{"**", "!**/node_modules/**"}
	}
	fields["stopOnEntry"] = false

	return json.Marshal(fields)
}

func sourceMapsEnabled(extras json.RawMessage) bool {
	if len(extras) == 0 {
		return false
	}
	var fields map[string]any
	if err := json.Unmarshal(extras, &fields); err != nil {
		return false
	}
	enabled, _ := fields["sourceMaps"].(bool)
	return enabled
}
